package main

import (
	"os"

	"gni.dev/minidbg/internal/dbg"
)

func main() {
	os.Exit(dbg.Run(os.Args[1:]))
}
