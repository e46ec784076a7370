package dbg

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"gni.dev/minidbg/internal/dbg/proc"
	"gni.dev/minidbg/internal/dbg/term"
)

const prompt = "miniDebugger> "

// Run launches the target named in args as a traced child and drives
// the interactive session until the input stream closes. The return
// value is the process exit code.
func Run(args []string) int {
	var argInit string
	dbgFlags := flag.NewFlagSet("minidbg", flag.ExitOnError)
	dbgFlags.StringVar(&argInit, "init", "", "initial command to run")
	if err := dbgFlags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return -1
	}

	path := dbgFlags.Arg(0)
	if path == "" {
		fmt.Fprintln(os.Stderr, "Usage: minidbg <target-executable>")
		return -1
	}

	out := term.NewWriter(os.Stdout)
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	pid, err := proc.Launch(path)
	if err != nil {
		log.Error(err)
		return 1
	}
	log.Infof("Start debugging process %d", pid)

	t, err := proc.NewTarget(path, pid, log, out)
	if err != nil {
		log.Error(err)
		return 1
	}
	if err := t.WaitStart(); err != nil {
		log.Error(err)
		return 1
	}

	if st := setRawTerminal(); st != nil {
		defer st.Restore()
	}

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	tt := term.New(screen, prompt, term.DebuggerCommands(t))
	if err := tt.Run(argInit); err != nil {
		log.Error(err)
		return 1
	}
	return 0
}

// setRawTerminal switches stdin to raw mode. When the session is not
// attached to a terminal (input piped in), raw mode is not entered and
// nil is returned.
func setRawTerminal() *term.State {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	st, err := term.TerminalMode(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to get terminal mode:", err)
		return nil
	}
	return st
}
