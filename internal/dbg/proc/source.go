package proc

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// printSource writes a window of lines around the target line, the
// target prefixed with "> ". A window that would start before the file
// does is clipped to line 1.
func printSource(w io.Writer, path string, line, window int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open source %s: %w", path, err)
	}
	defer f.Close()

	start := line - window
	if start < 1 {
		start = 1
	}
	end := line + window

	sc := bufio.NewScanner(f)
	for n := 1; n <= end && sc.Scan(); n++ {
		if n < start {
			continue
		}
		prefix := "  "
		if n == line {
			prefix = "> "
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}
