package sys

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadBase reads the start address of the first mapping of the process,
// the address a position-independent image was loaded at.
func LoadBase(pid int) (uint64, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("empty maps for pid %d", pid)
	}
	return ParseBase(sc.Text())
}

// ParseBase extracts the first hex field of a maps line, everything up
// to the '-' range separator.
func ParseBase(line string) (uint64, error) {
	sep := strings.IndexByte(line, '-')
	if sep < 0 {
		return 0, fmt.Errorf("malformed maps line %q", line)
	}
	base, err := strconv.ParseUint(line[:sep], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed maps line %q: %w", line, err)
	}
	return base, nil
}
