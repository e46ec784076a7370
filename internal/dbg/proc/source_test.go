package proc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeSourceFixture(t *testing.T, lines int) string {
	t.Helper()
	var buf bytes.Buffer
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&buf, "line %d\n", i)
	}
	path := filepath.Join(t.TempDir(), "fixture.c")
	assert.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestPrintSourceWindow(t *testing.T) {
	path := writeSourceFixture(t, 10)

	var out bytes.Buffer
	assert.NoError(t, printSource(&out, path, 5, 2))
	assert.Equal(t,
		"  line 3\n  line 4\n> line 5\n  line 6\n  line 7\n",
		out.String())
}

func TestPrintSourceClippedAtStart(t *testing.T) {
	path := writeSourceFixture(t, 10)

	var out bytes.Buffer
	assert.NoError(t, printSource(&out, path, 1, 2))
	assert.Equal(t, "> line 1\n  line 2\n  line 3\n", out.String())
}

func TestPrintSourceClippedAtEnd(t *testing.T) {
	path := writeSourceFixture(t, 4)

	var out bytes.Buffer
	assert.NoError(t, printSource(&out, path, 4, 2))
	assert.Equal(t, "  line 2\n  line 3\n> line 4\n", out.String())
}

func TestPrintSourceMissingFile(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, printSource(&out, "/no/such/file.c", 1, 2))
}
