package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupPrefix(t *testing.T) {
	c := DebuggerCommands(nil)

	tests := []struct {
		verb string
		want string
	}{
		{"continue", "continue"},
		{"cont", "continue"},
		{"c", "continue"},
		{"b", "break"},
		{"reg", "register"},
		{"m", "memory"},
		// "s" is ambiguous between step and symbol; table order
		// resolves it to step.
		{"s", "step"},
		{"st", "step"},
		{"sy", "symbol"},
		{"n", "next"},
		{"f", "finish"},
		{"d", "disassemble"},
		{"q", "quit"},
	}
	for _, test := range tests {
		cmd, ok := c.lookup(test.verb)
		assert.True(t, ok, "verb %q", test.verb)
		assert.Equal(t, test.want, cmd.name, "verb %q", test.verb)
	}

	_, ok := c.lookup("bogus")
	assert.False(t, ok)
	_, ok = c.lookup("continues")
	assert.False(t, ok)
}

func TestProcessUnknown(t *testing.T) {
	c := DebuggerCommands(nil)
	assert.Error(t, c.Process("frobnicate"))
	assert.Error(t, c.Process(""))
}

func TestParseHex(t *testing.T) {
	v, err := parseHex("0x401130")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x401130), v)

	v, err = parseHex("0xdeadbeef")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0xdeadbeef), v)

	// Only the literal 0x form is accepted.
	_, err = parseHex("401130")
	assert.Error(t, err)
	_, err = parseHex("12")
	assert.Error(t, err)
	_, err = parseHex("0x")
	assert.Error(t, err)
	_, err = parseHex("0xzz")
	assert.Error(t, err)
}
