package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMem map[uint64]uint64

func (m fakeMem) ReadWord(addr uint64) (uint64, error) {
	return m[addr], nil
}

func (m fakeMem) WriteWord(addr uint64, v uint64) error {
	m[addr] = v
	return nil
}

func TestBreakpointArming(t *testing.T) {
	mem := fakeMem{0x1000: 0x1122334455667788}
	bp := NewBreakpoint(mem, 0x1000)
	assert.False(t, bp.Enabled())

	assert.NoError(t, bp.Enable())
	assert.True(t, bp.Enabled())
	// Low byte is the trap opcode, the rest of the word untouched.
	assert.Equal(t, uint64(0x11223344556677cc), mem[0x1000])
	assert.Equal(t, byte(0x88), bp.saved)

	assert.NoError(t, bp.Disable())
	assert.False(t, bp.Enabled())
	assert.Equal(t, uint64(0x1122334455667788), mem[0x1000])
}

func TestBreakpointIdempotence(t *testing.T) {
	mem := fakeMem{0x2000: 0xcafebabe}
	bp := NewBreakpoint(mem, 0x2000)

	// Disabling a disarmed breakpoint leaves memory alone.
	assert.NoError(t, bp.Disable())
	assert.Equal(t, uint64(0xcafebabe), mem[0x2000])

	assert.NoError(t, bp.Enable())
	// A second enable must not save the trap byte as the original.
	assert.NoError(t, bp.Enable())
	assert.Equal(t, byte(0xbe), bp.saved)

	assert.NoError(t, bp.Disable())
	assert.NoError(t, bp.Disable())
	assert.Equal(t, uint64(0xcafebabe), mem[0x2000])
}

func TestBreakpointCycleStable(t *testing.T) {
	mem := fakeMem{0x3000: 0xffffffffffffff00}
	bp := NewBreakpoint(mem, 0x3000)

	for i := 0; i < 3; i++ {
		assert.NoError(t, bp.Enable())
		assert.Equal(t, uint64(0xffffffffffffffcc), mem[0x3000])
		assert.NoError(t, bp.Disable())
		assert.Equal(t, uint64(0xffffffffffffff00), mem[0x3000])
	}
}
