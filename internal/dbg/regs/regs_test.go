package regs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestTableLayout(t *testing.T) {
	assert.Len(t, All(), 27)
	assert.Equal(t, Rip, All()[16].Reg)
	assert.Equal(t, "rip", Rip.Name())
	assert.Equal(t, "orig_rax", OrigRax.Name())
}

func TestFromName(t *testing.T) {
	r, err := FromName("rax")
	assert.NoError(t, err)
	assert.Equal(t, Rax, r)

	// Matching is exact and case sensitive.
	_, err = FromName("RAX")
	assert.Error(t, err)
	_, err = FromName("xyz")
	assert.Error(t, err)
}

func TestFromDwarf(t *testing.T) {
	r, err := FromDwarf(0)
	assert.NoError(t, err)
	assert.Equal(t, Rax, r)

	r, err = FromDwarf(7)
	assert.NoError(t, err)
	assert.Equal(t, Rsp, r)

	// rip and orig_rax have no DWARF number.
	_, err = FromDwarf(-1)
	assert.Error(t, err)
	_, err = FromDwarf(1000)
	assert.Error(t, err)
}

func TestSlotAccess(t *testing.T) {
	var pr unix.PtraceRegs
	pr.Rax = 0xdeadbeef
	pr.Rip = 0x401130
	pr.R15 = 1

	assert.Equal(t, uint64(0xdeadbeef), Value(&pr, Rax))
	assert.Equal(t, uint64(0x401130), Value(&pr, Rip))
	assert.Equal(t, uint64(1), Value(&pr, R15))

	SetValue(&pr, Rbx, 42)
	assert.Equal(t, uint64(42), pr.Rbx)
}
