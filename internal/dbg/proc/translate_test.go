package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressTranslation(t *testing.T) {
	tgt := &Target{base: 0x55f1a0000000}

	assert.Equal(t, uint64(0x55f1a0001130), tgt.DwarfToRuntime(0x1130))
	assert.Equal(t, uint64(0x1130), tgt.RuntimeToDwarf(0x55f1a0001130))

	for _, x := range []uint64{0, 1, 0x401130, 0x7fffffffffff} {
		assert.Equal(t, x, tgt.RuntimeToDwarf(tgt.DwarfToRuntime(x)))
	}
}

func TestAddressTranslationNonPIE(t *testing.T) {
	tgt := &Target{}
	assert.Equal(t, uint64(0x401130), tgt.DwarfToRuntime(0x401130))
	assert.Equal(t, uint64(0x401130), tgt.RuntimeToDwarf(0x401130))
}
