package sys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBase(t *testing.T) {
	base, err := ParseBase("55f1a0000000-55f1a0001000 r--p 00000000 103:02 393240  /usr/bin/cat")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x55f1a0000000), base)

	base, err = ParseBase("400000-401000 r-xp 00000000 00:00 0")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x400000), base)
}

func TestParseBaseMalformed(t *testing.T) {
	_, err := ParseBase("")
	assert.Error(t, err)
	_, err = ParseBase("not a maps line")
	assert.Error(t, err)
	_, err = ParseBase("zz-55f1a0001000 r--p")
	assert.Error(t, err)
}
