package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode(""))
	assert.NoError(t, ValidateCode("export default () => null; // 👋"))
	assert.Error(t, ValidateCode(strings.Repeat("a", MaxCodeSize+1)))
	assert.Error(t, ValidateCode(string([]byte{0xff, 0xfe})))
}

func TestValidateString(t *testing.T) {
	assert.Error(t, ValidateString("", "kind", 1, 16, true))
	assert.NoError(t, ValidateString("", "kind", 1, 16, false))
	assert.NoError(t, ValidateString("tablet", "kind", 1, 16, true))
	assert.Error(t, ValidateString(strings.Repeat("x", 17), "kind", 1, 16, true))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("code")
	assert.Len(t, a, 12)
	assert.Equal(t, a, Fingerprint("code"))
	assert.NotEqual(t, a, Fingerprint("code "))
	assert.NotEqual(t, DefaultHasher().HashFields("ab", "c"), DefaultHasher().HashFields("a", "bc"))
}
