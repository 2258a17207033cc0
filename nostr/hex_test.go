package nostr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	original := []byte{0x00, 0x01, 0x0f, 0xff, 0xab}
	h := EncodeHex(original)
	assert.Equal(t, "00010fffab", h)

	decoded, err := DecodeHex(h)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeHex_Errors(t *testing.T) {
	_, err := DecodeHex("123")
	assert.ErrorContains(t, err, "even length")

	_, err = DecodeHex("zz")
	assert.Error(t, err)
}

func TestIsValidHex(t *testing.T) {
	assert.True(t, IsValidHex("0123456789abcdef"))
	assert.True(t, IsValidHex("ABCDEF"))
	assert.False(t, IsValidHex("xyz"))
	assert.False(t, IsValidHex("123"))
	assert.False(t, IsValidHex(""))
}
