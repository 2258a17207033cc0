package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysRoundTrip(t *testing.T) {
	cases := [][]int64{
		{},
		{42},
		{1, 2, 3},
		{math.MinInt64, -1, 0, math.MaxInt64},
	}
	for _, keys := range cases {
		assert.Equal(t, keys, DecodeKeys(EncodeKeys(keys)))
	}
}

func TestEncodeKeys_Layout(t *testing.T) {
	buf := EncodeKeys([]int64{42})
	require.Len(t, buf, 12)
	assert.Equal(t, []byte{1, 0, 0, 0, 42, 0, 0, 0, 0, 0, 0, 0}, buf)
}

func TestDecodeKeys_HandBuilt(t *testing.T) {
	data := make([]byte, 12)
	data[0] = 1
	data[4] = 42

	keys := DecodeKeys(data)
	require.Len(t, keys, 1)
	assert.Equal(t, int64(42), keys[0])
}

func TestDecodeKeys_Lenient(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"short header", []byte{1, 0}},
		{"truncated body", []byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}},
		{"huge count", []byte{0xff, 0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := DecodeKeys(tt.buf)
			assert.NotNil(t, keys)
			assert.Empty(t, keys)
		})
	}
}

func TestDecodeKeys_TrailingBytesIgnored(t *testing.T) {
	buf := append(EncodeKeys([]int64{7}), 0xde, 0xad)
	assert.Equal(t, []int64{7}, DecodeKeys(buf))
}

func TestPubKeysRoundTrip(t *testing.T) {
	var a, b [32]byte
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(255 - i)
	}
	cases := [][][32]byte{{}, {a}, {a, b, a}}
	for _, keys := range cases {
		assert.Equal(t, keys, DecodePubKeys(EncodePubKeys(keys)))
	}
}

func TestDecodePubKeys_Lenient(t *testing.T) {
	assert.Empty(t, DecodePubKeys(nil))
	assert.Empty(t, DecodePubKeys([]byte{1, 0, 0, 0}))
	assert.Empty(t, DecodePubKeys(append([]byte{1, 0, 0, 0}, make([]byte, 31)...)))
	assert.Len(t, DecodePubKeys(append([]byte{1, 0, 0, 0}, make([]byte, 32)...)), 1)
}
