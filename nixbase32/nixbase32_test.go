package nixbase32

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodedLen(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 2},
		{2, 4},
		{5, 8},
		{20, 32},
		{32, 52},
		{64, 103},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodedLen(tt.n), "EncodedLen(%d)", tt.n)
	}
}

func TestEncodeToString(t *testing.T) {
	t.Run("sha256 golden vector", func(t *testing.T) {
		digest, err := base64.StdEncoding.DecodeString("sXrPtjqhSoc2u0YfM1HVZThknkSYuRuHdtKCB6wkDFo=")
		require.NoError(t, err)

		assert.Equal(t, "0nhc4jn0g0njfs3ipfcq8jg68f35sm8k67s6pcv8fjm17avcyymi", EncodeToString(digest))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", EncodeToString(nil))
		assert.Equal(t, "", EncodeToString([]byte{}))
	})

	t.Run("single byte", func(t *testing.T) {
		assert.Equal(t, "00", EncodeToString([]byte{0x00}))
		assert.Equal(t, "01", EncodeToString([]byte{0x01}))
		assert.Equal(t, "0z", EncodeToString([]byte{0x1f}))
		assert.Equal(t, "10", EncodeToString([]byte{0x20}))
		assert.Equal(t, "7z", EncodeToString([]byte{0xff}))
	})

	t.Run("all zero digest", func(t *testing.T) {
		assert.Equal(t, strings.Repeat("0", 52), EncodeToString(make([]byte, 32)))
	})

	t.Run("output uses only the alphabet", func(t *testing.T) {
		sum := sha512.Sum512([]byte("narsign"))
		encoded := EncodeToString(sum[:])

		assert.Len(t, encoded, 103)
		for _, c := range encoded {
			assert.Contains(t, Alphabet, string(c))
		}
		assert.NotContains(t, encoded, "e")
		assert.NotContains(t, encoded, "o")
		assert.NotContains(t, encoded, "u")
		assert.NotContains(t, encoded, "t")
	})

	t.Run("length depends only on input length", func(t *testing.T) {
		a := sha256.Sum256([]byte("a"))
		b := sha256.Sum256([]byte("b"))

		assert.Len(t, EncodeToString(a[:]), EncodedLen(len(a)))
		assert.Len(t, EncodeToString(b[:]), EncodedLen(len(b)))
	})
}

func TestDecodeString(t *testing.T) {
	t.Run("golden vector", func(t *testing.T) {
		want, err := base64.StdEncoding.DecodeString("sXrPtjqhSoc2u0YfM1HVZThknkSYuRuHdtKCB6wkDFo=")
		require.NoError(t, err)

		got, err := DecodeString("0nhc4jn0g0njfs3ipfcq8jg68f35sm8k67s6pcv8fjm17avcyymi")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("round trip", func(t *testing.T) {
		sha1Sum := sha1.Sum([]byte("round trip"))
		sha256Sum := sha256.Sum256([]byte("round trip"))
		sha512Sum := sha512.Sum512([]byte("round trip"))

		inputs := [][]byte{
			{0x00},
			{0xff},
			{0x01, 0x02, 0x03},
			sha1Sum[:],
			sha256Sum[:],
			sha512Sum[:],
		}

		for _, in := range inputs {
			out, err := DecodeString(EncodeToString(in))
			require.NoError(t, err)
			assert.Equal(t, in, out)
		}
	})

	t.Run("empty", func(t *testing.T) {
		out, err := DecodeString("")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("invalid character", func(t *testing.T) {
		for _, s := range []string{"0e", "0o", "0u", "0t", "0A", "0-"} {
			_, err := DecodeString(s)
			assert.ErrorIs(t, err, ErrInvalidCharacter, s)
		}
	})

	t.Run("overflowing bits", func(t *testing.T) {
		// "7z" is 0xff; "8z" would need a ninth bit.
		_, err := DecodeString("8z")
		assert.ErrorIs(t, err, ErrCorruptInput)
	})

	t.Run("single character cannot hold a byte", func(t *testing.T) {
		_, err := DecodeString("1")
		assert.ErrorIs(t, err, ErrCorruptInput)

		out, err := DecodeString("0")
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
