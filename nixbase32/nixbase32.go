// Package nixbase32 implements the base-32 encoding used by Nix for store
// path hashes and content digests.
//
// It is not RFC 4648 base32: the alphabet omits the letters e, o, u and t,
// there is no padding, and characters are emitted starting from the most
// significant 5-bit group of the input, so the output reads as a
// little-endian number written most significant digit first.
package nixbase32

import (
	"errors"
	"fmt"
	"strings"
)

// Alphabet is the Nix base-32 alphabet.
const Alphabet = "0123456789abcdfghijklmnpqrsvwxyz"

var (
	// ErrInvalidCharacter is returned when the input contains a character
	// outside of Alphabet.
	ErrInvalidCharacter = errors.New("nixbase32: invalid character")

	// ErrCorruptInput is returned when the input encodes bits beyond the
	// decoded length.
	ErrCorruptInput = errors.New("nixbase32: corrupt input")
)

// EncodedLen returns the length of the encoding of n source bytes.
func EncodedLen(n int) int {
	if n <= 0 {
		return 0
	}

	return (n*8-1)/5 + 1
}

// DecodedLen returns the number of bytes encoded by n characters.
func DecodedLen(n int) int {
	return n * 5 / 8
}

// EncodeToString returns the Nix base-32 encoding of src.
func EncodeToString(src []byte) string {
	size := EncodedLen(len(src))
	if size == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(size)

	last := len(src) - 1

	for n := size - 1; n >= 0; n-- {
		b := n * 5
		i := b / 8
		j := uint(b % 8)

		c := src[i] >> j
		if i < last {
			c |= src[i+1] << (8 - j)
		}

		sb.WriteByte(Alphabet[c&0x1f])
	}

	return sb.String()
}

// DecodeString returns the bytes represented by the Nix base-32 string s.
func DecodeString(s string) ([]byte, error) {
	size := DecodedLen(len(s))
	out := make([]byte, size)

	for n := 0; n < len(s); n++ {
		ch := s[len(s)-n-1]

		digit := strings.IndexByte(Alphabet, ch)
		if digit < 0 {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidCharacter, ch, len(s)-n-1)
		}

		b := n * 5
		i := b / 8
		j := uint(b % 8)

		if i < size {
			out[i] |= byte(digit << j)
		}

		carry := byte(digit >> (8 - j))

		switch {
		case i+1 < size:
			out[i+1] |= carry
		case carry != 0 || (i >= size && digit != 0):
			return nil, ErrCorruptInput
		}
	}

	return out, nil
}
