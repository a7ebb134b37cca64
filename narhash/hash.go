// Package narhash parses and formats the self-describing content hashes
// found in Nix path metadata.
//
// Two textual layouts are understood:
//
//	sha256-sXrPtjqhSoc2u0YfM1HVZThknkSYuRuHdtKCB6wkDFo=        (SRI)
//	sha256:0nhc4jn0g0njfs3ipfcq8jg68f35sm8k67s6pcv8fjm17avcyymi (Nix)
//
// The Nix layout accepts base-16, Nix base-32 and base-64 digests, told
// apart by their length.
package narhash

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vitalvas/narsign/nixbase32"
)

// Hash is a content digest tagged with its algorithm.
//
// The zero value is not a valid hash. Use Parse or New.
type Hash struct {
	algorithm Algorithm
	digest    []byte
}

// New returns a Hash for the given algorithm and raw digest. The digest is
// copied.
func New(alg Algorithm, digest []byte) (Hash, error) {
	if _, err := ParseAlgorithm(string(alg)); err != nil {
		return Hash{}, err
	}

	if len(digest) != alg.Size() {
		return Hash{}, fmt.Errorf("%w: %s digest must be %d bytes, got %d", ErrInvalidDigest, alg, alg.Size(), len(digest))
	}

	return Hash{algorithm: alg, digest: bytes.Clone(digest)}, nil
}

// Parse parses a hash in either SRI ("<algo>-<base64>") or Nix
// ("<algo>:<digest>") form. The algorithm is validated before the digest
// is decoded.
func Parse(s string) (Hash, error) {
	s = strings.TrimSpace(s)

	sep := strings.IndexAny(s, "-:")
	if sep <= 0 {
		return Hash{}, fmt.Errorf("%w: %q", ErrMalformedHash, s)
	}

	alg, err := ParseAlgorithm(s[:sep])
	if err != nil {
		return Hash{}, err
	}

	if s[sep] == '-' {
		return decodeSRI(alg, s[sep+1:])
	}

	return decodeNix(alg, s[sep+1:])
}

func decodeSRI(alg Algorithm, encoded string) (Hash, error) {
	// SRI allows options after '?'; they carry no digest data.
	encoded, _, _ = strings.Cut(encoded, "?")

	digest, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Hash{}, fmt.Errorf("%w: invalid base64: %v", ErrInvalidDigest, err)
	}

	return New(alg, digest)
}

func decodeNix(alg Algorithm, encoded string) (Hash, error) {
	size := alg.Size()

	var (
		digest []byte
		err    error
	)

	switch len(encoded) {
	case hex.EncodedLen(size):
		digest, err = hex.DecodeString(encoded)
	case nixbase32.EncodedLen(size):
		digest, err = nixbase32.DecodeString(encoded)
	case base64.StdEncoding.EncodedLen(size):
		digest, err = base64.StdEncoding.DecodeString(encoded)
	default:
		return Hash{}, fmt.Errorf("%w: %s digest has unexpected length %d", ErrInvalidDigest, alg, len(encoded))
	}

	if err != nil {
		return Hash{}, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}

	return New(alg, digest)
}

// Algorithm returns the hash algorithm.
func (h Hash) Algorithm() Algorithm {
	return h.algorithm
}

// Bytes returns a copy of the raw digest.
func (h Hash) Bytes() []byte {
	return bytes.Clone(h.digest)
}

// IsZero reports whether h is the zero Hash.
func (h Hash) IsZero() bool {
	return h.algorithm == "" && len(h.digest) == 0
}

// Equal reports whether h and other have the same algorithm and digest.
func (h Hash) Equal(other Hash) bool {
	return h.algorithm == other.algorithm && bytes.Equal(h.digest, other.digest)
}

// NixBase32 returns the hash as "<algo>:<nix base-32 digest>", the form
// embedded in path fingerprints.
func (h Hash) NixBase32() string {
	return h.algorithm.String() + ":" + nixbase32.EncodeToString(h.digest)
}

// SRI returns the hash as "<algo>-<base64 digest>".
func (h Hash) SRI() string {
	return h.algorithm.String() + "-" + base64.StdEncoding.EncodeToString(h.digest)
}

// String returns the SRI form.
func (h Hash) String() string {
	return h.SRI()
}

// MarshalText implements encoding.TextMarshaler using the SRI form.
func (h Hash) MarshalText() ([]byte, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("%w: zero hash", ErrInvalidDigest)
	}

	return []byte(h.SRI()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Both SRI and Nix forms
// are accepted.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*h = parsed

	return nil
}
