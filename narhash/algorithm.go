package narhash

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
)

// Algorithm identifies a content hash algorithm accepted by Nix in NAR
// hashes.
type Algorithm string

const (
	// SHA1 is SHA-1 (20-byte digest).
	SHA1 Algorithm = "sha1"

	// SHA256 is SHA-256 (32-byte digest).
	SHA256 Algorithm = "sha256"

	// SHA512 is SHA-512 (64-byte digest).
	SHA512 Algorithm = "sha512"
)

// String returns the algorithm name as used in Nix hash strings.
func (a Algorithm) String() string {
	return string(a)
}

// Size returns the digest size in bytes, or 0 for an unsupported algorithm.
func (a Algorithm) Size() int {
	switch a {
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

// ParseAlgorithm returns the Algorithm named by s. Only sha1, sha256 and
// sha512 are accepted; md5 and every other algorithm are rejected even
// though some hash formats can carry them.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case SHA1, SHA256, SHA512:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
}
