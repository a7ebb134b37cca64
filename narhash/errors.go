package narhash

import "errors"

var (
	// ErrUnsupportedAlgorithm is returned for hash algorithms other than
	// sha1, sha256 and sha512.
	ErrUnsupportedAlgorithm = errors.New("narhash: unsupported hash algorithm")

	// ErrMalformedHash is returned when a hash string has neither the
	// "<algo>-<base64>" nor the "<algo>:<digest>" layout.
	ErrMalformedHash = errors.New("narhash: malformed hash string")

	// ErrInvalidDigest is returned when the digest cannot be decoded or
	// its length does not match the algorithm.
	ErrInvalidDigest = errors.New("narhash: invalid digest")
)
