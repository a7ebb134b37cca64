package signing

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"
)

// SecretKey is a named ed25519 secret key.
type SecretKey struct {
	name string
	key  ed25519.PrivateKey
}

// NewSecretKey creates a SecretKey from a name and the 64 raw secret key
// bytes (seed followed by public key). The public half must be the one
// derived from the seed.
func NewSecretKey(name string, raw []byte) (SecretKey, error) {
	if name == "" {
		return SecretKey{}, fmt.Errorf("%w: empty key name", ErrMalformedSecretKey)
	}

	if len(raw) != ed25519.PrivateKeySize {
		return SecretKey{}, fmt.Errorf("%w: key must be %d bytes, got %d", ErrMalformedSecretKey, ed25519.PrivateKeySize, len(raw))
	}

	key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(key[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return SecretKey{}, fmt.Errorf("%w: %s: public half does not match the seed", ErrMalformedSecretKey, name)
	}

	return SecretKey{name: name, key: key}, nil
}

// ParseSecretKey parses secret key file contents of the form
// "<name>:<base64 of 64 bytes>". Surrounding whitespace is ignored.
func ParseSecretKey(contents string) (SecretKey, error) {
	name, raw, err := splitKeyText(contents)
	if err != nil {
		return SecretKey{}, fmt.Errorf("%w: %v", ErrMalformedSecretKey, err)
	}

	return NewSecretKey(name, raw)
}

// Name returns the key name.
func (k SecretKey) Name() string {
	return k.name
}

// Public derives the public key. The zero SecretKey yields a PublicKey
// without key bytes, which verifies nothing.
func (k SecretKey) Public() PublicKey {
	if len(k.key) != ed25519.PrivateKeySize {
		return PublicKey{name: k.name}
	}

	pub, _ := k.key.Public().(ed25519.PublicKey)

	return PublicKey{name: k.name, key: pub}
}

// Sign produces a detached signature over payload. It fails only for the
// zero SecretKey.
func (k SecretKey) Sign(payload []byte) (Signature, error) {
	if len(k.key) != ed25519.PrivateKeySize {
		return Signature{}, fmt.Errorf("%w: key %q has no key material", ErrMalformedSecretKey, k.name)
	}

	sig := Signature{name: k.name}
	copy(sig.sig[:], ed25519.Sign(k.key, payload))

	return sig, nil
}

// IsZero reports whether k is the zero SecretKey.
func (k SecretKey) IsZero() bool {
	return k.name == "" && len(k.key) == 0
}

// String returns the key name only; secret bytes are never formatted.
func (k SecretKey) String() string {
	return k.name + ":<secret>"
}

// PublicKey is a named ed25519 public key.
type PublicKey struct {
	name string
	key  ed25519.PublicKey
}

// NewPublicKey creates a PublicKey from a name and 32 raw bytes. The bytes
// are copied.
func NewPublicKey(name string, raw []byte) (PublicKey, error) {
	if name == "" {
		return PublicKey{}, fmt.Errorf("%w: empty key name", ErrMalformedPublicKey)
	}

	if len(raw) != ed25519.PublicKeySize {
		return PublicKey{}, fmt.Errorf("%w: key must be %d bytes, got %d", ErrMalformedPublicKey, ed25519.PublicKeySize, len(raw))
	}

	return PublicKey{name: name, key: ed25519.PublicKey(bytes.Clone(raw))}, nil
}

// ParsePublicKey parses "<name>:<base64 of 32 bytes>".
func ParsePublicKey(s string) (PublicKey, error) {
	name, raw, err := splitKeyText(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrMalformedPublicKey, err)
	}

	return NewPublicKey(name, raw)
}

// Name returns the key name.
func (k PublicKey) Name() string {
	return k.name
}

// Bytes returns a copy of the raw public key.
func (k PublicKey) Bytes() []byte {
	return bytes.Clone(k.key)
}

// String returns "<name>:<base64>".
func (k PublicKey) String() string {
	return k.name + ":" + base64.StdEncoding.EncodeToString(k.key)
}

// Equal reports whether k and other have the same name and key bytes.
func (k PublicKey) Equal(other PublicKey) bool {
	return k.name == other.name && k.key.Equal(other.key)
}

// Verify reports whether sig is a valid signature of payload by this key.
// Signatures carrying a different key name never verify.
func (k PublicKey) Verify(payload []byte, sig Signature) bool {
	if sig.name != k.name || len(k.key) != ed25519.PublicKeySize {
		return false
	}

	return ed25519.Verify(k.key, payload, sig.sig[:])
}

// MarshalText implements encoding.TextMarshaler.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DerivePublicKey derives the public key of a secret key.
func DerivePublicKey(key SecretKey) PublicKey {
	return key.Public()
}

// splitKeyText splits "<name>:<base64>" on the first ':' and decodes the
// payload.
func splitKeyText(s string) (string, []byte, error) {
	name, encoded, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return "", nil, fmt.Errorf("missing ':' separator")
	}

	if name == "" {
		return "", nil, fmt.Errorf("empty key name")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64: %w", err)
	}

	return name, raw, nil
}
