package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
)

// SignatureSize is the length in bytes of a detached signature.
const SignatureSize = ed25519.SignatureSize

// Signature is a named detached ed25519 signature.
type Signature struct {
	name string
	sig  [SignatureSize]byte
}

// ParseSignature parses a "<name>:<base64 of 64 bytes>" signature token.
func ParseSignature(token string) (Signature, error) {
	name, raw, err := splitKeyText(token)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	if len(raw) != SignatureSize {
		return Signature{}, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrMalformedSignature, SignatureSize, len(raw))
	}

	sig := Signature{name: name}
	copy(sig.sig[:], raw)

	return sig, nil
}

// KeyName returns the name of the key that produced the signature.
func (s Signature) KeyName() string {
	return s.name
}

// Bytes returns a copy of the raw signature.
func (s Signature) Bytes() []byte {
	out := make([]byte, SignatureSize)
	copy(out, s.sig[:])

	return out
}

// String returns the signature token "<name>:<base64>".
func (s Signature) String() string {
	return s.name + ":" + base64.StdEncoding.EncodeToString(s.sig[:])
}

// MarshalText implements encoding.TextMarshaler.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Sign produces a detached signature over payload with signer.
func Sign(payload []byte, signer Signer) (Signature, error) {
	return signer.Sign(payload)
}

// Verify reports whether sig is a valid signature of payload by verifier.
func Verify(payload []byte, sig Signature, verifier Verifier) bool {
	return verifier.Verify(payload, sig)
}

// VerifyToken parses token and verifies it against verifier.
func VerifyToken(payload []byte, token string, verifier Verifier) (bool, error) {
	sig, err := ParseSignature(token)
	if err != nil {
		return false, err
	}

	return verifier.Verify(payload, sig), nil
}
