package signing

import "crypto/ed25519"

// Signer produces Nix signatures under a key name.
type Signer interface {
	// Sign produces a detached signature over payload.
	Sign(payload []byte) (Signature, error)

	// Name returns the key name carried by the signatures.
	Name() string
}

// Verifier checks Nix signatures for a key name.
type Verifier interface {
	// Verify reports whether sig is a valid signature of payload. A
	// signature under another key name never verifies.
	Verify(payload []byte, sig Signature) bool

	// Name returns the key name signatures must carry.
	Name() string
}

var (
	_ Signer   = SecretKey{}
	_ Verifier = PublicKey{}
)

// NewEd25519Signer creates a Signer from a raw ed25519 private key.
func NewEd25519Signer(name string, key ed25519.PrivateKey) (Signer, error) {
	sk, err := NewSecretKey(name, key)
	if err != nil {
		return nil, err
	}

	return sk, nil
}

// NewEd25519Verifier creates a Verifier from a raw ed25519 public key.
func NewEd25519Verifier(name string, key ed25519.PublicKey) (Verifier, error) {
	pk, err := NewPublicKey(name, key)
	if err != nil {
		return nil, err
	}

	return pk, nil
}
