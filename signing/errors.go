package signing

import "errors"

// Key material errors.
var (
	// ErrMalformedSecretKey is returned when secret key text lacks the ':'
	// separator, has an empty name, is not valid base64, does not decode
	// to exactly 64 bytes, or carries a public half that does not belong
	// to its seed.
	ErrMalformedSecretKey = errors.New("signing: malformed secret key")

	// ErrMalformedPublicKey is returned when public key text lacks the ':'
	// separator, has an empty name, is not valid base64, or does not
	// decode to exactly 32 bytes.
	ErrMalformedPublicKey = errors.New("signing: malformed public key")

	// ErrKeyRead is returned when secret key material cannot be read
	// from its source.
	ErrKeyRead = errors.New("signing: cannot read secret key")
)

// Signature errors.
var (
	// ErrMalformedSignature is returned when a signature token lacks the
	// ':' separator, has an empty name, is not valid base64, or does not
	// decode to exactly 64 bytes.
	ErrMalformedSignature = errors.New("signing: malformed signature")
)

// Keyring errors.
var (
	// ErrNoKeys is returned when a keyring is built without any key source.
	ErrNoKeys = errors.New("signing: no secret keys configured")

	// ErrDuplicateKey is returned when two key sources derive the same
	// public key.
	ErrDuplicateKey = errors.New("signing: duplicate secret key")

	// ErrKeyChanged is returned when a key source no longer yields the key
	// it was indexed under.
	ErrKeyChanged = errors.New("signing: secret key changed since startup")
)
