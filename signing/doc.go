// Package signing implements Nix-compatible ed25519 keys and detached
// signatures over store path fingerprints.
//
// # Key and Signature Formats
//
// All three textual forms share the "<name>:<base64>" layout with the
// standard padded base64 alphabet:
//
//	secret key   cache.example.org-1:<base64 of 64 bytes>
//	public key   cache.example.org-1:<base64 of 32 bytes>
//	signature    cache.example.org-1:<base64 of 64 bytes>
//
// The 64 secret key bytes are the ed25519 seed followed by the public key,
// which is exactly the layout of crypto/ed25519.PrivateKey.
//
// # Signing
//
//	key, err := signing.ParseSecretKey(contents)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sig, err := key.Sign(fingerprint)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(sig) // cache.example.org-1:...
//
// SecretKey implements Signer and PublicKey implements Verifier, so code
// that only signs or only verifies can accept the interfaces:
//
//	signer, err := signing.NewEd25519Signer("cache.example.org-1", priv)
//	verifier, err := signing.NewEd25519Verifier("cache.example.org-1", pub)
//
//	ok := signing.Verify(fingerprint, sig, verifier)
//
// # Keyrings
//
// A Keyring indexes several secret keys by their derived public key and
// signs a payload with all of them:
//
//	ring, err := signing.NewKeyring(
//	    signing.NewFileSource("/etc/nix/cache-1.sec"),
//	    signing.NewFileSource("/etc/nix/cache-2.sec"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sigs, err := ring.SignAll(fingerprint)
//
// A Keyring is immutable once built and safe for concurrent use.
package signing
