package signing

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

type keyringEntry struct {
	public PublicKey
	source KeySource
}

// Keyring maps derived public keys to the sources of their secret keys.
// It is built once and never modified, so it needs no locking.
type Keyring struct {
	entries []keyringEntry
}

// NewKeyring loads every source once and records the public key it
// derives. Two sources that derive the same public key are
// rejected with ErrDuplicateKey.
func NewKeyring(sources ...KeySource) (*Keyring, error) {
	if len(sources) == 0 {
		return nil, ErrNoKeys
	}

	entries := make([]keyringEntry, 0, len(sources))
	locations := make(map[string]string, len(sources))

	for _, src := range sources {
		key, err := src.Load()
		if err != nil {
			return nil, err
		}

		if key.IsZero() {
			return nil, fmt.Errorf("%w: %s: no key", ErrKeyRead, src.Location())
		}

		pub := key.Public()
		id := pub.String()

		if prev, ok := locations[id]; ok {
			return nil, fmt.Errorf("%w: %s and %s both derive %s", ErrDuplicateKey, prev, src.Location(), id)
		}

		locations[id] = src.Location()
		entries = append(entries, keyringEntry{public: pub, source: src})
	}

	slices.SortFunc(entries, func(a, b keyringEntry) int {
		return strings.Compare(a.public.String(), b.public.String())
	})

	return &Keyring{entries: entries}, nil
}

// Len returns the number of keys.
func (r *Keyring) Len() int {
	return len(r.entries)
}

// PublicKeys returns the public keys sorted by their string form.
func (r *Keyring) PublicKeys() []PublicKey {
	out := make([]PublicKey, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.public
	}

	return out
}

// SignAll signs payload with every key in the keyring. Keys are loaded and
// used concurrently; the call returns after all of them finished and fails
// as a whole if any key cannot be loaded. Identical signature tokens are
// collapsed and the result is sorted, so order carries no meaning.
func (r *Keyring) SignAll(payload []byte) ([]Signature, error) {
	sigs := make([]Signature, len(r.entries))

	var g errgroup.Group

	for i, e := range r.entries {
		g.Go(func() error {
			key, err := e.source.Load()
			if err != nil {
				return err
			}

			if !key.Public().Equal(e.public) {
				return fmt.Errorf("%w: %s no longer derives %s", ErrKeyChanged, e.source.Location(), e.public)
			}

			sig, err := Sign(payload, key)
			if err != nil {
				return err
			}

			sigs[i] = sig

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(sigs))
	out := make([]Signature, 0, len(sigs))

	for _, sig := range sigs {
		token := sig.String()
		if _, ok := seen[token]; ok {
			continue
		}

		seen[token] = struct{}{}
		out = append(out, sig)
	}

	slices.SortFunc(out, func(a, b Signature) int {
		return strings.Compare(a.String(), b.String())
	})

	return out, nil
}
