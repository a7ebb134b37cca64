// Package fingerprint builds the canonical byte string that Nix signs for a
// store path.
//
// The format is:
//
//	1;<store-path>;<algo>:<nix-base32-digest>;<nar-size>;<ref1>,<ref2>,...
//
// References keep the order in which the metadata source reported them.
package fingerprint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vitalvas/narsign/narhash"
)

// Version is the fingerprint format version written as the first field.
const Version = 1

// ErrInvalidPathInfo is returned by PathInfo.Validate.
var ErrInvalidPathInfo = errors.New("fingerprint: invalid path info")

// PathInfo is the metadata of a store path that takes part in its
// fingerprint. The JSON layout matches `nix path-info --json`.
type PathInfo struct {
	StorePath  string       `json:"path"`
	NarHash    narhash.Hash `json:"narHash"`
	NarSize    uint64       `json:"narSize"`
	References []string     `json:"references"`
}

// Validate reports whether the path info can be fingerprinted.
func (p PathInfo) Validate() error {
	if p.StorePath == "" {
		return fmt.Errorf("%w: empty store path", ErrInvalidPathInfo)
	}

	if p.NarHash.IsZero() {
		return fmt.Errorf("%w: %s: missing nar hash", ErrInvalidPathInfo, p.StorePath)
	}

	return nil
}

// Fingerprint returns the canonical fingerprint of p.
func (p PathInfo) Fingerprint() []byte {
	return Compute(p)
}

// Compute returns the canonical fingerprint of info.
func Compute(info PathInfo) []byte {
	narHash := info.NarHash.NixBase32()
	narSize := strconv.FormatUint(info.NarSize, 10)

	size := 2 + len(info.StorePath) + 1 + len(narHash) + 1 + len(narSize) + 1
	for _, ref := range info.References {
		size += len(ref) + 1
	}

	var sb strings.Builder
	sb.Grow(size)

	sb.WriteString(strconv.Itoa(Version))
	sb.WriteByte(';')
	sb.WriteString(info.StorePath)
	sb.WriteByte(';')
	sb.WriteString(narHash)
	sb.WriteByte(';')
	sb.WriteString(narSize)
	sb.WriteByte(';')

	for i, ref := range info.References {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(ref)
	}

	return []byte(sb.String())
}
