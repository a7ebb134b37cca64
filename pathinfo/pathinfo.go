// Package pathinfo retrieves store path metadata for fingerprinting.
//
// The Querier interface is what the signing service consumes. NixQuerier
// implements it by running `nix path-info --json`; StaticQuerier serves
// records that are already known, such as a saved path-info document.
package pathinfo

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/vitalvas/narsign/fingerprint"
)

// ErrQuery marks failures to obtain or interpret metadata.
var ErrQuery = errors.New("pathinfo: metadata query failed")

type queryError struct {
	cause error
}

// markQuery tags err so that it matches ErrQuery while keeping its cause.
func markQuery(err error) error {
	return &queryError{cause: err}
}

func (e *queryError) Error() string        { return e.cause.Error() }
func (e *queryError) Unwrap() error        { return e.cause }
func (e *queryError) Is(target error) bool { return target == ErrQuery }

// Querier returns the metadata records for a store path. An empty result
// means the path is unknown.
type Querier interface {
	Query(ctx context.Context, storePath string) ([]fingerprint.PathInfo, error)
}

type record struct {
	fingerprint.PathInfo

	Valid *bool `json:"valid"`
}

func (r *record) usable() bool {
	return r != nil && (r.Valid == nil || *r.Valid)
}

// Decode parses `nix path-info --json` output. Both layouts emitted by
// Nix are accepted: a list of objects carrying a "path" field, and an
// object keyed by store path. Invalid paths are skipped. In the keyed
// layout the record for storePath, if any, comes first.
func Decode(data []byte, storePath string) ([]fingerprint.PathInfo, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, markQuery(errors.New("empty path-info document"))
	}

	var records []*record

	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, markQuery(errors.Wrap(err, "decode path-info list"))
		}

	case '{':
		keyed := make(map[string]*record)
		if err := json.Unmarshal(data, &keyed); err != nil {
			return nil, markQuery(errors.Wrap(err, "decode path-info object"))
		}

		paths := make([]string, 0, len(keyed))
		for path := range keyed {
			paths = append(paths, path)
		}

		slices.Sort(paths)

		if i := slices.Index(paths, storePath); i > 0 {
			paths = append(append([]string{storePath}, paths[:i]...), paths[i+1:]...)
		}

		for _, path := range paths {
			rec := keyed[path]
			if rec != nil && rec.StorePath == "" {
				rec.StorePath = path
			}

			records = append(records, rec)
		}

	default:
		return nil, markQuery(errors.Newf("unexpected path-info document starting with %q", data[0]))
	}

	infos := make([]fingerprint.PathInfo, 0, len(records))

	for _, rec := range records {
		if !rec.usable() {
			continue
		}

		if err := rec.Validate(); err != nil {
			return nil, markQuery(err)
		}

		infos = append(infos, rec.PathInfo)
	}

	return infos, nil
}
