package pathinfo

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vitalvas/narsign/fingerprint"
)

// DefaultNixBinary is the command used when no binary is configured.
const DefaultNixBinary = "nix"

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec. Standard error is attached to
// the returned error when the command fails.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "%s: %s", name, msg)
		}

		return nil, errors.Wrap(err, name)
	}

	return out, nil
}

// NixQuerier queries metadata with `nix path-info --json`.
type NixQuerier struct {
	binary string
	run    Runner
	stat   func(string) (fs.FileInfo, error)
}

// Option configures a NixQuerier.
type Option func(*NixQuerier)

// WithBinary sets the nix executable.
func WithBinary(binary string) Option {
	return func(q *NixQuerier) {
		if binary != "" {
			q.binary = binary
		}
	}
}

// WithRunner replaces the command runner.
func WithRunner(run Runner) Option {
	return func(q *NixQuerier) {
		if run != nil {
			q.run = run
		}
	}
}

// WithStat replaces the function used to check that a store path exists.
func WithStat(stat func(string) (fs.FileInfo, error)) Option {
	return func(q *NixQuerier) {
		if stat != nil {
			q.stat = stat
		}
	}
}

// NewNixQuerier returns a Querier backed by the nix command.
func NewNixQuerier(opts ...Option) *NixQuerier {
	q := &NixQuerier{
		binary: DefaultNixBinary,
		run:    ExecRunner,
		stat:   os.Stat,
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Query returns the metadata of storePath. A path that does not exist
// locally yields an empty result without running nix.
func (q *NixQuerier) Query(ctx context.Context, storePath string) ([]fingerprint.PathInfo, error) {
	if storePath == "" {
		return nil, nil
	}

	if _, err := q.stat(storePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, markQuery(errors.Wrapf(err, "stat %s", storePath))
	}

	out, err := q.run(ctx, q.binary,
		"--extra-experimental-features", "nix-command",
		"path-info", "--json", storePath,
	)
	if err != nil {
		return nil, markQuery(errors.Wrapf(err, "path-info %s", storePath))
	}

	return Decode(out, storePath)
}

// StaticQuerier serves metadata records keyed by store path.
type StaticQuerier map[string]fingerprint.PathInfo

// NewStaticQuerier indexes infos by store path. Later records replace
// earlier ones with the same path.
func NewStaticQuerier(infos ...fingerprint.PathInfo) StaticQuerier {
	q := make(StaticQuerier, len(infos))
	for _, info := range infos {
		q[info.StorePath] = info
	}

	return q
}

// LoadFile reads a saved `nix path-info --json` document.
func LoadFile(path string) (StaticQuerier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, markQuery(errors.Wrapf(err, "read %s", path))
	}

	infos, err := Decode(data, "")
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	return NewStaticQuerier(infos...), nil
}

// Query returns the record for storePath, if known.
func (q StaticQuerier) Query(_ context.Context, storePath string) ([]fingerprint.PathInfo, error) {
	info, ok := q[storePath]
	if !ok {
		return nil, nil
	}

	return []fingerprint.PathInfo{info}, nil
}
