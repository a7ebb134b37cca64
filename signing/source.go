package signing

import (
	"fmt"
	"os"
)

// KeySource yields secret key material. Load may be called concurrently.
type KeySource interface {
	// Location describes where the key comes from, for diagnostics.
	Location() string

	// Load returns the current secret key.
	Load() (SecretKey, error)
}

// FileSource reads a secret key file on every Load, so a replaced file is
// picked up without a restart.
type FileSource struct {
	path string
}

// NewFileSource returns a KeySource backed by the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Location returns the file path.
func (s *FileSource) Location() string {
	return s.path
}

// Load reads and parses the key file.
func (s *FileSource) Load() (SecretKey, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return SecretKey{}, fmt.Errorf("%w: %v", ErrKeyRead, err)
	}

	key, err := ParseSecretKey(string(data))
	if err != nil {
		return SecretKey{}, fmt.Errorf("%s: %w", s.path, err)
	}

	return key, nil
}

// StaticSource holds an already parsed key.
type StaticSource struct {
	location string
	key      SecretKey
}

// NewStaticSource returns a KeySource that always yields key. The location
// is only used in diagnostics.
func NewStaticSource(location string, key SecretKey) *StaticSource {
	return &StaticSource{location: location, key: key}
}

// LoadStaticSource reads a key file once and returns a StaticSource
// holding its contents.
func LoadStaticSource(path string) (*StaticSource, error) {
	key, err := NewFileSource(path).Load()
	if err != nil {
		return nil, err
	}

	return NewStaticSource(path, key), nil
}

// Location returns the configured location.
func (s *StaticSource) Location() string {
	return s.location
}

// Load returns the held key.
func (s *StaticSource) Load() (SecretKey, error) {
	if s.key.IsZero() {
		return SecretKey{}, fmt.Errorf("%w: %s: no key", ErrKeyRead, s.location)
	}

	return s.key, nil
}
