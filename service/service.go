// Package service composes fingerprinting, metadata retrieval and the
// keyring into the operations offered to the HTTP server and the CLI.
package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vitalvas/narsign/fingerprint"
	"github.com/vitalvas/narsign/pathinfo"
	"github.com/vitalvas/narsign/signing"
	"go.uber.org/zap"
)

var (
	// ErrMissingArtifact is returned when the metadata source knows
	// nothing about a requested store path.
	ErrMissingArtifact = errors.New("service: store path not found")

	// ErrNoQuerier is returned by SignStorePath when no metadata source is
	// configured.
	ErrNoQuerier = errors.New("service: no path metadata source configured")
)

// Result is the outcome of signing a store path.
type Result struct {
	StorePath   string
	Fingerprint []byte
	Signatures  []signing.Signature
}

// Service signs fingerprints with every key of a keyring.
type Service struct {
	keyring *signing.Keyring
	querier pathinfo.Querier
	logger  *zap.Logger
}

// New returns a Service. querier may be nil when only raw payloads are
// signed; logger may be nil to disable logging.
func New(keyring *signing.Keyring, querier pathinfo.Querier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		keyring: keyring,
		querier: querier,
		logger:  logger.Named("service"),
	}
}

// ComputeFingerprint returns the canonical fingerprint of info.
func (s *Service) ComputeFingerprint(info fingerprint.PathInfo) []byte {
	return fingerprint.Compute(info)
}

// SignPayload signs payload with every configured key.
func (s *Service) SignPayload(payload []byte) ([]signing.Signature, error) {
	sigs, err := s.keyring.SignAll(payload)
	if err != nil {
		return nil, errors.Wrap(err, "sign payload")
	}

	s.logger.Debug("signed payload",
		zap.Int("payload_bytes", len(payload)),
		zap.Int("signatures", len(sigs)),
	)

	return sigs, nil
}

// PublicKeys returns the public keys of every configured key.
func (s *Service) PublicKeys() []signing.PublicKey {
	return s.keyring.PublicKeys()
}

// ParseAndValidateSecretKey parses secret key file contents.
func (s *Service) ParseAndValidateSecretKey(contents string) (signing.SecretKey, error) {
	return signing.ParseSecretKey(contents)
}

// Lookup returns the metadata of storePath, using the first record the
// metadata source reports.
func (s *Service) Lookup(ctx context.Context, storePath string) (fingerprint.PathInfo, error) {
	if s.querier == nil {
		return fingerprint.PathInfo{}, ErrNoQuerier
	}

	s.logger.Debug("querying path info", zap.String("store_path", storePath))

	infos, err := s.querier.Query(ctx, storePath)
	if err != nil {
		return fingerprint.PathInfo{}, errors.Wrapf(err, "query %s", storePath)
	}

	if len(infos) == 0 {
		return fingerprint.PathInfo{}, errors.Wrapf(ErrMissingArtifact, "%s", storePath)
	}

	return infos[0], nil
}

// SignStorePath looks up storePath, fingerprints it and signs the
// fingerprint with every configured key.
func (s *Service) SignStorePath(ctx context.Context, storePath string) (*Result, error) {
	info, err := s.Lookup(ctx, storePath)
	if err != nil {
		return nil, err
	}

	fp := s.ComputeFingerprint(info)

	sigs, err := s.SignPayload(fp)
	if err != nil {
		return nil, errors.Wrapf(err, "sign %s", storePath)
	}

	s.logger.Info("signed store path",
		zap.String("store_path", info.StorePath),
		zap.Int("signatures", len(sigs)),
	)

	return &Result{
		StorePath:   info.StorePath,
		Fingerprint: fp,
		Signatures:  sigs,
	}, nil
}
