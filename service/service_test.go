package service

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/narsign/fingerprint"
	"github.com/vitalvas/narsign/narhash"
	"github.com/vitalvas/narsign/pathinfo"
	"github.com/vitalvas/narsign/signing"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const (
	helloPath  = "/store/mdi7lvrn2mx7rfzv3fdq3v5yw8swiks6-hello-2.12.1"
	glibcPath  = "/store/aw2fw9ag10wr9pf0qk4nk5sxi0q0bn56-glibc-2.37-8"
	helloPrint = "1;/store/mdi7lvrn2mx7rfzv3fdq3v5yw8swiks6-hello-2.12.1;" +
		"sha256:0nhc4jn0g0njfs3ipfcq8jg68f35sm8k67s6pcv8fjm17avcyymi;226552;" +
		"/store/aw2fw9ag10wr9pf0qk4nk5sxi0q0bn56-glibc-2.37-8," +
		"/store/mdi7lvrn2mx7rfzv3fdq3v5yw8swiks6-hello-2.12.1"
)

func keyText(name string, seed byte) string {
	s := make([]byte, ed25519.SeedSize)
	for i := range s {
		s[i] = seed ^ byte(i)
	}

	return name + ":" + base64.StdEncoding.EncodeToString(ed25519.NewKeyFromSeed(s))
}

func testKeyring(t *testing.T, names ...string) *signing.Keyring {
	t.Helper()

	sources := make([]signing.KeySource, 0, len(names))
	for i, name := range names {
		key, err := signing.ParseSecretKey(keyText(name, byte(i+1)))
		require.NoError(t, err)

		sources = append(sources, signing.NewStaticSource(name, key))
	}

	ring, err := signing.NewKeyring(sources...)
	require.NoError(t, err)

	return ring
}

func helloInfo(t *testing.T) fingerprint.PathInfo {
	t.Helper()

	h, err := narhash.Parse("sha256-sXrPtjqhSoc2u0YfM1HVZThknkSYuRuHdtKCB6wkDFo=")
	require.NoError(t, err)

	return fingerprint.PathInfo{
		StorePath:  helloPath,
		NarHash:    h,
		NarSize:    226552,
		References: []string{glibcPath, helloPath},
	}
}

type queryFunc func(ctx context.Context, storePath string) ([]fingerprint.PathInfo, error)

func (f queryFunc) Query(ctx context.Context, storePath string) ([]fingerprint.PathInfo, error) {
	return f(ctx, storePath)
}

func TestComputeFingerprint(t *testing.T) {
	svc := New(testKeyring(t, "a"), nil, zaptest.NewLogger(t))
	assert.Equal(t, helloPrint, string(svc.ComputeFingerprint(helloInfo(t))))
}

func TestSignPayload(t *testing.T) {
	ring := testKeyring(t, "a", "b", "c")
	svc := New(ring, nil, nil)

	sigs, err := svc.SignPayload([]byte(helloPrint))
	require.NoError(t, err)
	require.Len(t, sigs, 3)

	for i, pub := range svc.PublicKeys() {
		assert.True(t, pub.Verify([]byte(helloPrint), sigs[i]), pub.String())
	}
}

func TestPublicKeys(t *testing.T) {
	svc := New(testKeyring(t, "b", "a"), nil, nil)

	keys := svc.PublicKeys()
	require.Len(t, keys, 2)
	assert.Equal(t, "a", keys[0].Name())
	assert.Equal(t, "b", keys[1].Name())
}

func TestParseAndValidateSecretKey(t *testing.T) {
	svc := New(testKeyring(t, "a"), nil, nil)

	key, err := svc.ParseAndValidateSecretKey(keyText("k", 1))
	require.NoError(t, err)
	assert.Equal(t, "k", key.Name())

	_, err = svc.ParseAndValidateSecretKey("k")
	assert.ErrorIs(t, err, signing.ErrMalformedSecretKey)
}

func TestSignStorePath(t *testing.T) {
	ctx := context.Background()

	t.Run("signs the first record", func(t *testing.T) {
		other := helloInfo(t)
		other.StorePath = glibcPath

		q := queryFunc(func(_ context.Context, path string) ([]fingerprint.PathInfo, error) {
			assert.Equal(t, helloPath, path)
			return []fingerprint.PathInfo{helloInfo(t), other}, nil
		})

		core, logs := observer.New(zap.InfoLevel)
		svc := New(testKeyring(t, "a", "b"), q, zap.New(core))

		res, err := svc.SignStorePath(ctx, helloPath)
		require.NoError(t, err)

		assert.Equal(t, helloPath, res.StorePath)
		assert.Equal(t, helloPrint, string(res.Fingerprint))
		require.Len(t, res.Signatures, 2)

		for i, pub := range svc.PublicKeys() {
			assert.True(t, pub.Verify(res.Fingerprint, res.Signatures[i]))
		}

		entries := logs.FilterMessage("signed store path").All()
		require.Len(t, entries, 1)
		assert.Equal(t, helloPath, entries[0].ContextMap()["store_path"])
	})

	t.Run("static querier", func(t *testing.T) {
		svc := New(testKeyring(t, "a"), pathinfo.NewStaticQuerier(helloInfo(t)), nil)

		res, err := svc.SignStorePath(ctx, helloPath)
		require.NoError(t, err)
		assert.Equal(t, helloPrint, string(res.Fingerprint))
	})

	t.Run("missing artifact", func(t *testing.T) {
		svc := New(testKeyring(t, "a"), pathinfo.NewStaticQuerier(), nil)

		_, err := svc.SignStorePath(ctx, helloPath)
		assert.ErrorIs(t, err, ErrMissingArtifact)
		assert.Contains(t, err.Error(), helloPath)
	})

	t.Run("no querier", func(t *testing.T) {
		svc := New(testKeyring(t, "a"), nil, nil)

		_, err := svc.SignStorePath(ctx, helloPath)
		assert.ErrorIs(t, err, ErrNoQuerier)
	})

	t.Run("query failure", func(t *testing.T) {
		boom := errors.New("nix exploded")
		q := queryFunc(func(context.Context, string) ([]fingerprint.PathInfo, error) {
			return nil, boom
		})

		svc := New(testKeyring(t, "a"), q, nil)

		_, err := svc.SignStorePath(ctx, helloPath)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrMissingArtifact)
	})
}
