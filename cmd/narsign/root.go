package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/vitalvas/narsign/config"
	"github.com/vitalvas/narsign/logger"
	"github.com/vitalvas/narsign/pathinfo"
	"github.com/vitalvas/narsign/signing"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "narsign",
		Short: "Sign Nix store path fingerprints with ed25519 keys",
		Long: `narsign computes Nix store path fingerprints and signs them with
every configured secret key, either as an HTTP service or from the
command line.

Examples:
  narsign serve --secret-key-file /etc/nix/cache.key
  narsign sign-store-path /nix/store/...-hello-2.12.1 --secret-key-file key
  narsign fingerprint --path-info path-info.json
  echo -n "$fp" | narsign verify --public-key "$pub" --signature "$sig"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.logJSON, "log-json", false, "emit JSON log lines")

	cmd.AddCommand(
		newServeCmd(opts),
		newSignCmd(opts),
		newSignStorePathCmd(opts),
		newFingerprintCmd(opts),
		newPublicKeyCmd(opts),
		newVerifyCmd(),
	)

	return cmd
}

// load reads the configuration and applies the persistent flags that were
// set explicitly.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()

	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	if flags.Changed("log-json") {
		cfg.Log.JSON = o.logJSON
	}

	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Output: cmd.ErrOrStderr(),
	})
}

// keyFlags holds --secret-key-file for commands that sign.
type keyFlags struct {
	files []string
}

func (k *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&k.files, "secret-key-file", nil, "secret key file (repeatable)")
}

func (k *keyFlags) apply(cfg *config.Config) {
	if len(k.files) > 0 {
		cfg.SecretKeyFiles = k.files
	}
}

// openKeyring builds a keyring from the configured files. With ReloadKeys
// the files are read again on every signing operation.
func openKeyring(cfg config.Config) (*signing.Keyring, error) {
	if len(cfg.SecretKeyFiles) == 0 {
		return nil, errors.WithHint(signing.ErrNoKeys, "pass --secret-key-file or set secret_key_files in the config file")
	}

	sources := make([]signing.KeySource, 0, len(cfg.SecretKeyFiles))

	for _, path := range cfg.SecretKeyFiles {
		if cfg.ReloadKeys {
			sources = append(sources, signing.NewFileSource(path))
			continue
		}

		src, err := signing.LoadStaticSource(path)
		if err != nil {
			return nil, err
		}

		sources = append(sources, src)
	}

	return signing.NewKeyring(sources...)
}

// openQuerier returns a querier over a saved path-info document when
// pathInfoFile is set and over the nix command otherwise.
func openQuerier(cfg config.Config, pathInfoFile string) (pathinfo.Querier, error) {
	if pathInfoFile != "" {
		q, err := pathinfo.LoadFile(pathInfoFile)
		if err != nil {
			return nil, err
		}

		return q, nil
	}

	return pathinfo.NewNixQuerier(pathinfo.WithBinary(cfg.NixBinary)), nil
}
