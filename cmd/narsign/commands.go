package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/vitalvas/narsign/fingerprint"
	"github.com/vitalvas/narsign/pathinfo"
	"github.com/vitalvas/narsign/server"
	"github.com/vitalvas/narsign/service"
	"github.com/vitalvas/narsign/signing"
)

var errSignatureMismatch = errors.New("signature does not match")

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		keys keyFlags
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP signing service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			keys.apply(&cfg)

			if cmd.Flags().Changed("bind") {
				cfg.Bind = bind
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ring, err := openKeyring(cfg)
			if err != nil {
				return err
			}

			querier, err := openQuerier(cfg, "")
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)

			srv, err := server.New(cfg, service.New(ring, querier, log), log)
			if err != nil {
				return err
			}

			return srv.Run(cmd.Context())
		},
	}

	keys.register(cmd)
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (default from config)")

	return cmd
}

func newSignCmd(opts *rootOptions) *cobra.Command {
	var (
		keys    keyFlags
		payload string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a fingerprint read from stdin or --payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.service(cmd, &keys, "")
			if err != nil {
				return err
			}

			data := []byte(payload)
			if !cmd.Flags().Changed("payload") {
				if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return errors.Wrap(err, "read payload")
				}
			}

			sigs, err := svc.SignPayload(data)
			if err != nil {
				return err
			}

			return printLines(cmd.OutOrStdout(), sigs)
		},
	}

	keys.register(cmd)
	cmd.Flags().StringVar(&payload, "payload", "", "payload to sign instead of stdin")

	return cmd
}

func newSignStorePathCmd(opts *rootOptions) *cobra.Command {
	var (
		keys     keyFlags
		pathInfo string
	)

	cmd := &cobra.Command{
		Use:   "sign-store-path <path>",
		Short: "Fingerprint and sign a store path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd, &keys, pathInfo)
			if err != nil {
				return err
			}

			res, err := svc.SignStorePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printLines(cmd.OutOrStdout(), res.Signatures)
		},
	}

	keys.register(cmd)
	cmd.Flags().StringVar(&pathInfo, "path-info", "", "read metadata from a saved `nix path-info --json` document")

	return cmd
}

func newFingerprintCmd(opts *rootOptions) *cobra.Command {
	var pathInfo string

	cmd := &cobra.Command{
		Use:   "fingerprint [path]",
		Short: "Print the fingerprint of a store path",
		Long: `Print the fingerprint of a store path. With --path-info and no path,
the fingerprint of every record in the document is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if pathInfo == "" {
					return errors.New("a store path or --path-info is required")
				}

				q, err := pathinfo.LoadFile(pathInfo)
				if err != nil {
					return err
				}

				paths := make([]string, 0, len(q))
				for path := range q {
					paths = append(paths, path)
				}

				slices.Sort(paths)

				prints := make([]string, 0, len(paths))
				for _, path := range paths {
					prints = append(prints, string(fingerprint.Compute(q[path])))
				}

				return printLines(cmd.OutOrStdout(), prints)
			}

			querier, err := openQuerier(cfg, pathInfo)
			if err != nil {
				return err
			}

			svc := service.New(nil, querier, nil)

			info, err := svc.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printLines(cmd.OutOrStdout(), []string{string(svc.ComputeFingerprint(info))})
		},
	}

	cmd.Flags().StringVar(&pathInfo, "path-info", "", "read metadata from a saved `nix path-info --json` document")

	return cmd
}

func newPublicKeyCmd(opts *rootOptions) *cobra.Command {
	var keys keyFlags

	cmd := &cobra.Command{
		Use:   "public-key",
		Short: "Print the public keys of the configured secret keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.service(cmd, &keys, "")
			if err != nil {
				return err
			}

			return printLines(cmd.OutOrStdout(), svc.PublicKeys())
		},
	}

	keys.register(cmd)

	return cmd
}

func newVerifyCmd() *cobra.Command {
	var publicKey, signature string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature over a fingerprint read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pub, err := signing.ParsePublicKey(publicKey)
			if err != nil {
				return err
			}

			payload, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return errors.Wrap(err, "read payload")
			}

			ok, err := signing.VerifyToken(payload, strings.TrimSpace(signature), pub)
			if err != nil {
				return err
			}

			if !ok {
				return errSignatureMismatch
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "OK")

			return err
		},
	}

	cmd.Flags().StringVar(&publicKey, "public-key", "", "public key as name:base64")
	cmd.Flags().StringVar(&signature, "signature", "", "signature as name:base64")

	_ = cmd.MarkFlagRequired("public-key")
	_ = cmd.MarkFlagRequired("signature")

	return cmd
}

// service loads configuration, opens the keyring and returns a service for
// one-shot commands.
func (o *rootOptions) service(cmd *cobra.Command, keys *keyFlags, pathInfoFile string) (*service.Service, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, err
	}

	keys.apply(&cfg)

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	ring, err := openKeyring(cfg)
	if err != nil {
		return nil, err
	}

	querier, err := openQuerier(cfg, pathInfoFile)
	if err != nil {
		return nil, err
	}

	return service.New(ring, querier, log), nil
}

func printLines[T any](w io.Writer, items []T) error {
	for _, item := range items {
		if _, err := fmt.Fprintln(w, item); err != nil {
			return err
		}
	}

	return nil
}
