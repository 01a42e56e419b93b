// Package cli implements the dojo command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jacentio/dojo/internal/config"
	"github.com/jacentio/dojo/internal/portal"
	"github.com/jacentio/dojo/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "text" | "json"

	// Client replaces the configured backend (for testing).
	Client store.Client
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dojo",
		Short: "Dojo notes portal administration",
		Long: `Manage the dojo notes portal's users, students, and notes.

Records are read and written through the portal's cache, against DynamoDB or
a local SQLite file depending on the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newProvisionCommand(opts))
	cmd.AddCommand(newInviteCommand(opts))
	cmd.AddCommand(newUsersCommand(opts))
	cmd.AddCommand(newStudentsCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))

	return cmd
}

// session is an opened service for the duration of one command.
type session struct {
	svc   *portal.Service
	store *store.Store
	out *OutputFormatter
	cfg config.Config

	close func() error
}

// open loads the config, connects to the store, and provisions the tables.
func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := cfg.Logger(cmd.ErrOrStderr(), o.Verbose)

	client, closeFn := o.Client, func() error { return nil }
	if client == nil {
		client, closeFn, err = cfg.OpenClient(cmd.Context())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open store", err)
		}
	}

	st := store.New(client, cfg.StoreConfig(logger))
	svc := portal.New(st, portal.Config{
		CacheTTL:        cfg.CacheTTL,
		SessionLifetime: cfg.SessionLifetime,
		Logger:          logger,
	})
	svc.Provision(cmd.Context())

	return &session{
		svc:   svc,
		store: st,
		out:   &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()},
		cfg:   cfg,
		close: closeFn,
	}, nil
}

// run opens a session, calls fn, and closes the session.
func (o *RootOptions) run(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}

// classify maps portal errors to exit codes.
func classify(message string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, portal.ErrInvalidInvite),
		errors.Is(err, portal.ErrInvalidCredentials),
		errors.Is(err, portal.ErrUserNotFound),
		errors.Is(err, portal.ErrStudentNotFound),
		errors.Is(err, portal.ErrNoteNotFound),
		errors.Is(err, portal.ErrUnknownNoteKind):
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}

func newProvisionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the portal tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(s *session) error {
				sc := s.store.Config()
				data := map[string]any{
					"backend":        s.cfg.Backend,
					"billing_mode":   string(sc.BillingMode),
					"read_capacity":  sc.ReadCapacity,
					"write_capacity": sc.WriteCapacity,
				}
				return s.out.Success(data, func(w io.Writer) {
					fmt.Fprintf(w, "Provisioned tables on %s (%s, %d/%d capacity)\n",
						s.cfg.Backend, sc.BillingMode, sc.ReadCapacity, sc.WriteCapacity)
				})
			})
		},
	}
}
