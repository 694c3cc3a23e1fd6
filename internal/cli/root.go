package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cecil-the-coder/edge-function-kit/pkg/config"
	"github.com/cecil-the-coder/edge-function-kit/pkg/notify"
	"github.com/cecil-the-coder/edge-function-kit/pkg/router"
	"github.com/cecil-the-coder/edge-function-kit/pkg/transport"
	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// ErrNoBaseURL is returned by the offline caller used when no base URL is set
var ErrNoBaseURL = errors.New("no base URL configured")

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	BaseURL   string
	APIKey    string
	ConfigDir string
	SQLiteDSN string
	RPM       int

	// Caller and Store replace the HTTP transport and persisted store; used by tests
	Caller types.Caller
	Store  config.Store
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the edgefn CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edgefn",
		Short: "edgefn - resilient edge function invocation",
		Long:  "Invoke edge functions through a router with health tracking, retries and fallback responses.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", os.Getenv("EDGEFN_BASE_URL"), "project URL serving /functions/v1")
	cmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", os.Getenv("EDGEFN_API_KEY"), "project API key")
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", defaultConfigDir(), "directory holding the router config")
	cmd.PersistentFlags().StringVar(&opts.SQLiteDSN, "sqlite", "", "store the router config in this SQLite database instead")
	cmd.PersistentFlags().IntVar(&opts.RPM, "rpm", 0, "client-side requests per minute limit (0 disables)")

	// Add subcommands
	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewProbeCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewMockCommand(opts))
	cmd.AddCommand(NewEndpointsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir + string(os.PathSeparator) + "edgefn"
}

// formatter returns an OutputFormatter for a command
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore picks the persistence backend from the flags
func (o *RootOptions) openStore(ctx context.Context) (config.Store, func(), error) {
	noop := func() {}
	switch {
	case o.Store != nil:
		return o.Store, noop, nil
	case o.SQLiteDSN != "":
		store, err := config.OpenSQLiteStore(ctx, o.SQLiteDSN)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	case o.ConfigDir != "":
		store, err := config.NewFileStore(o.ConfigDir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return config.NewMemoryStore(), noop, nil
	}
}

func (o *RootOptions) caller() (types.Caller, error) {
	if o.Caller != nil {
		return o.Caller, nil
	}
	if o.BaseURL == "" {
		return types.CallerFunc(func(context.Context, string, types.Envelope) (*types.Response, error) {
			return nil, ErrNoBaseURL
		}), nil
	}
	return transport.NewHTTPCaller(transport.Config{
		BaseURL:           o.BaseURL,
		APIKey:            o.APIKey,
		RequestsPerMinute: o.RPM,
	})
}

func (o *RootOptions) logger(cmd *cobra.Command) *log.Logger {
	if !o.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

// newRouter wires a router from the global flags. The returned cleanup stops
// the router and releases the store.
func (o *RootOptions) newRouter(cmd *cobra.Command, opts ...router.Option) (*router.Router, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, closeStore, err := o.openStore(ctx)
	if err != nil {
		return nil, func() {}, WrapExitError(ExitCommandError, "open config store", err)
	}
	caller, err := o.caller()
	if err != nil {
		closeStore()
		return nil, func() {}, WrapExitError(ExitCommandError, "create transport", err)
	}

	logger := o.logger(cmd)
	configs := config.NewConfigStore(store, config.WithLogger(logger))
	all := append([]router.Option{
		router.WithConfigStore(configs),
		router.WithLogger(logger),
		// fallback notices reach the user even without --verbose
		router.WithNotifier(notify.NewLogNotifier(log.New(cmd.ErrOrStderr(), "", 0))),
	}, opts...)

	r, err := router.New(ctx, caller, all...)
	if err != nil {
		closeStore()
		return nil, func() {}, WrapExitError(ExitCommandError, "create router", err)
	}
	return r, func() {
		r.Stop()
		closeStore()
	}, nil
}
