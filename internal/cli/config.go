package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// ConfigSetOptions holds flags for the config set command.
type ConfigSetOptions struct {
	*RootOptions
	MaxRetries     int
	RetryDelayMs   int
	AutoFallback   bool
	MockMode       bool
	StatusTracking bool
	Notify         bool
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the stored router config",
	}
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	cmd.AddCommand(newConfigSetCommand(rootOpts))
	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the effective router config",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, cleanup, err := rootOpts.newRouter(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := r.GetConfig()
			return rootOpts.formatter(cmd).Success(cfg, func(w io.Writer) {
				renderConfig(w, cfg)
			})
		},
	}
}

func newConfigSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Merge the given values into the stored router config",
		Long: `Merge the given values into the stored router config.

Only flags passed on the command line change; everything else keeps its
stored value.

Example:
  edgefn config set --max-retries 3 --retry-delay-ms 500`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxRetries, "max-retries", 0, "attempts per invocation (>= 1)")
	cmd.Flags().IntVar(&opts.RetryDelayMs, "retry-delay-ms", 0, "base backoff delay in milliseconds (>= 0)")
	cmd.Flags().BoolVar(&opts.AutoFallback, "auto-fallback", true, "substitute fallback responses on failure")
	cmd.Flags().BoolVar(&opts.MockMode, "mock-mode", false, "serve every call from fallback responses")
	cmd.Flags().BoolVar(&opts.StatusTracking, "status-tracking", true, "track endpoint health and run probes")
	cmd.Flags().BoolVar(&opts.Notify, "notify", true, "notify when a fallback is used")

	return cmd
}

// configUpdateFromFlags builds a partial update from the flags that were set
func configUpdateFromFlags(opts *ConfigSetOptions, cmd *cobra.Command) types.ConfigUpdate {
	flags := cmd.Flags()
	var update types.ConfigUpdate
	if flags.Changed("max-retries") {
		update.MaxRetries = types.Int(opts.MaxRetries)
	}
	if flags.Changed("retry-delay-ms") {
		update.RetryDelayMs = types.Int(opts.RetryDelayMs)
	}
	if flags.Changed("auto-fallback") {
		update.EnableAutoFallback = types.Bool(opts.AutoFallback)
	}
	if flags.Changed("mock-mode") {
		update.EnableMockMode = types.Bool(opts.MockMode)
	}
	if flags.Changed("status-tracking") {
		update.EnableStatusTracking = types.Bool(opts.StatusTracking)
	}
	if flags.Changed("notify") {
		update.NotifyOnFallback = types.Bool(opts.Notify)
	}
	return update
}

func runConfigSet(opts *ConfigSetOptions, cmd *cobra.Command) error {
	update := configUpdateFromFlags(opts, cmd)
	if update.IsEmpty() {
		return NewExitError(ExitCommandError, "no config values given")
	}

	r, cleanup, err := opts.newRouter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := r.UpdateConfig(cmd.Context(), update)
	if err != nil {
		return WrapExitError(ExitCommandError, "update config", err)
	}
	return opts.formatter(cmd).Success(cfg, func(w io.Writer) {
		renderConfig(w, cfg)
	})
}

// NewMockCommand creates the mock command.
func NewMockCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "mock on|off",
		Short:         "Turn mock mode on or off",
		Args:          cobra.ExactArgs(1),
		ValidArgs:     []string{"on", "off"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var enable bool
			switch args[0] {
			case "on":
				enable = true
			case "off":
				enable = false
			default:
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid argument %q: want on or off", args[0]))
			}

			r, cleanup, err := rootOpts.newRouter(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if enable {
				err = r.EnableMockMode(cmd.Context())
			} else {
				err = r.DisableMockMode(cmd.Context())
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "update config", err)
			}

			cfg := r.GetConfig()
			return rootOpts.formatter(cmd).Success(cfg, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "mock mode %s\n", args[0])
			})
		},
	}
}

func renderConfig(w io.Writer, cfg types.RouterConfig) {
	_, _ = fmt.Fprintf(w, "max_retries:            %d\n", cfg.MaxRetries)
	_, _ = fmt.Fprintf(w, "retry_delay_ms:         %d\n", cfg.RetryDelayMs)
	_, _ = fmt.Fprintf(w, "enable_auto_fallback:   %t\n", cfg.EnableAutoFallback)
	_, _ = fmt.Fprintf(w, "enable_mock_mode:       %t\n", cfg.EnableMockMode)
	_, _ = fmt.Fprintf(w, "enable_status_tracking: %t\n", cfg.EnableStatusTracking)
	_, _ = fmt.Fprintf(w, "notify_on_fallback:     %t\n", cfg.NotifyOnFallback)
}
