package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Method  string
	Body    string
	Headers map[string]string
	Timeout time.Duration
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <endpoint>",
		Short: "Invoke an edge function through the router",
		Long: `Invoke an edge function through the router.

The call is retried according to the stored config and served from a
fallback response when the function is unhealthy, mock mode is on, or
every attempt fails.

Example:
  edgefn invoke create-order --body '{"items":[],"total":42}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "X", "POST", "HTTP method")
	cmd.Flags().StringVar(&opts.Body, "body", "{}", "request body as JSON")
	cmd.Flags().StringToStringVarP(&opts.Headers, "header", "H", nil, "extra request headers (key=value)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "overall deadline including retries")

	return cmd
}

func runInvoke(opts *InvokeOptions, endpoint string, cmd *cobra.Command) error {
	var body any
	if err := sonic.UnmarshalString(opts.Body, &body); err != nil {
		return WrapExitError(ExitCommandError, "invalid --body JSON", err)
	}

	r, cleanup, err := opts.newRouter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := contextWithTimeout(cmd, opts.Timeout)
	defer cancel()

	out := opts.formatter(cmd)
	resp, err := r.Invoke(ctx, endpoint, types.Envelope{
		Method:  opts.Method,
		Headers: opts.Headers,
		Body:    body,
	})
	if err != nil {
		code := "invoke_failed"
		var total *types.TotalFailureError
		var notConfigured *types.MockNotConfiguredError
		switch {
		case errors.As(err, &total):
			code = "total_failure"
		case errors.As(err, &notConfigured):
			code = "mock_not_configured"
		case errors.Is(err, types.ErrTransport):
			code = "transport_error"
		}
		_ = out.Error(code, err.Error())
		return WrapExitError(ExitFailure, "invoke "+endpoint, err)
	}

	if resp.FallbackUsed() {
		out.VerboseLog("served by fallback (%s)", resp.Fallback.Reason)
	}
	return out.Success(resp, func(w io.Writer) {
		if resp.FallbackUsed() {
			_, _ = fmt.Fprintf(w, "fallback: %s at %s\n", resp.Fallback.Reason, resp.Fallback.Timestamp.Format(time.RFC3339))
		}
		if resp.Error != nil {
			_, _ = fmt.Fprintf(w, "error: %s (%s)\n", resp.Error.Message, resp.Error.Code)
		}
		data, err := sonic.ConfigStd.MarshalIndent(resp.Data, "", "  ")
		if err != nil {
			_, _ = fmt.Fprintf(w, "%v\n", resp.Data)
			return
		}
		_, _ = fmt.Fprintln(w, string(data))
	})
}
