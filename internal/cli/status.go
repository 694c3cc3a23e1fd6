package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

type statusReport struct {
	Summary   types.HealthSummary    `json:"summary"`
	Functions []types.FunctionStatus `json:"functions"`
}

type probeResult struct {
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status [endpoint...]",
		Short: "Probe the critical endpoints and print their health",
		Long: `Probe the critical endpoints once and print the resulting health table.

Health statistics live in memory only, so every run starts from a fresh
probe round.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, cleanup, err := rootOpts.newRouter(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := contextWithTimeout(cmd, timeout)
			defer cancel()
			r.ProbeNow(ctx)

			report := statusReport{Summary: r.GetHealthSummary(), Functions: r.GetAllFunctionStatuses()}
			if len(args) > 0 {
				report.Functions = filterStatuses(report.Functions, args)
			}
			return rootOpts.formatter(cmd).Success(report, func(w io.Writer) {
				renderStatus(w, report)
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "deadline for the probe round")
	return cmd
}

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:           "probe",
		Short:         "Run one health-check round against the critical endpoints",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, cleanup, err := rootOpts.newRouter(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := contextWithTimeout(cmd, timeout)
			defer cancel()

			outcomes := r.ProbeNow(ctx)
			results := make([]probeResult, 0, len(outcomes))
			failed := 0
			for endpoint, perr := range outcomes {
				res := probeResult{Endpoint: endpoint, OK: perr == nil}
				if perr != nil {
					res.Error = perr.Error()
					failed++
				}
				results = append(results, res)
			}
			sort.Slice(results, func(i, j int) bool { return results[i].Endpoint < results[j].Endpoint })

			if err := rootOpts.formatter(cmd).Success(results, func(w io.Writer) {
				for _, res := range results {
					if res.OK {
						_, _ = fmt.Fprintf(w, "ok    %s\n", res.Endpoint)
					} else {
						_, _ = fmt.Fprintf(w, "FAIL  %s: %s\n", res.Endpoint, res.Error)
					}
				}
			}); err != nil {
				return err
			}
			if failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d of %d probes failed", failed, len(results)))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "deadline for the probe round")
	return cmd
}

func filterStatuses(all []types.FunctionStatus, names []string) []types.FunctionStatus {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	filtered := make([]types.FunctionStatus, 0, len(names))
	for _, status := range all {
		if wanted[status.Endpoint] {
			filtered = append(filtered, status)
		}
	}
	return filtered
}

func renderStatus(w io.Writer, report statusReport) {
	s := report.Summary
	_, _ = fmt.Fprintf(w, "%d functions: %d healthy, %d unhealthy, avg %.1fms, success %.0f%%\n",
		s.TotalFunctions, s.HealthyFunctions, s.UnhealthyFunctions, s.AvgResponseTimeMs, s.OverallSuccessRate*100)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ENDPOINT\tSTATE\tFAILURES\tCALLS\tSUCCESS\tAVG MS")
	for _, fs := range report.Functions {
		state := "closed"
		if !fs.IsHealthy {
			state = "OPEN"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.0f%%\t%.1f\n",
			fs.Endpoint, state, fs.ConsecutiveFailures, fs.TotalCalls, fs.SuccessRate*100, fs.AvgResponseTimeMs)
	}
	_ = tw.Flush()
}

func contextWithTimeout(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
