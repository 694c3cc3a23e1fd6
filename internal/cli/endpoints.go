package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cecil-the-coder/edge-function-kit/pkg/fallback"
	"github.com/cecil-the-coder/edge-function-kit/pkg/router"
)

type endpointList struct {
	Fallbacks []string `json:"fallbacks"`
	Probed    []string `json:"probed"`
}

// NewEndpointsCommand creates the endpoints command.
func NewEndpointsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "endpoints",
		Short:         "List endpoints with fallback responses and the probed set",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := fallback.NewDefaultProvider()
			r, cleanup, err := rootOpts.newRouter(cmd, router.WithFallbacks(provider))
			if err != nil {
				return err
			}
			defer cleanup()

			list := endpointList{Fallbacks: provider.Endpoints(), Probed: r.ProbeEndpoints()}
			return rootOpts.formatter(cmd).Success(list, func(w io.Writer) {
				probed := make(map[string]bool, len(list.Probed))
				for _, name := range list.Probed {
					probed[name] = true
				}
				for _, name := range list.Fallbacks {
					marker := " "
					if probed[name] {
						marker = "*"
					}
					_, _ = fmt.Fprintf(w, "%s %s\n", marker, name)
				}
				_, _ = fmt.Fprintln(w, "(* probed in the background)")
			})
		},
	}
}
