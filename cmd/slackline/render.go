package main

import (
	"github.com/spf13/cobra"

	"github.com/crimson-sun/slackline/internal/delivery"
	"github.com/crimson-sun/slackline/internal/output/stdout"
)

func newRenderCmd(a *app) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Print the Slack payload for each event without sending it",
		Long: `Read CLEF events from a file (gzip and zstd are detected) or stdin and
print the JSON payload each would be posted as, one document per event.

Examples:
  slackline render events.clef
  slackline render --pretty < events.clef`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(false); err != nil {
				return err
			}
			r, err := delivery.Renderer(a.cfg.Render)
			if err != nil {
				return err
			}
			out := stdout.New(pretty,
				stdout.WithWriter(cmd.OutOrStdout()),
				stdout.WithRenderer(r),
				stdout.WithIdentity(delivery.DefaultIdentity(a.cfg)),
			)
			return a.streamFile(cmd.Context(), out, pathArg(args))
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}
