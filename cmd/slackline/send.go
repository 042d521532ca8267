package main

import (
	"github.com/spf13/cobra"

	"github.com/crimson-sun/slackline/internal/delivery"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send [file]",
		Short: "Post each event to the configured Slack channels",
		Long: `Read CLEF events from a file or stdin and post one message per event to
every configured channel whose minimum level the event meets.

Examples:
  SLACKLINE_WEBHOOK_URL=https://hooks.slack.com/services/... slackline send app.clef
  slackline send --config slackline.yaml < app.clef`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(true); err != nil {
				return err
			}
			out, err := delivery.Outputs(a.cfg)
			if err != nil {
				return err
			}
			return a.streamFile(cmd.Context(), out, pathArg(args))
		},
	}
}
