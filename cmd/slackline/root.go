package main

import (
	"github.com/spf13/cobra"

	"github.com/crimson-sun/slackline/internal/config"
	"github.com/crimson-sun/slackline/internal/logging"
)

// app carries state shared by subcommands once the root command has
// loaded configuration.
type app struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "slackline",
		Short: "Render structured log events as Slack messages",
		Long: `slackline turns CLEF (compact log event format) events into Slack
incoming-webhook messages: one colored attachment per event with the level,
timestamp and every property flattened into path::value lines, plus an
exception block when the event carries one.

Examples:
  slackline render events.clef --pretty   # print payloads, send nothing
  slackline send events.clef.gz           # post to configured channels
  tail -f app.clef | slackline send       # read from stdin
  slackline serve --config slackline.yaml  # accept events over HTTP`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
			a.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (env vars override it)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newRenderCmd(a),
		newSendCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return cmd
}
