package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/crimson-sun/slackline/internal/delivery"
	"github.com/crimson-sun/slackline/internal/pipeline"
	"github.com/crimson-sun/slackline/internal/server"
)

const statsInterval = time.Minute

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept events over HTTP and relay them to Slack",
		Long: `Run an HTTP relay. POST /api/v1/events accepts a JSON array or
newline-delimited CLEF events (optionally gzip-encoded) and answers 202 with
accepted and rejected counts. GET /healthz reports liveness.

Examples:
  slackline serve --addr :9000
  curl -X POST --data-binary @app.clef localhost:9000/api/v1/events`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(true); err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			minLevel, err := a.cfg.Level()
			if err != nil {
				return err
			}
			out, err := delivery.Outputs(a.cfg)
			if err != nil {
				return err
			}
			p := pipeline.New(nil, out, pipeline.WithMinLevel(minLevel))
			defer p.Close()

			gin.SetMode(gin.ReleaseMode)
			opts := []server.Option{
				server.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
				server.WithAllowOrigins(a.cfg.Server.AllowOrigins...),
			}
			if a.cfg.Server.RateLimit > 0 {
				opts = append(opts, server.WithRateLimit(rate.Limit(a.cfg.Server.RateLimit), int(a.cfg.Server.RateLimit)+1))
			}
			srv := server.New(p, opts...)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return srv.Run(ctx, addr) })
			g.Go(func() error { return reportStats(ctx, p) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

// reportStats logs pipeline counters until ctx is done.
func reportStats(ctx context.Context, p *pipeline.Pipeline) error {
	t := time.NewTicker(statsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s := p.Stats()
			slog.Info("relay stats", "delivered", s.Delivered, "filtered", s.Filtered, "failed", s.Failed)
		}
	}
}
