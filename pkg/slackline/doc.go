// Package slackline renders structured log events as Slack incoming-webhook
// messages and delivers them.
//
// Quick start:
//
//	sink, err := slackline.New(os.Getenv("SLACK_WEBHOOK_URL"),
//	    slackline.WithUsername("orders-api"),
//	    slackline.WithMinLevel(slackline.Warning),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sink.Close()
//
//	logger := slog.New(sink.Handler(slog.LevelWarn))
//	logger.Error("payment failed", "order", order, "error", err)
//
// Each event becomes one message: a summary attachment whose fields are the
// level, the timestamp and one field per top-level property (nested values
// flattened to path::value lines), plus an exception attachment when the
// event carries an error.
//
// Render produces the same payload without sending it. A Sink is safe for
// concurrent use.
package slackline
