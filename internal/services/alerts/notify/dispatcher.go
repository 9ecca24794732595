package notify

import (
	"context"
	"time"

	"sigscore/internal/platform/logger"
	"sigscore/internal/services/alerts/domain"
)

// EmailSender is the outbound mail seam
// the default implementation only logs; real delivery is a deployment concern
type EmailSender interface {
	Send(ctx context.Context, e domain.Event) error
}

// LogEmail writes the would-be email to the log instead of sending it
type LogEmail struct{ Log logger.Logger }

// Send logs the event in place of mail delivery
func (l LogEmail) Send(_ context.Context, e domain.Event) error {
	l.Log.Info().
		Str("event", e.ID).
		Str("rule", e.RuleName).
		Str("account", e.AccountID).
		Msg("email notification (log sink)")
	return nil
}

// Dispatcher fans one alert event out to every enabled channel
// delivery is fire and forget from the evaluator's perspective; failures are
// retried a bounded number of times and then logged, never propagated
type Dispatcher struct {
	Slack    *Slack
	Email    EmailSender
	Log      logger.Logger
	Attempts int
	Backoff  time.Duration
}

// NewDispatcher builds a dispatcher with retry defaults
func NewDispatcher(slack *Slack, email EmailSender, log logger.Logger) *Dispatcher {
	if email == nil {
		email = LogEmail{Log: log}
	}
	return &Dispatcher{
		Slack:    slack,
		Email:    email,
		Log:      log,
		Attempts: 3,
		Backoff:  2 * time.Second,
	}
}

// Dispatch delivers the event on each channel the rule enables
// the in-app feed is the stored event row itself, so in-app needs no send
func (d *Dispatcher) Dispatch(ctx context.Context, ch domain.Channels, e domain.Event) {
	if ch.Slack && d.Slack != nil {
		d.withRetry(ctx, e, "slack", func(ctx context.Context) error {
			return d.Slack.Send(ctx, e, ch.SlackChannel)
		})
	}
	if ch.Email && d.Email != nil {
		d.withRetry(ctx, e, "email", func(ctx context.Context) error {
			return d.Email.Send(ctx, e)
		})
	}
}

func (d *Dispatcher) withRetry(ctx context.Context, e domain.Event, channel string, send func(context.Context) error) {
	var err error
	for attempt := 1; attempt <= d.Attempts; attempt++ {
		if err = send(ctx); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.Backoff * time.Duration(attempt)):
		}
	}
	d.Log.Error().Err(err).
		Str("channel", channel).
		Str("event", e.ID).
		Msg("alert dispatch failed")
}
