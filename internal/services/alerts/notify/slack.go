// Package notify delivers alert firings to the configured channels
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sigscore/internal/services/alerts/domain"
)

const httpTimeout = 10 * time.Second

// Slack posts alert events to a Slack incoming webhook
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates a Slack notifier. With an empty webhook URL Send is a no-op
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts one alert event to the webhook
func (n *Slack) Send(ctx context.Context, e domain.Event, channel string) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(e, channel))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(e domain.Event, channel string) map[string]any {
	msg := map[string]any{
		"blocks": []map[string]any{
			headerBlock(e),
			{"type": "divider"},
			fieldsBlock(e),
			contextBlock(e),
		},
	}
	if channel != "" {
		msg["channel"] = channel
	}
	return msg
}

func headerBlock(e domain.Event) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s Alert: %s", triggerEmoji(e.Trigger), e.RuleName),
		},
	}
}

func fieldsBlock(e domain.Event) map[string]any {
	fields := []map[string]any{
		{"type": "mrkdwn", "text": fmt.Sprintf("*Account:* %s", e.AccountID)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Trigger:* %s", e.Trigger)},
	}
	if e.Before != nil {
		fields = append(fields, map[string]any{
			"type": "mrkdwn", "text": fmt.Sprintf("*Previous:* %d (%s)", e.Before.Score, e.Before.Tier),
		})
	}
	if e.After != nil {
		fields = append(fields, map[string]any{
			"type": "mrkdwn", "text": fmt.Sprintf("*Current:* %d (%s, %s)", e.After.Score, e.After.Tier, e.After.Trend),
		})
	}
	if e.SignalID != "" {
		fields = append(fields, map[string]any{
			"type": "mrkdwn", "text": fmt.Sprintf("*Signal:* %s", e.SignalID),
		})
	}
	return map[string]any{"type": "section", "fields": fields}
}

func contextBlock(e domain.Event) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("sigscore • event %s • %s", e.ID, e.FiredAt.UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func triggerEmoji(t domain.TriggerType) string {
	switch t {
	case domain.TriggerScoreDrop, domain.TriggerEngagementDrop, domain.TriggerAccountInactive:
		return "\U0001f534" // red circle
	case domain.TriggerScoreRise, domain.TriggerNewHotSignal:
		return "\U0001f7e2" // green circle
	default:
		return "\U0001f7e1" // yellow circle
	}
}
