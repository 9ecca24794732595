package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sigscore/internal/platform/logger"
	"sigscore/internal/platform/testkit"
	"sigscore/internal/services/alerts/domain"
	scoredom "sigscore/internal/services/scoring/domain"
)

func sampleEvent() domain.Event {
	before := scoredom.AccountScore{Score: 85, Tier: scoredom.TierHot}
	after := scoredom.AccountScore{Score: 60, Tier: scoredom.TierWarm, Trend: scoredom.TrendFalling}
	return domain.Event{
		ID:        "evt-1",
		OrgID:     "org-1",
		RuleID:    "rule-1",
		RuleName:  "hot account cooling off",
		AccountID: "acct-1",
		Trigger:   domain.TriggerScoreDrop,
		Before:    &before,
		After:     &after,
		FiredAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSlackSend(t *testing.T) {
	t.Parallel()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewSlack(srv.URL).Send(context.Background(), sampleEvent(), "#alerts"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	testkit.MustContain(t, got, "hot account cooling off")
	testkit.MustContain(t, got, "acct-1")
	testkit.MustContain(t, got, "score_drop")
	testkit.MustContain(t, got, `"blocks"`)
	testkit.MustContain(t, got, `"channel":"#alerts"`)
}

func TestSlackSend_WebhookError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewSlack(srv.URL).Send(context.Background(), sampleEvent(), "")
	if err == nil {
		t.Fatal("4xx webhook response should surface as an error")
	}
	testkit.MustContain(t, err.Error(), "400")
}

func TestSlackSend_NoWebhookIsNoop(t *testing.T) {
	t.Parallel()

	if err := NewSlack("").Send(context.Background(), sampleEvent(), ""); err != nil {
		t.Fatalf("empty webhook should be a no-op, got %v", err)
	}
}

type flakySender struct {
	failures int
	calls    int
}

func (f *flakySender) Send(context.Context, domain.Event) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("smtp unavailable")
	}
	return nil
}

func TestDispatcherRetries(t *testing.T) {
	t.Parallel()

	sender := &flakySender{failures: 2}
	d := NewDispatcher(NewSlack(""), sender, *logger.Named("test"))
	d.Backoff = time.Millisecond

	d.Dispatch(context.Background(), domain.Channels{Email: true}, sampleEvent())
	if sender.calls != 3 {
		t.Fatalf("sender called %d times, want 3 (two failures then success)", sender.calls)
	}
}

func TestDispatcherGivesUpAfterAttempts(t *testing.T) {
	t.Parallel()

	sender := &flakySender{failures: 10}
	d := NewDispatcher(NewSlack(""), sender, *logger.Named("test"))
	d.Backoff = time.Millisecond

	d.Dispatch(context.Background(), domain.Channels{Email: true}, sampleEvent())
	if sender.calls != d.Attempts {
		t.Fatalf("sender called %d times, want %d", sender.calls, d.Attempts)
	}
}
