package domain

import "time"

// IngestInput is one signal submission
// Timestamp defaults to the server clock when omitted
type IngestInput struct {
	SourceType     string         `json:"source_type" validate:"required" example:"github"`
	ActorID        string         `json:"actor_id,omitempty" validate:"omitempty,max=320" example:"octocat"`
	AccountID      string         `json:"account_id,omitempty" validate:"omitempty,uuid4" example:"8f14e45f-ceea-467f-a8fb-9f2f7d1e0b42"`
	Type           string         `json:"type" validate:"required" example:"repo_star"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Timestamp      *time.Time     `json:"timestamp,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty" validate:"omitempty,max=256"`
}

// IngestResult pairs the stored signal with the duplicate flag
type IngestResult struct {
	Signal      Signal `json:"signal"`
	IsDuplicate bool   `json:"is_duplicate"`
}

// BatchInput carries up to 1000 signals
type BatchInput struct {
	Signals []IngestInput `json:"signals" validate:"required,min=1,max=1000"`
}

// BatchItemResult is the outcome for one batch entry
type BatchItemResult struct {
	Index       int    `json:"index"`
	SignalID    string `json:"signal_id,omitempty"`
	IsDuplicate bool   `json:"is_duplicate,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchSummary aggregates batch outcomes
// one malformed entry never fails the batch
type BatchSummary struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
}

// ListInput filters the signal list
type ListInput struct {
	AccountID string `json:"account_id,omitempty" validate:"omitempty,uuid4"`
	Source    string `json:"source,omitempty"`
	Type      string `json:"type,omitempty"`
	Limit     int    `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
	Offset    int    `json:"offset,omitempty" validate:"omitempty,min=0"`
}

// DailyStatRow is one day bucket from the analytics mirror
type DailyStatRow struct {
	Day   string `json:"day" example:"2026-08-01"`
	Count uint64 `json:"count" example:"42"`
}
