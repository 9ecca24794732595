// Package domain holds alert rule types and the pure evaluation logic
package domain

import (
	"time"

	scoredom "sigscore/internal/services/scoring/domain"
)

// TriggerType enumerates the supported rule triggers
type TriggerType string

// Trigger types
const (
	TriggerScoreDrop       TriggerType = "score_drop"
	TriggerScoreRise       TriggerType = "score_rise"
	TriggerScoreThreshold  TriggerType = "score_threshold"
	TriggerEngagementDrop  TriggerType = "engagement_drop"
	TriggerAccountInactive TriggerType = "account_inactive"
	TriggerNewHotSignal    TriggerType = "new_hot_signal"
)

// Valid reports whether t is a known trigger type
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerScoreDrop, TriggerScoreRise, TriggerScoreThreshold,
		TriggerEngagementDrop, TriggerAccountInactive, TriggerNewHotSignal:
		return true
	}
	return false
}

// SignalDriven reports whether t is evaluated per incoming signal rather
// than per score snapshot
func (t TriggerType) SignalDriven() bool { return t == TriggerNewHotSignal }

// Threshold crossing directions for score_threshold rules
const (
	DirectionBelow = "below"
	DirectionAbove = "above"
)

// Channels selects where a firing is delivered
type Channels struct {
	InApp        bool   `json:"inApp"`
	Email        bool   `json:"email"`
	Slack        bool   `json:"slack"`
	SlackChannel string `json:"slackChannel,omitempty"`
}

// Any reports whether at least one channel is enabled
func (c Channels) Any() bool { return c.InApp || c.Email || c.Slack }

// Rule is user-authored alerting configuration
type Rule struct {
	ID         string      `json:"id"`
	OrgID      string      `json:"organizationId"`
	Name       string      `json:"name"`
	Trigger    TriggerType `json:"triggerType"`
	Conditions Conditions  `json:"conditions"`
	Channels   Channels    `json:"channels"`
	Enabled    bool        `json:"enabled"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// RuleState is the per (rule, account) edge tracker
// Active means the condition held at the last evaluation; a rule refires
// only after the condition clears and comes back
type RuleState struct {
	RuleID    string    `json:"ruleId"`
	AccountID string    `json:"accountId"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event is the append-only firing record
type Event struct {
	ID        string                 `json:"id"`
	OrgID     string                 `json:"organizationId"`
	RuleID    string                 `json:"ruleId"`
	RuleName  string                 `json:"ruleName"`
	AccountID string                 `json:"accountId"`
	Trigger   TriggerType            `json:"triggerType"`
	Before    *scoredom.AccountScore `json:"snapshotBefore,omitempty"`
	After     *scoredom.AccountScore `json:"snapshotAfter,omitempty"`
	SignalID  string                 `json:"signalId,omitempty"`
	Test      bool                   `json:"test,omitempty"`
	FiredAt   time.Time              `json:"firedAt"`
}
