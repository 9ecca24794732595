package domain

// RuleInput is the create and full-replace update payload
type RuleInput struct {
	Name       string         `json:"name" validate:"required,max=200"`
	Trigger    string         `json:"triggerType" validate:"required"`
	Conditions map[string]any `json:"conditions"`
	Channels   Channels       `json:"channels"`
	Enabled    bool           `json:"enabled"`
}

// TestInput selects the account a manual test fire runs against
type TestInput struct {
	AccountID string `json:"accountId" validate:"required"`
}

// ListRulesInput filters the rule listing
type ListRulesInput struct {
	Enabled *bool
	Limit   int
	Offset  int
}

// ListEventsInput pages through the firing history
type ListEventsInput struct {
	RuleID    string
	AccountID string
	Limit     int
	Offset    int
}

// EventPage is one page of firing history
type EventPage struct {
	Events []Event `json:"events"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
