package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Compute(ctx context.Context, accountID string) (AccountScore, error)
	Get(ctx context.Context, accountID string) (AccountScore, error)
	Top(ctx context.Context, in TopInput) ([]AccountScore, error)
}

// TopInput filters the top accounts listing
type TopInput struct {
	Tier  string `json:"tier,omitempty"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
}
