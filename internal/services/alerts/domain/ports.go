package domain

import "context"

// ServicePort is the alert evaluator surface exposed to other modules
type ServicePort interface {
	CreateRule(ctx context.Context, in RuleInput) (Rule, error)
	UpdateRule(ctx context.Context, id string, in RuleInput) (Rule, error)
	DeleteRule(ctx context.Context, id string) error
	GetRule(ctx context.Context, id string) (Rule, error)
	ListRules(ctx context.Context, in ListRulesInput) ([]Rule, error)
	TestFire(ctx context.Context, id string, in TestInput) (Event, error)
	Events(ctx context.Context, in ListEventsInput) (EventPage, error)
}
