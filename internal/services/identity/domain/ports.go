package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Resolve(ctx context.Context, hints ActorHints) (contactID string, err error)
	Identities(ctx context.Context, contactID string) ([]Identity, error)
	FindDuplicates(ctx context.Context) ([]DuplicateGroup, error)
	Merge(ctx context.Context, in MergeInput) error
	Enrich(ctx context.Context, contactID string) (EnrichResult, error)
}
