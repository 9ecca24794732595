package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Ingest(ctx context.Context, in IngestInput) (IngestResult, error)
	IngestBatch(ctx context.Context, in BatchInput) (BatchSummary, error)
	List(ctx context.Context, in ListInput) ([]Signal, error)
	DailyStats(ctx context.Context, days int) ([]DailyStatRow, error)
}
