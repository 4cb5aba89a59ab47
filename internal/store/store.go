package store

import (
	"context"

	"github.com/sah21il/LoopAIProj/pkg/model"
)

// Store defines the persistence layer for ingestion requests and batches.
// It is the durable source of truth for batch status; the in-memory
// dispatch queue is only a scheduling hint on top of it.
type Store interface {
	// Ingestion operations
	CreateIngestion(ctx context.Context, ing *model.Ingestion) error
	// GetIngestion returns the ingestion with its batches loaded in
	// creation order, read from a single consistent snapshot. Returns
	// nil when the id is unknown.
	GetIngestion(ctx context.Context, id string) (*model.Ingestion, error)
	ListIngestions(ctx context.Context, opts model.ListOptions) ([]*model.Ingestion, int, error)

	// Batch operations
	CreateBatch(ctx context.Context, b *model.Batch) error
	GetBatch(ctx context.Context, id string) (*model.Batch, error)
	ListBatchesByIngestion(ctx context.Context, ingestionID string) ([]model.Batch, error)
	// UpdateBatchStatus applies a status transition, rejecting any move
	// that is not pending → triggered or triggered → completed.
	UpdateBatchStatus(ctx context.Context, batchID string, status model.BatchStatus) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
