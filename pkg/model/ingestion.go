package model

import "time"

// Ingestion is one caller request bundling identifiers and a priority.
// It is immutable once created; its Status is derived from the batches at
// read time and never persisted.
type Ingestion struct {
	ID        string          `json:"ingestion_id"`
	Priority  Priority        `json:"priority"`
	Status    IngestionStatus `json:"status"` // Computed field, not stored
	Batches   []Batch         `json:"batches"`
	CreatedAt time.Time       `json:"created_at"`
}

// Batch is a chunk-size-bounded, ordered subset of an ingestion's
// identifiers and the unit of scheduling and status. It is owned by
// exactly one Ingestion and cascade-deleted with it. Batches are listed
// in Seq order, so concatenating their id lists reproduces the submitted
// sequence.
type Batch struct {
	ID          string      `json:"batch_id"`
	IngestionID string      `json:"-"`
	Seq         int         `json:"-"` // position within the ingestion
	IDs         []int64     `json:"ids"`
	Status      BatchStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}
