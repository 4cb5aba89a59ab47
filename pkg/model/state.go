package model

import "fmt"

// Priority classes an ingestion request. Lower rank dispatches first.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// Rank maps the priority to its dispatch rank: HIGH=1, MEDIUM=2, LOW=3.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// ParsePriority converts a string (case-insensitive) to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "HIGH", "high", "High":
		return PriorityHigh, nil
	case "MEDIUM", "medium", "Medium":
		return PriorityMedium, nil
	case "LOW", "low", "Low":
		return PriorityLow, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// BatchStatus represents the lifecycle state of a Batch.
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusTriggered BatchStatus = "triggered"
	BatchStatusCompleted BatchStatus = "completed"
)

// String returns the string representation of the batch status.
func (s BatchStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the batch is in its final state.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted
}

// ValidBatchTransitions defines the allowed status transitions for Batches.
// Transitions are monotonic: pending → triggered → completed, never reversed.
var ValidBatchTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusPending:   {BatchStatusTriggered},
	BatchStatusTriggered: {BatchStatusCompleted},
}

// CanTransitionTo returns true if moving from the current status to next is valid.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	for _, allowed := range ValidBatchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IngestionStatus is the aggregate status of an ingestion request. It is
// always derived from the batches, never stored.
type IngestionStatus string

const (
	IngestionStatusYetToStart IngestionStatus = "yet_to_start"
	IngestionStatusTriggered  IngestionStatus = "triggered"
	IngestionStatusCompleted  IngestionStatus = "completed"
)

// String returns the string representation of the ingestion status.
func (s IngestionStatus) String() string {
	return string(s)
}

// DeriveStatus computes the aggregate status from a set of batches:
// no batches → yet_to_start; all completed → completed; any triggered →
// triggered; otherwise (all pending) → yet_to_start.
func DeriveStatus(batches []Batch) IngestionStatus {
	if len(batches) == 0 {
		return IngestionStatusYetToStart
	}
	allCompleted := true
	anyTriggered := false
	for i := range batches {
		switch batches[i].Status {
		case BatchStatusCompleted:
		case BatchStatusTriggered:
			allCompleted = false
			anyTriggered = true
		default:
			allCompleted = false
		}
	}
	if allCompleted {
		return IngestionStatusCompleted
	}
	if anyTriggered {
		return IngestionStatusTriggered
	}
	return IngestionStatusYetToStart
}
