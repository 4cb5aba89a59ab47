package scheduler

import (
	"container/heap"
	"testing"
	"time"
)

func pushItem(q *batchQueue, rank int, submittedAt time.Time, seq uint64, batchID string) {
	heap.Push(q, &queueItem{
		rank:        rank,
		submittedAt: submittedAt,
		seq:         seq,
		batchID:     batchID,
	})
}

func popAll(q *batchQueue) []string {
	var order []string
	for q.Len() > 0 {
		order = append(order, heap.Pop(q).(*queueItem).batchID)
	}
	return order
}

func TestBatchQueue_PriorityOrder(t *testing.T) {
	now := time.Now()
	var q batchQueue

	// Pushed in scrambled order across the three ranks.
	pushItem(&q, 3, now, 1, "low")
	pushItem(&q, 1, now, 2, "high")
	pushItem(&q, 2, now, 3, "medium")
	pushItem(&q, 1, now, 4, "high2")

	got := popAll(&q)
	want := []string{"high", "high2", "medium", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", got, want)
		}
	}
}

func TestBatchQueue_TieBreakBySubmissionTime(t *testing.T) {
	t0 := time.Now()
	t1 := t0.Add(time.Second)
	var q batchQueue

	// Same rank, later submission pushed first.
	pushItem(&q, 2, t1, 1, "later")
	pushItem(&q, 2, t0, 2, "earlier")

	got := popAll(&q)
	if got[0] != "earlier" || got[1] != "later" {
		t.Errorf("pop order = %v, want [earlier later]", got)
	}
}

func TestBatchQueue_TieBreakBySeq(t *testing.T) {
	now := time.Now()
	var q batchQueue

	// Equal rank and submission time: push order decides.
	pushItem(&q, 1, now, 1, "first")
	pushItem(&q, 1, now, 2, "second")
	pushItem(&q, 1, now, 3, "third")

	got := popAll(&q)
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", got, want)
		}
	}
}

// A higher-priority item pushed after lower-priority items still pops first,
// and no item is ever returned twice.
func TestBatchQueue_LatePushPreempts(t *testing.T) {
	now := time.Now()
	var q batchQueue

	pushItem(&q, 3, now, 1, "low1")
	pushItem(&q, 3, now, 2, "low2")
	if got := heap.Pop(&q).(*queueItem).batchID; got != "low1" {
		t.Fatalf("first pop = %q, want low1", got)
	}

	pushItem(&q, 1, now.Add(time.Minute), 3, "high")
	got := popAll(&q)
	want := []string{"high", "low2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop order after late push = %v, want %v", got, want)
		}
	}
}
