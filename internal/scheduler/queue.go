package scheduler

import "time"

// queueItem is an ephemeral scheduling record for one pending batch. The
// batch row in the store is the durable source of truth; the item only
// carries what the dispatch loop needs.
type queueItem struct {
	rank        int       // priority rank, lower dispatches first
	submittedAt time.Time // ingestion creation time, tie-break within a rank
	seq         uint64    // push sequence, final tie-break
	batchID     string
	ingestionID string
	ids         []int64
}

// batchQueue is a min-heap over queue items ordered by
// (rank, submittedAt, seq). It implements container/heap.Interface and is
// only touched while holding the dispatcher mutex.
type batchQueue []*queueItem

func (q batchQueue) Len() int { return len(q) }

func (q batchQueue) Less(i, j int) bool {
	if q[i].rank != q[j].rank {
		return q[i].rank < q[j].rank
	}
	if !q[i].submittedAt.Equal(q[j].submittedAt) {
		return q[i].submittedAt.Before(q[j].submittedAt)
	}
	return q[i].seq < q[j].seq
}

func (q batchQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *batchQueue) Push(x any) {
	*q = append(*q, x.(*queueItem))
}

func (q *batchQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
