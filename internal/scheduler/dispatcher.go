package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/sah21il/LoopAIProj/internal/store"
	"github.com/sah21il/LoopAIProj/pkg/model"
)

// Fixed scheduling constants. They are not runtime-tunable; Config exists so
// tests can shrink the timings.
const (
	DefaultBatchSize        = 3
	DefaultDispatchInterval = 5 * time.Second
	DefaultPerIDLatency     = 100 * time.Millisecond
)

// Config holds dispatcher configuration.
type Config struct {
	BatchSize        int
	DispatchInterval time.Duration
	PerIDLatency     time.Duration

	// Work overrides the simulated per-identifier work. A returned error
	// is swallowed: the batch still completes. Nil means "sleep
	// PerIDLatency per identifier".
	Work func(ctx context.Context, id int64) error
}

// DefaultConfig returns the fixed production settings.
func DefaultConfig() Config {
	return Config{
		BatchSize:        DefaultBatchSize,
		DispatchInterval: DefaultDispatchInterval,
		PerIDLatency:     DefaultPerIDLatency,
	}
}

// Dispatcher owns the in-memory priority queue and the single dispatch
// loop that drains it under the global rate limit. Batches are persisted
// before they are enqueued, so a status query racing a submission still
// sees every batch.
//
// The queue, the running flag, and the loop's exit decision all mutate
// under one mutex: a producer that observes "not running" starts exactly
// one loop, and the loop only exits while holding the same mutex it would
// take to push — an item can never be left in the queue with no loop to
// drain it.
type Dispatcher struct {
	store   store.Store
	cfg     Config
	logger  *slog.Logger
	limiter *rate.Limiter

	mu      sync.Mutex
	queue   batchQueue
	running bool
	closed  bool
	done    chan struct{} // closed when the current loop exits
	pushSeq uint64
}

// NewDispatcher creates a Dispatcher. Zero Config fields fall back to the
// fixed defaults.
func NewDispatcher(st store.Store, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.DispatchInterval <= 0 {
		cfg.DispatchInterval = DefaultDispatchInterval
	}
	if cfg.PerIDLatency <= 0 {
		cfg.PerIDLatency = DefaultPerIDLatency
	}
	return &Dispatcher{
		store:   st,
		cfg:     cfg,
		logger:  logger.With("component", "scheduler"),
		limiter: rate.NewLimiter(rate.Every(cfg.DispatchInterval), 1),
	}
}

// Submit splits ids into batches, persists them in pending status, and
// enqueues them for dispatch. It is the producer entry point used by the
// HTTP layer and is safe for concurrent callers.
func (d *Dispatcher) Submit(ctx context.Context, ing *model.Ingestion, ids []int64) ([]model.Batch, error) {
	chunks := SplitIDs(ids, d.cfg.BatchSize)
	now := time.Now().UTC()

	batches := make([]model.Batch, 0, len(chunks))
	items := make([]*queueItem, 0, len(chunks))
	for i, chunk := range chunks {
		b := &model.Batch{
			ID:          "batch_" + uuid.New().String(),
			IngestionID: ing.ID,
			Seq:         i,
			IDs:         chunk,
			Status:      model.BatchStatusPending,
			CreatedAt:   now,
		}
		if err := d.store.CreateBatch(ctx, b); err != nil {
			return nil, fmt.Errorf("create batch: %w", err)
		}
		batches = append(batches, *b)
		items = append(items, &queueItem{
			rank:        ing.Priority.Rank(),
			submittedAt: ing.CreatedAt,
			batchID:     b.ID,
			ingestionID: ing.ID,
			ids:         chunk,
		})
	}

	d.enqueue(items...)
	d.logger.Info("batches enqueued",
		"ingestion_id", ing.ID, "priority", ing.Priority, "batches", len(batches))
	return batches, nil
}

// enqueue pushes items and, if no dispatch loop is running, starts one.
func (d *Dispatcher) enqueue(items ...*queueItem) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, it := range items {
		d.pushSeq++
		it.seq = d.pushSeq
		heap.Push(&d.queue, it)
	}
	if !d.running && !d.closed && d.queue.Len() > 0 {
		d.running = true
		d.done = make(chan struct{})
		go d.run(d.done)
	}
}

// run is the dispatch loop. At most one instance is active at a time.
func (d *Dispatcher) run(done chan struct{}) {
	defer close(done)
	d.logger.Debug("dispatch loop started")

	for {
		d.mu.Lock()
		if d.closed || d.queue.Len() == 0 {
			d.running = false
			d.mu.Unlock()
			d.logger.Debug("dispatch loop stopped")
			return
		}
		d.mu.Unlock()

		// Reserve the next dispatch slot and wait it out without holding
		// the mutex, so producers can keep enqueueing meanwhile.
		res := d.limiter.Reserve()
		if delay := res.Delay(); delay > 0 {
			d.logger.Debug("rate limit wait", "delay", delay.String())
			time.Sleep(delay)
		}

		d.mu.Lock()
		if d.closed || d.queue.Len() == 0 {
			res.Cancel() // return the unused slot
			d.running = false
			d.mu.Unlock()
			d.logger.Debug("dispatch loop stopped")
			return
		}
		item := heap.Pop(&d.queue).(*queueItem)
		d.mu.Unlock()

		d.logger.Info("batch dispatched",
			"batch_id", item.batchID, "ingestion_id", item.ingestionID, "ids", len(item.ids))

		// Fire and forget: the loop never joins on processing tasks.
		go d.process(item)
	}
}

// process runs one batch: triggered → simulated work → completed. Work
// failures are swallowed and the batch is still forced to completed; there
// is no failed terminal status.
func (d *Dispatcher) process(item *queueItem) {
	ctx := context.Background()

	if err := d.store.UpdateBatchStatus(ctx, item.batchID, model.BatchStatusTriggered); err != nil {
		d.logger.Error("mark triggered", "batch_id", item.batchID, "error", err)
	}

	for _, id := range item.ids {
		if err := d.work(ctx, id); err != nil {
			d.logger.Error("process id", "batch_id", item.batchID, "id", id, "error", err)
		}
	}

	if err := d.store.UpdateBatchStatus(ctx, item.batchID, model.BatchStatusCompleted); err != nil {
		d.logger.Error("mark completed", "batch_id", item.batchID, "error", err)
		return
	}
	d.logger.Info("batch completed", "batch_id", item.batchID, "ingestion_id", item.ingestionID)
}

// work simulates the external call for one identifier.
func (d *Dispatcher) work(ctx context.Context, id int64) error {
	if d.cfg.Work != nil {
		return d.cfg.Work(ctx, id)
	}
	time.Sleep(d.cfg.PerIDLatency)
	return nil
}

// QueueLen reports the number of batches still waiting to be dispatched.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Running reports whether a dispatch loop is currently active.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Stop prevents further loop starts and waits for the current loop to
// exit. In-flight processing tasks are never cancelled; they run to
// completion on their own.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	d.closed = true
	running := d.running
	done := d.done
	d.mu.Unlock()

	if running {
		<-done
	}
	return nil
}
