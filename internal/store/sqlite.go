package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sah21il/LoopAIProj/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// SQLite serializes writes anyway, and a single pooled connection keeps
	// ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Ingestion operations ---

func (s *SQLiteStore) CreateIngestion(ctx context.Context, ing *model.Ingestion) error {
	s.logger.Debug("sql", "op", "insert", "table", "ingestions", "id", ing.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestions (id, priority, created_at) VALUES (?, ?, ?)`,
		ing.ID, string(ing.Priority), ing.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// GetIngestion reads the ingestion row and all of its batches inside one
// transaction so the derived status sees a consistent snapshot even while
// the dispatcher and processing tasks write batch statuses concurrently.
func (s *SQLiteStore) GetIngestion(ctx context.Context, id string) (*model.Ingestion, error) {
	s.logger.Debug("sql", "op", "select", "table", "ingestions", "id", id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var ing model.Ingestion
	var priority, createdAt string

	err = tx.QueryRowContext(ctx,
		`SELECT id, priority, created_at FROM ingestions WHERE id = ?`, id,
	).Scan(&ing.ID, &priority, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ing.Priority = model.Priority(priority)
	ing.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	rows, err := tx.QueryContext(ctx,
		`SELECT id, ingestion_id, seq, ids, status, created_at
		 FROM batches WHERE ingestion_id = ? ORDER BY created_at, seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ing.Batches, err = scanBatches(rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	ing.Status = model.DeriveStatus(ing.Batches)
	return &ing, nil
}

func (s *SQLiteStore) ListIngestions(ctx context.Context, opts model.ListOptions) ([]*model.Ingestion, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "ingestions", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var whereClauses []string
	var countArgs []any

	if opts.Priority != "" {
		whereClauses = append(whereClauses, "priority = ?")
		countArgs = append(countArgs, opts.Priority)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM ingestions` + whereSQL
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT id, priority, created_at FROM ingestions` + whereSQL +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	listArgs := append(countArgs, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ings []*model.Ingestion
	for rows.Next() {
		var ing model.Ingestion
		var priority, createdAt string

		if err := rows.Scan(&ing.ID, &priority, &createdAt); err != nil {
			return nil, 0, err
		}
		ing.Priority = model.Priority(priority)
		ing.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		ings = append(ings, &ing)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Load batches per ingestion to derive status.
	for _, ing := range ings {
		batches, err := s.ListBatchesByIngestion(ctx, ing.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("load batches: %w", err)
		}
		ing.Batches = batches
		ing.Status = model.DeriveStatus(batches)
	}

	return ings, total, nil
}

// --- Batch operations ---

func (s *SQLiteStore) CreateBatch(ctx context.Context, b *model.Batch) error {
	s.logger.Debug("sql", "op", "insert", "table", "batches", "id", b.ID)

	idsJSON, err := json.Marshal(b.IDs)
	if err != nil {
		return fmt.Errorf("marshal ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batches (id, ingestion_id, seq, ids, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.IngestionID, b.Seq, string(idsJSON), string(b.Status),
		b.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	s.logger.Debug("sql", "op", "select", "table", "batches", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, ingestion_id, seq, ids, status, created_at FROM batches WHERE id = ?`, id)

	var b model.Batch
	var idsJSON, status, createdAt string

	err := row.Scan(&b.ID, &b.IngestionID, &b.Seq, &idsJSON, &status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.Status = model.BatchStatus(status)
	if err := json.Unmarshal([]byte(idsJSON), &b.IDs); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return &b, nil
}

func (s *SQLiteStore) ListBatchesByIngestion(ctx context.Context, ingestionID string) ([]model.Batch, error) {
	s.logger.Debug("sql", "op", "list", "table", "batches", "ingestion_id", ingestionID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ingestion_id, seq, ids, status, created_at
		 FROM batches WHERE ingestion_id = ? ORDER BY created_at, seq`, ingestionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBatches(rows)
}

// UpdateBatchStatus transitions a batch, enforcing the monotonic
// pending → triggered → completed lifecycle inside one transaction.
func (s *SQLiteStore) UpdateBatchStatus(ctx context.Context, batchID string, status model.BatchStatus) error {
	s.logger.Debug("sql", "op", "update_status", "table", "batches", "id", batchID, "status", status)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM batches WHERE id = ?`, batchID).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("batch %s not found", batchID)
	}
	if err != nil {
		return err
	}

	if !model.BatchStatus(current).CanTransitionTo(status) {
		return &model.InvalidTransitionError{
			BatchID: batchID,
			From:    model.BatchStatus(current),
			To:      status,
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE batches SET status = ? WHERE id = ?`, string(status), batchID); err != nil {
		return err
	}
	return tx.Commit()
}

// --- scan helpers ---

func scanBatches(rows *sql.Rows) ([]model.Batch, error) {
	var batches []model.Batch
	for rows.Next() {
		var b model.Batch
		var idsJSON, status, createdAt string

		if err := rows.Scan(&b.ID, &b.IngestionID, &b.Seq, &idsJSON, &status, &createdAt); err != nil {
			return nil, err
		}

		b.Status = model.BatchStatus(status)
		if err := json.Unmarshal([]byte(idsJSON), &b.IDs); err != nil {
			return nil, fmt.Errorf("unmarshal ids: %w", err)
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

		batches = append(batches, b)
	}
	return batches, rows.Err()
}
