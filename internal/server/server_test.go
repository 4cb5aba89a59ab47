package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sah21il/LoopAIProj/internal/config"
	"github.com/sah21il/LoopAIProj/internal/scheduler"
	"github.com/sah21il/LoopAIProj/internal/store"
	"github.com/sah21il/LoopAIProj/pkg/model"
)

func testServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	d := scheduler.NewDispatcher(st, scheduler.Config{
		BatchSize:        3,
		DispatchInterval: time.Millisecond,
		Work:             func(ctx context.Context, id int64) error { return nil },
	}, logger)
	t.Cleanup(func() { d.Stop() })

	return New(config.DefaultServerConfig(), st, d, logger), st
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) model.Response {
	t.Helper()
	var resp model.Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp
}

func decodeData(t *testing.T, resp model.Response, out any) {
	t.Helper()
	b, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestIngest_CreatesIngestion(t *testing.T) {
	s, st := testServer(t)

	w := doRequest(t, s, http.MethodPost, "/ingest",
		map[string]any{"ids": []int64{1, 2, 3, 4, 5}, "priority": "HIGH"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", w.Code, w.Body.String())
	}

	resp := decodeEnvelope(t, w)
	if resp.Status != "ok" {
		t.Errorf("envelope status = %q, want ok", resp.Status)
	}
	if resp.RequestID == "" {
		t.Error("missing request_id")
	}

	var data struct {
		IngestionID string `json:"ingestion_id"`
	}
	decodeData(t, resp, &data)
	if !strings.HasPrefix(data.IngestionID, "ing_") {
		t.Errorf("ingestion_id = %q, want ing_ prefix", data.IngestionID)
	}

	ing, err := st.GetIngestion(context.Background(), data.IngestionID)
	if err != nil {
		t.Fatalf("GetIngestion: %v", err)
	}
	if ing == nil {
		t.Fatal("ingestion not persisted")
	}
	if len(ing.Batches) != 2 {
		t.Errorf("persisted %d batches, want 2", len(ing.Batches))
	}
}

func TestIngest_PriorityCaseInsensitive(t *testing.T) {
	s, _ := testServer(t)

	w := doRequest(t, s, http.MethodPost, "/ingest",
		map[string]any{"ids": []int64{1}, "priority": "medium"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", w.Code, w.Body.String())
	}
}

func TestIngest_Validation(t *testing.T) {
	s, _ := testServer(t)

	tooMany := make([]int64, 1001)
	for i := range tooMany {
		tooMany[i] = int64(i + 1)
	}

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{"empty ids", map[string]any{"ids": []int64{}, "priority": "HIGH"}, "ids"},
		{"missing ids", map[string]any{"priority": "HIGH"}, "ids"},
		{"too many ids", map[string]any{"ids": tooMany, "priority": "HIGH"}, "ids"},
		{"id below range", map[string]any{"ids": []int64{0}, "priority": "HIGH"}, "ids"},
		{"id above range", map[string]any{"ids": []int64{1_000_000_008}, "priority": "HIGH"}, "ids"},
		{"missing priority", map[string]any{"ids": []int64{1}}, "priority"},
		{"unknown priority", map[string]any{"ids": []int64{1}, "priority": "URGENT"}, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/ingest", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body: %s", w.Code, w.Body.String())
			}
			resp := decodeEnvelope(t, w)
			if resp.Error == nil {
				t.Fatal("missing error in envelope")
			}
			if resp.Error.Code != model.ErrValidation {
				t.Errorf("error code = %q, want VALIDATION_ERROR", resp.Error.Code)
			}
			found := false
			for _, fe := range resp.Error.Details {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("no field error for %q in %+v", tt.wantField, resp.Error.Details)
			}
		})
	}
}

func TestIngest_MalformedJSON(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStatus_NotFound(t *testing.T) {
	s, _ := testServer(t)

	w := doRequest(t, s, http.MethodGet, "/status/ing_missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != model.ErrNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", resp.Error)
	}
}

func TestStatus_EndToEnd(t *testing.T) {
	s, _ := testServer(t)

	w := doRequest(t, s, http.MethodPost, "/ingest",
		map[string]any{"ids": []int64{1, 2, 3, 4}, "priority": "LOW"})
	if w.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d, body: %s", w.Code, w.Body.String())
	}
	var created struct {
		IngestionID string `json:"ingestion_id"`
	}
	decodeData(t, decodeEnvelope(t, w), &created)

	// Poll until the fast dispatcher drains both batches.
	deadline := time.Now().Add(5 * time.Second)
	var status model.StatusResponse
	for {
		w := doRequest(t, s, http.MethodGet, "/status/"+created.IngestionID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
		}
		decodeData(t, decodeEnvelope(t, w), &status)
		if status.Status == model.IngestionStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("ingestion never completed, last: %+v", status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if status.IngestionID != created.IngestionID {
		t.Errorf("ingestion_id = %q, want %q", status.IngestionID, created.IngestionID)
	}
	if len(status.Batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(status.Batches))
	}
	for _, b := range status.Batches {
		if b.Status != model.BatchStatusCompleted {
			t.Errorf("batch %s status = %v, want completed", b.ID, b.Status)
		}
	}
}

func TestListIngestions(t *testing.T) {
	s, _ := testServer(t)

	for i := 0; i < 3; i++ {
		priority := "LOW"
		if i == 0 {
			priority = "HIGH"
		}
		w := doRequest(t, s, http.MethodPost, "/ingest",
			map[string]any{"ids": []int64{int64(i + 1)}, "priority": priority})
		if w.Code != http.StatusCreated {
			t.Fatalf("ingest %d status = %d", i, w.Code)
		}
	}

	w := doRequest(t, s, http.MethodGet, "/ingestions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	if resp.Pagination == nil {
		t.Fatal("missing pagination")
	}
	if resp.Pagination.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Pagination.Total)
	}

	w = doRequest(t, s, http.MethodGet, "/ingestions?priority=high", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("filtered status = %d, body: %s", w.Code, w.Body.String())
	}
	resp = decodeEnvelope(t, w)
	if resp.Pagination.Total != 1 {
		t.Errorf("high total = %d, want 1", resp.Pagination.Total)
	}

	w = doRequest(t, s, http.MethodGet, "/ingestions?limit=nope", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)

	w := doRequest(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var data healthResponse
	decodeData(t, decodeEnvelope(t, w), &data)
	if data.Status != "healthy" {
		t.Errorf("health status = %q, want healthy", data.Status)
	}
	if data.Store != "sqlite" {
		t.Errorf("store = %q, want sqlite", data.Store)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := testServer(t)

	w := doRequest(t, s, http.MethodGet, "/health", nil)
	got := w.Header().Get("X-Request-ID")
	if !strings.HasPrefix(got, "req_") {
		t.Errorf("X-Request-ID = %q, want req_ prefix", got)
	}
}

func TestIngest_BoundaryIDsAccepted(t *testing.T) {
	s, _ := testServer(t)

	w := doRequest(t, s, http.MethodPost, "/ingest",
		map[string]any{"ids": []int64{1, 1_000_000_007}, "priority": "HIGH"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", w.Code, w.Body.String())
	}
}

func TestIngest_MaxSizeAccepted(t *testing.T) {
	s, _ := testServer(t)

	ids := make([]int64, 1000)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	w := doRequest(t, s, http.MethodPost, "/ingest",
		map[string]any{"ids": ids, "priority": "MEDIUM"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", w.Code, w.Body.String())
	}

	var created struct {
		IngestionID string `json:"ingestion_id"`
	}
	decodeData(t, decodeEnvelope(t, w), &created)

	w = doRequest(t, s, http.MethodGet, fmt.Sprintf("/status/%s", created.IngestionID), nil)
	var status model.StatusResponse
	decodeData(t, decodeEnvelope(t, w), &status)
	if len(status.Batches) != 334 {
		t.Errorf("got %d batches, want 334", len(status.Batches))
	}
}
