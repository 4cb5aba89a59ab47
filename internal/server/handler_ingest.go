package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sah21il/LoopAIProj/pkg/model"
)

// Bounds enforced on ingestion requests.
const (
	maxIDsPerRequest = 1000
	minIDValue       = 1
	maxIDValue       = 1_000_000_007
)

type ingestRequest struct {
	IDs      []int64 `json:"ids"`
	Priority string  `json:"priority"`
}

type ingestResponse struct {
	IngestionID string `json:"ingestion_id"`
}

func validateIngest(req *ingestRequest) (model.Priority, []model.FieldError) {
	var errs []model.FieldError

	if len(req.IDs) == 0 {
		errs = append(errs, model.FieldError{Field: "ids", Message: "ids must be a non-empty list"})
	}
	if len(req.IDs) > maxIDsPerRequest {
		errs = append(errs, model.FieldError{
			Field:   "ids",
			Message: fmt.Sprintf("at most %d ids per request, got %d", maxIDsPerRequest, len(req.IDs)),
		})
	}
	for i, id := range req.IDs {
		if id < minIDValue || id > maxIDValue {
			errs = append(errs, model.FieldError{
				Field:   "ids",
				Message: fmt.Sprintf("ids[%d] = %d out of range [%d, %d]", i, id, minIDValue, maxIDValue),
			})
			break // one range error is enough
		}
	}

	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		errs = append(errs, model.FieldError{Field: "priority", Message: err.Error()})
	}
	return priority, errs
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	priority, fieldErrs := validateIngest(&req)
	if len(fieldErrs) > 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid ingestion request", fieldErrs...))
		return
	}

	ing := &model.Ingestion{
		ID:        "ing_" + uuid.New().String(),
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateIngestion(r.Context(), ing); err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	if _, err := s.dispatcher.Submit(r.Context(), ing, req.IDs); err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	s.logger.Info("ingestion accepted",
		"ingestion_id", ing.ID, "priority", ing.Priority, "ids", len(req.IDs))
	respondCreated(w, reqID, ingestResponse{IngestionID: ing.ID})
}
