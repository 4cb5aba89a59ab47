package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sah21il/LoopAIProj/pkg/model"
)

// parseListOptions reads limit, offset, and priority query parameters.
func parseListOptions(r *http.Request, opts *model.ListOptions) *model.APIError {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.NewValidationError("invalid list options",
				model.FieldError{Field: "limit", Message: "limit must be an integer"})
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.NewValidationError("invalid list options",
				model.FieldError{Field: "offset", Message: "offset must be an integer"})
		}
		opts.Offset = n
	}
	if v := q.Get("priority"); v != "" {
		p, err := model.ParsePriority(v)
		if err != nil {
			return model.NewValidationError("invalid list options",
				model.FieldError{Field: "priority", Message: err.Error()})
		}
		opts.Priority = string(p)
	}
	opts.Clamp()
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	ing, err := s.store.GetIngestion(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if ing == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("ingestion", id))
		return
	}

	respondOK(w, reqID, model.StatusResponse{
		IngestionID: ing.ID,
		Status:      ing.Status,
		Batches:     ing.Batches,
	})
}

func (s *Server) handleListIngestions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts := model.DefaultListOptions()
	if err := parseListOptions(r, &opts); err != nil {
		respondError(w, reqID, http.StatusBadRequest, err)
		return
	}

	ingestions, total, err := s.store.ListIngestions(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	respondList(w, reqID, ingestions, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}
