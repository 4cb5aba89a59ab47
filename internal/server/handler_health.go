package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	GoVersion   string `json:"go_version"`
	Uptime      string `json:"uptime"`
	QueueDepth  int    `json:"queue_depth"`
	LoopRunning bool   `json:"loop_running"`
	Store       string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, healthResponse{
		Status:      "healthy",
		Version:     "0.1.0",
		GoVersion:   runtime.Version(),
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
		QueueDepth:  s.dispatcher.QueueLen(),
		LoopRunning: s.dispatcher.Running(),
		Store:       "sqlite",
	})
}
