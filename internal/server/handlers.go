// SPDX-License-Identifier: MIT
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Brian099/music-rhythm-test/internal/analysis"
	"github.com/Brian099/music-rhythm-test/internal/audio"
	"github.com/Brian099/music-rhythm-test/internal/catalog"
	applog "github.com/Brian099/music-rhythm-test/internal/log"
)

const maxRequestBody = 1 << 20

// Response statuses of /api/generate.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Filename        string   `json:"filename"`
	MinBeatDuration *float64 `json:"min_beat_duration"`
}

// GenerateResponse is returned on success, or when no beats were found.
type GenerateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	DataSrc string `json:"data_src,omitempty"`
}

// errorResponse is the {"detail": ...} body of every error reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Warnf("Server: Writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}
	if req.MinBeatDuration == nil {
		writeError(w, http.StatusBadRequest, "min_beat_duration is required")
		return
	}
	minBeat := *req.MinBeatDuration
	if !(minBeat > 0) || math.IsInf(minBeat, 1) {
		writeError(w, http.StatusBadRequest, "min_beat_duration must be a positive number of seconds")
		return
	}

	// Reject traversal before waiting for a job slot or touching storage.
	if _, err := catalog.ResolveAudio(s.opts.MusicDir, req.Filename); errors.Is(err, catalog.ErrPathTraversal) {
		applog.Warnf("Server: Rejected filename %q: %v", req.Filename, err)
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	if err := s.jobs.Acquire(r.Context(), 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for an analysis slot")
		return
	}
	defer s.jobs.Release(1)

	applog.Infof("Server: Generating rhythm for %s with min_beat_duration=%g", req.Filename, minBeat)
	gen, err := s.catalog.Generate(req.Filename, minBeat)
	if err != nil {
		status, detail := errorStatus(err)
		if status >= http.StatusInternalServerError {
			applog.Errorf("Server: Generating %s: %v", req.Filename, err)
		} else {
			applog.Warnf("Server: Generating %s: %v", req.Filename, err)
		}
		writeError(w, status, detail)
		return
	}

	if !gen.Persisted {
		writeJSON(w, http.StatusOK, GenerateResponse{
			Status:  StatusEmpty,
			Message: "No beats detected",
		})
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Generated %d beats", gen.Beats),
		DataSrc: gen.DataSrc,
	})
}

// errorStatus maps catalog errors to an HTTP status and client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrPathTraversal):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "File not found"
	case errors.Is(err, analysis.ErrInvalidSpacing):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, audio.ErrDecode):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	listing, err := s.catalog.List()
	if err != nil {
		applog.Errorf("Server: Listing songs: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.opts.IndexFile == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.opts.Root, s.opts.IndexFile))
}
