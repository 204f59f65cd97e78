package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pitchcraft/auth"
	"pitchcraft/generator"
	"pitchcraft/logger"
	"pitchcraft/publisher"
	"pitchcraft/store"
)

type createPitchRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Tone        string `json:"tone"`
	IdeaText    string `json:"idea_text"`
}

type pitchResponse struct {
	store.PitchRecord
	Path    string            `json:"path"`
	Summary generator.Summary `json:"summary"`
}

type pitchListResponse struct {
	Pitches []pitchResponse `json:"pitches"`
	Count   int             `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"schema": s.service.Schema(),
		"time":   time.Now().UTC(),
	})
}

func (s *Server) handleCreatePitch(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	var req createPitchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondError(w, &generator.ValidationError{Field: "body", Reason: "must be a JSON idea: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.GenerateTimeout)
	defer cancel()
	rec, err := s.service.GenerateAndStore(ctx, owner, generator.Idea{
		Title:       req.Title,
		Description: req.Description,
		Industry:    req.Industry,
		Tone:        req.Tone,
		IdeaText:    req.IdeaText,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newPitchResponse(*rec))
}

func (s *Server) handleListPitches(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	records, err := s.service.ListMyPitches(r.Context(), owner)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newPitchList(records))
}

func (s *Server) handleGetPitch(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	rec, err := s.service.GetPitchByID(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newPitchResponse(*rec))
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	rec, err := s.service.GetPitchByID(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	page, err := publisher.RenderLanding(*rec)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "script-src 'none'; object-src 'none'; frame-ancestors 'self'")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

// handleStreamPitches streams the owner's record set as Server-Sent Events:
// a "snapshot" event now and after every change, "error" when a read fails.
func (s *Server) handleStreamPitches(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())
	rc := http.NewResponseController(w)

	events := make(chan sseEvent, 1)
	push := func(ev sseEvent) {
		// Keep only the newest event for a slow client.
		select {
		case <-events:
		default:
		}
		select {
		case events <- ev:
		default:
		}
	}

	unsubscribe, err := s.service.SubscribeToMyPitches(r.Context(), owner,
		func(records []store.PitchRecord) {
			push(sseEvent{name: "snapshot", data: newPitchList(records)})
		},
		func(err error) {
			push(sseEvent{name: "error", data: errorBody(err)})
		},
	)
	if err != nil {
		respondError(w, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.Warn("event stream cannot flush", "error", err.Error())
		return
	}

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := writeEvent(w, ev); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

type sseEvent struct {
	name string
	data any
}

func writeEvent(w http.ResponseWriter, ev sseEvent) error {
	payload, err := json.Marshal(ev.data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, payload)
	return err
}

func newPitchResponse(rec store.PitchRecord) pitchResponse {
	resp := pitchResponse{PitchRecord: rec, Path: rec.Path()}
	if pitch, err := rec.GeneratedPitch(); err == nil {
		resp.Summary = generator.NewSectionSummarizer().SummarizePitch(pitch)
	}
	return resp
}

func newPitchList(records []store.PitchRecord) pitchListResponse {
	out := pitchListResponse{Pitches: make([]pitchResponse, 0, len(records)), Count: len(records)}
	for _, rec := range records {
		out.Pitches = append(out.Pitches, newPitchResponse(rec))
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", err)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generator.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, store.ErrNoOwner):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, generator.ErrGeneration):
		return http.StatusBadGateway
	}
	var repoErr *store.RepositoryError
	if errors.As(err, &repoErr) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorBody(err error) map[string]string {
	msg := err.Error()
	switch statusFor(err) {
	case http.StatusBadGateway:
		msg = "generation failed, please try again"
	case http.StatusServiceUnavailable:
		msg = "storage unavailable, please try again"
	case http.StatusInternalServerError:
		msg = "internal error"
	}
	return map[string]string{"error": msg}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", err, "status", status)
	}
	respondJSON(w, status, errorBody(err))
}
