// Package server exposes the assistant over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hearthside/keeper/assistant"
)

// Server routes voice-command requests to the assistant engine.
type Server struct {
	router *chi.Mux
	engine *assistant.Engine
}

func New(engine *assistant.Engine) *Server {
	s := &Server{
		router: chi.NewRouter(),
		engine: engine,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(accessLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api/ai", func(r chi.Router) {
		r.Post("/process_voice_command", s.handleVoiceCommand)
		r.Post("/recall", s.handleRecall)
		r.Post("/remember", s.handleRemember)
		r.Post("/confirm", s.handleConfirm)
	})
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ws", s.handleWS)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("[SERVER] Listening on %s", addr)
	return http.ListenAndServe(addr, s)
}

type voiceRequest struct {
	Text      string `json:"text"`
	UID       string `json:"uid"`
	SessionID string `json:"session_id"`
}

type confirmRequest struct {
	SessionID string `json:"session_id"`
	Accept    bool   `json:"accept"`
}

func (s *Server) handleVoiceCommand(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	res, err := s.engine.HandleUtterance(r.Context(), req.UID, req.SessionID, req.Text)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	res, err := s.engine.Recall(r.Context(), req.UID, req.Text)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRemember(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	id, err := s.engine.Remember(r.Context(), req.UID, req.Text)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "id": id})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	res, err := s.engine.Confirm(r.Context(), req.SessionID, req.Accept)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, assistant.Result{
			Action: assistant.ActionReply,
			Reply:  "Sorry, I couldn't understand that request.",
			Intent: "error",
		})
		return false
	}
	return true
}

// writeFailure reports an internal error as a spoken-style reply so voice
// clients always have something to say.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("[SERVER] %s %s failed: %v", r.Method, r.URL.Path, err)
	writeJSON(w, http.StatusInternalServerError, assistant.Result{
		Action: assistant.ActionReply,
		Reply:  "Sorry, something went wrong. Please try again.",
		Intent: "error",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[SERVER] Response write failed: %v", err)
	}
}

func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			log.Printf("[HTTP] %s %s %d %dB %s", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
		}()
		next.ServeHTTP(ww, r)
	})
}
