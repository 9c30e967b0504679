package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"legalmind/internal/app"
	"legalmind/internal/ratelimit"
	"legalmind/internal/util"
)

const (
	documentDateLayout = "Jan 02, 2006"
	historyDateLayout  = "Jan 02, 2006, 03:04 PM"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                *app.App
	MaxUploadBytes     int64
	AllowedOrigins     []string
	TrustedProxies     *util.TrustedProxies
	RedisAddr          string
	RedisPassword      string
	RateLimitPerMinute int
}

// Server exposes the HTTP endpoints of the analysis backend.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	maxUploadBytes int64
	allowedOrigins []string
	trustedProxies *util.TrustedProxies
	limiter        *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. A rate limiter guards the
// two model-invoking endpoints when rateLimitPerMinute is set.
func New(cfg Config) (*Server, error) {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
		allowedOrigins: cfg.AllowedOrigins,
		trustedProxies: cfg.TrustedProxies,
	}
	if cfg.RateLimitPerMinute > 0 {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "legalmind:ratelimit", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init rate limiter: %w", err)
		}
		s.limiter = limiter
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/simplify", s.handleSimplify)
	s.mux.HandleFunc("/ask", s.handleAsk)
	s.mux.HandleFunc("/documents", s.handleListDocuments)
	s.mux.HandleFunc("/history", s.handleListHistory)
	s.mux.HandleFunc("/document/", s.handleDocumentByID)
}

// GET / doubles as the liveness probe.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "LegalMind AI Backend is running.",
	})
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many analysis requests, slow down") {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("pdfFile")
	if err != nil {
		writeError(w, http.StatusBadRequest, "pdfFile is required (field: pdfFile)")
		return
	}
	defer file.Close()
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read uploaded file")
		return
	}

	result, err := s.app.Simplify(r.Context(), fileBytes, header.Filename, r.FormValue("model"), r.FormValue("prompt"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"summary":       result.Summary,
		"document_text": result.DocumentText,
	})
}

type askRequest struct {
	DocumentText string `json:"document_text"`
	Question     string `json:"question"`
	Model        string `json:"model"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many questions, slow down") {
		return
	}
	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	answer, err := s.app.Ask(r.Context(), req.DocumentText, req.Question, req.Model)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

type documentResponse struct {
	ID         int64   `json:"id"`
	Filename   string  `json:"filename"`
	UploadDate string  `json:"upload_date"`
	Status     string  `json:"status"`
	Summary    *string `json:"summary"`
	FullText   *string `json:"full_text"`
	ModelUsed  *string `json:"model_used"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	docs, err := s.app.ListDocuments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, documentResponse{
			ID:         doc.ID,
			Filename:   doc.Filename,
			UploadDate: doc.UploadDate.Format(documentDateLayout),
			Status:     string(doc.Status),
			Summary:    nilIfEmpty(doc.Summary),
			FullText:   nilIfEmpty(doc.FullText),
			ModelUsed:  nilIfEmpty(doc.ModelUsed),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type historyResponse struct {
	ID           int64  `json:"id"`
	EventType    string `json:"event_type"`
	DocumentName string `json:"document_name"`
	Timestamp    string `json:"timestamp"`
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	events, err := s.app.ListHistory()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]historyResponse, 0, len(events))
	for _, event := range events {
		items = append(items, historyResponse{
			ID:           event.ID,
			EventType:    string(event.EventType),
			DocumentName: event.DocumentName,
			Timestamp:    event.Timestamp.Format(historyDateLayout),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// DELETE /document/{id}
func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	rawID := strings.TrimPrefix(r.URL.Path, "/document/")
	if rawID == "" || strings.Contains(rawID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	filename, err := s.app.DeleteDocument(id)
	if err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Document '%s' deleted.", filename),
	})
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, msg string) bool {
	if s.limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if s.limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

// writeAppError translates workflow errors into sanitized HTTP responses.
// Raw provider errors live in the stored summary, not in the response body.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrExtractionFailed):
		writeError(w, http.StatusBadRequest, "Could not extract text from PDF.")
	case errors.Is(err, app.ErrModelInvocationFailed):
		writeError(w, http.StatusInternalServerError, "The analysis service is currently unavailable. Please try again later.")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
