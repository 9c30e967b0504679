package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"legalmind/internal/app"
	"legalmind/pkg/store"
)

type stubGenerator struct {
	response string
	err      error
}

func (g *stubGenerator) GenerateText(context.Context, string, string, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type testEnv struct {
	server  *Server
	store   *store.MemoryStore
	gen     *stubGenerator
	extract func([]byte) (string, error)
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	env := &testEnv{
		store: store.NewMemoryStore(),
		gen:   &stubGenerator{response: "the analysis"},
	}
	env.extract = func([]byte) (string, error) { return "extracted document text", nil }
	appCore, err := app.New(app.Config{
		Store:     env.store,
		Generator: env.gen,
		Extractor: func(data []byte) (string, error) { return env.extract(data) },
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	cfg.App = appCore
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	env.server = srv
	return env
}

func multipartPDF(t *testing.T, filename string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("pdfFile", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake body")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func doRequest(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestRootLiveness(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := doRequest(env, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["message"] != "LegalMind AI Backend is running." {
		t.Fatalf("message = %q", body["message"])
	}

	rec = doRequest(env, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path status = %d", rec.Code)
	}
}

func TestSimplifyEndpoint(t *testing.T) {
	env := newTestEnv(t, Config{})

	body, contentType := multipartPDF(t, "contract.pdf", map[string]string{"model": "gemini-1.5-pro"})
	req := httptest.NewRequest(http.MethodPost, "/simplify", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(env, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["summary"] != "the analysis" {
		t.Fatalf("summary = %q", resp["summary"])
	}
	if resp["document_text"] != "extracted document text" {
		t.Fatalf("document_text = %q", resp["document_text"])
	}

	// The listing reflects the persisted row with formatted upload date.
	rec = doRequest(env, httptest.NewRequest(http.MethodGet, "/documents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("documents status = %d", rec.Code)
	}
	var docs []documentResponse
	decodeBody(t, rec, &docs)
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	doc := docs[0]
	if doc.Filename != "contract.pdf" || doc.Status != "Analyzed" {
		t.Fatalf("unexpected row: %+v", doc)
	}
	if doc.Summary == nil || *doc.Summary != "the analysis" {
		t.Fatalf("summary = %v", doc.Summary)
	}
	if doc.ModelUsed == nil || *doc.ModelUsed != "gemini-1.5-pro" {
		t.Fatalf("model_used = %v", doc.ModelUsed)
	}
	if _, err := time.Parse(documentDateLayout, doc.UploadDate); err != nil {
		t.Fatalf("upload_date %q not in display format: %v", doc.UploadDate, err)
	}
}

func TestSimplifyMissingFile(t *testing.T) {
	env := newTestEnv(t, Config{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("model", "gemini-1.5-flash")
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, "/simplify", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := doRequest(env, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp["error"], "pdfFile") {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestSimplifyExtractionFailure(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.extract = func([]byte) (string, error) { return "", errors.New("no text extracted from PDF") }

	body, contentType := multipartPDF(t, "scan.pdf", nil)
	req := httptest.NewRequest(http.MethodPost, "/simplify", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(env, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["error"] != "Could not extract text from PDF." {
		t.Fatalf("error = %q", resp["error"])
	}

	// The failed attempt is still on record.
	docs, _ := env.store.ListDocuments()
	if len(docs) != 1 || docs[0].Status != "Analysis Failed" {
		t.Fatalf("unexpected persisted state: %+v", docs)
	}
}

func TestSimplifyModelFailureIsSanitized(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.gen.err = errors.New("gemini api error: key leaked secret-123")

	body, contentType := multipartPDF(t, "contract.pdf", nil)
	req := httptest.NewRequest(http.MethodPost, "/simplify", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(env, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret-123") {
		t.Fatalf("provider error leaked into response: %s", rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp["error"], "currently unavailable") {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestAskEndpoint(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.gen.response = "60 days."

	payload := `{"document_text":"contract text","question":"notice period?","model":"gemini-1.5-pro"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["answer"] != "60 days." {
		t.Fatalf("answer = %q", resp["answer"])
	}

	// /ask leaves no trace in either table.
	if docs, _ := env.store.ListDocuments(); len(docs) != 0 {
		t.Fatalf("documents = %d, want 0", len(docs))
	}
	if events, _ := env.store.ListEvents(); len(events) != 0 {
		t.Fatalf("events = %d, want 0", len(events))
	}
}

func TestAskValidationErrors(t *testing.T) {
	env := newTestEnv(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := doRequest(env, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing document_text status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	if rec := doRequest(env, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rec.Code)
	}
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	env := newTestEnv(t, Config{})

	body, contentType := multipartPDF(t, "contract.pdf", nil)
	req := httptest.NewRequest(http.MethodPost, "/simplify", body)
	req.Header.Set("Content-Type", contentType)
	if rec := doRequest(env, req); rec.Code != http.StatusOK {
		t.Fatalf("seed upload failed: %d", rec.Code)
	}

	rec := doRequest(env, httptest.NewRequest(http.MethodDelete, "/document/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["message"] != "Document 'contract.pdf' deleted." {
		t.Fatalf("message = %q", resp["message"])
	}

	events, _ := env.store.ListEvents()
	if len(events) == 0 || events[0].EventType != "DELETE_DOCUMENT" {
		t.Fatalf("newest event = %+v, want DELETE_DOCUMENT", events)
	}

	rec = doRequest(env, httptest.NewRequest(http.MethodDelete, "/document/1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d", rec.Code)
	}
	rec = doRequest(env, httptest.NewRequest(http.MethodDelete, "/document/abc", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("non-numeric id status = %d", rec.Code)
	}
	rec = doRequest(env, httptest.NewRequest(http.MethodGet, "/document/1", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rec.Code)
	}
}

func TestHistoryEndpointNewestFirst(t *testing.T) {
	env := newTestEnv(t, Config{})

	for i := 0; i < 2; i++ {
		body, contentType := multipartPDF(t, fmt.Sprintf("doc-%d.pdf", i), nil)
		req := httptest.NewRequest(http.MethodPost, "/simplify", body)
		req.Header.Set("Content-Type", contentType)
		if rec := doRequest(env, req); rec.Code != http.StatusOK {
			t.Fatalf("upload %d failed: %d", i, rec.Code)
		}
	}

	rec := doRequest(env, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var events []historyResponse
	decodeBody(t, rec, &events)
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	if events[0].EventType != "ANALYSIS_SUCCESS" || events[0].DocumentName != "doc-1.pdf" {
		t.Fatalf("newest event = %+v", events[0])
	}
	for i := 0; i < len(events)-1; i++ {
		if events[i].ID < events[i+1].ID {
			t.Fatalf("history not newest-first: %+v", events)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, Config{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/simplify"},
		{http.MethodGet, "/ask"},
		{http.MethodPost, "/documents"},
		{http.MethodPost, "/history"},
		{http.MethodPost, "/"},
	} {
		rec := doRequest(env, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s status = %d, want 405", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRateLimitOnModelEndpoints(t *testing.T) {
	mr := miniredis.RunT(t)
	env := newTestEnv(t, Config{
		RedisAddr:          mr.Addr(),
		RateLimitPerMinute: 1,
	})

	payload := `{"document_text":"text","question":"q"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:1234"
	if rec := doRequest(env, req); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:1234"
	rec := doRequest(env, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}

	// Listing endpoints are never rate limited.
	if rec := doRequest(env, httptest.NewRequest(http.MethodGet, "/documents", nil)); rec.Code != http.StatusOK {
		t.Fatalf("documents status = %d", rec.Code)
	}
}
