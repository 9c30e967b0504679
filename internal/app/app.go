package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legalmind/pkg/ai"
	"legalmind/pkg/domain"
	"legalmind/pkg/store"
)

// extractionFailedSummary is persisted verbatim on documents whose PDF
// yielded no usable text.
const extractionFailedSummary = "Could not extract text from PDF."

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL  string
	Store        store.Store
	GeminiAPIKey string
	ModelTimeout time.Duration

	// Generator and Extractor default to the Gemini client and the PDF
	// extractor; tests substitute fakes through them.
	Generator ai.TextGenerator
	Extractor func([]byte) (string, error)
}

// App is the core application service wiring together storage, extraction and
// the model client.
type App struct {
	store     store.Store
	generator ai.TextGenerator
	extract   func([]byte) (string, error)
}

// New constructs the application with database-backed storage for documents
// and history.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	generator := cfg.Generator
	if generator == nil {
		gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey, ai.WithTimeout(cfg.ModelTimeout))
		if err != nil {
			return nil, err
		}
		generator = gemini
	}
	extract := cfg.Extractor
	if extract == nil {
		extract = extractPDFText
	}
	return &App{
		store:     dataStore,
		generator: generator,
		extract:   extract,
	}, nil
}

// SimplifyResult is the payload returned for a successful analysis.
type SimplifyResult struct {
	Summary      string
	DocumentText string
}

// Simplify runs the document-processing workflow: extract text, persist the
// attempt, invoke the model once, and persist the terminal outcome. Every
// submission leaves exactly one document row behind, success or not, and
// there is no retry path.
func (a *App) Simplify(ctx context.Context, fileBytes []byte, filename, modelID, instruction string) (SimplifyResult, error) {
	if len(fileBytes) == 0 {
		return SimplifyResult{}, fmt.Errorf("%w: pdfFile is required", ErrInvalidRequest)
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return SimplifyResult{}, fmt.Errorf("%w: filename is required", ErrInvalidRequest)
	}
	model := ai.NormalizeModel(modelID)
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = defaultInstruction
	}

	text, err := a.extract(fileBytes)
	if err != nil || strings.TrimSpace(text) == "" {
		if _, createErr := a.store.CreateDocument(domain.Document{
			Filename:   filename,
			UploadDate: time.Now().UTC(),
			Status:     domain.StatusAnalysisFailed,
			Summary:    extractionFailedSummary,
		}); createErr != nil {
			return SimplifyResult{}, fmt.Errorf("save document: %w", createErr)
		}
		if recordErr := a.store.RecordEvent(domain.EventTextExtractFail, filename); recordErr != nil {
			return SimplifyResult{}, fmt.Errorf("record event: %w", recordErr)
		}
		return SimplifyResult{}, ErrExtractionFailed
	}

	if err := a.store.RecordEvent(domain.EventUploadSuccess, filename); err != nil {
		return SimplifyResult{}, fmt.Errorf("record event: %w", err)
	}
	id, err := a.store.CreateDocument(domain.Document{
		Filename:   filename,
		UploadDate: time.Now().UTC(),
		Status:     domain.StatusInProgress,
		FullText:   text,
		ModelUsed:  model,
	})
	if err != nil {
		return SimplifyResult{}, fmt.Errorf("save document: %w", err)
	}

	// Only the row id crosses the model-call boundary; the terminal update
	// goes back through the store by id.
	summary, genErr := a.generator.GenerateText(ctx, model, "", buildAnalysisPrompt(text, instruction))
	if genErr != nil {
		failure := fmt.Sprintf("Analysis failed: %v", genErr)
		if err := a.store.SetResult(id, domain.StatusAnalysisFailed, failure); err != nil {
			return SimplifyResult{}, fmt.Errorf("save failure result: %w", err)
		}
		if err := a.store.RecordEvent(domain.EventAnalysisFail, filename); err != nil {
			return SimplifyResult{}, fmt.Errorf("record event: %w", err)
		}
		return SimplifyResult{}, fmt.Errorf("%w: %v", ErrModelInvocationFailed, genErr)
	}

	if err := a.store.SetResult(id, domain.StatusAnalyzed, summary); err != nil {
		return SimplifyResult{}, fmt.Errorf("save result: %w", err)
	}
	if err := a.store.RecordEvent(domain.EventAnalysisSuccess, filename); err != nil {
		return SimplifyResult{}, fmt.Errorf("record event: %w", err)
	}
	return SimplifyResult{Summary: summary, DocumentText: text}, nil
}

// Ask answers a follow-up question against caller-supplied document text.
// It is fully stateless: no document row, no history event, regardless of
// outcome.
func (a *App) Ask(ctx context.Context, documentText, question, modelID string) (string, error) {
	if strings.TrimSpace(documentText) == "" {
		return "", fmt.Errorf("%w: document_text is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	answer, err := a.generator.GenerateText(ctx, ai.NormalizeModel(modelID), "", buildQAPrompt(documentText, question))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
	}
	return answer, nil
}

// DeleteDocument removes a document row, then records the audit event keyed
// by the deleted filename. Unknown ids record nothing. Returns the deleted
// filename.
func (a *App) DeleteDocument(id int64) (string, error) {
	doc, ok, err := a.store.GetDocument(id)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	if !ok {
		return "", ErrDocumentNotFound
	}
	deleted, err := a.store.DeleteDocument(id)
	if err != nil {
		return "", fmt.Errorf("delete document: %w", err)
	}
	if !deleted {
		return "", ErrDocumentNotFound
	}
	if err := a.store.RecordEvent(domain.EventDeleteDocument, doc.Filename); err != nil {
		return "", fmt.Errorf("record event: %w", err)
	}
	return doc.Filename, nil
}

// ListDocuments returns all documents, newest upload first.
func (a *App) ListDocuments() ([]domain.Document, error) {
	docs, err := a.store.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// ListHistory returns all audit events, newest first.
func (a *App) ListHistory() ([]domain.HistoryEvent, error) {
	events, err := a.store.ListEvents()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return events, nil
}
