package store

import "legalmind/pkg/domain"

// Store defines persistence operations for documents and the audit history.
type Store interface {
	// documents
	CreateDocument(doc domain.Document) (int64, error)
	GetDocument(id int64) (domain.Document, bool, error)
	// SetResult applies the single terminal transition for a row that was
	// created In Progress. The row is addressed by id only; callers never
	// hold the row across the model call.
	SetResult(id int64, status domain.DocumentStatus, summary string) error
	DeleteDocument(id int64) (bool, error)
	ListDocuments() ([]domain.Document, error)

	// history
	RecordEvent(eventType domain.EventType, documentName string) error
	ListEvents() ([]domain.HistoryEvent, error)
}
