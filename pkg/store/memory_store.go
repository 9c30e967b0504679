package store

import (
	"sort"
	"sync"
	"time"

	"legalmind/pkg/domain"
)

// MemoryStore keeps documents and history in-process. It backs tests and
// local development; production uses GormStore.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[int64]domain.Document
	events   []domain.HistoryEvent
	nextDoc  int64
	nextEvnt int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[int64]domain.Document),
		nextDoc:  1,
		nextEvnt: 1,
	}
}

// CreateDocument stores a document and assigns the next id.
func (m *MemoryStore) CreateDocument(doc domain.Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = m.nextDoc
	m.nextDoc++
	m.docs[doc.ID] = doc
	return doc.ID, nil
}

// GetDocument retrieves a document by id.
func (m *MemoryStore) GetDocument(id int64) (domain.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	return doc, ok, nil
}

// SetResult updates status and summary for an existing row.
func (m *MemoryStore) SetResult(id int64, status domain.DocumentStatus, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil
	}
	doc.Status = status
	doc.Summary = summary
	m.docs[id] = doc
	return nil
}

// DeleteDocument removes a row, reporting whether it existed.
func (m *MemoryStore) DeleteDocument(id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	return true, nil
}

// ListDocuments returns documents newest upload first.
func (m *MemoryStore) ListDocuments() ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		res = append(res, doc)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].UploadDate.Equal(res[j].UploadDate) {
			return res[i].UploadDate.After(res[j].UploadDate)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

// RecordEvent appends a history entry with a server-assigned timestamp.
func (m *MemoryStore) RecordEvent(eventType domain.EventType, documentName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, domain.HistoryEvent{
		ID:           m.nextEvnt,
		EventType:    eventType,
		DocumentName: documentName,
		Timestamp:    time.Now().UTC(),
	})
	m.nextEvnt++
	return nil
}

// ListEvents returns history entries newest first.
func (m *MemoryStore) ListEvents() ([]domain.HistoryEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.HistoryEvent, 0, len(m.events))
	for i := len(m.events) - 1; i >= 0; i-- {
		res = append(res, m.events[i])
	}
	return res, nil
}
