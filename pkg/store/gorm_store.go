package store

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"legalmind/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	// Render and friends hand out postgres:// URLs; the driver wants postgresql://.
	if strings.HasPrefix(dsn, "postgres://") {
		dsn = "postgresql://" + strings.TrimPrefix(dsn, "postgres://")
	}
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&DocumentModel{}, &HistoryEventModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateDocument inserts a new document row and returns its assigned id.
func (s *GormStore) CreateDocument(doc domain.Document) (int64, error) {
	model := documentToModel(doc)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// GetDocument retrieves a document by id.
func (s *GormStore) GetDocument(id int64) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// SetResult updates status and summary for a row by id.
func (s *GormStore) SetResult(id int64, status domain.DocumentStatus, summary string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&DocumentModel{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":  string(status),
				"summary": summary,
			}).Error
	})
}

// DeleteDocument removes a row. Returns false when the id is unknown.
func (s *GormStore) DeleteDocument(id int64) (bool, error) {
	var deleted bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&DocumentModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// ListDocuments returns all documents, newest upload first.
func (s *GormStore) ListDocuments() ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Order("upload_date DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, m := range models {
		res = append(res, documentFromModel(m))
	}
	return res, nil
}

// RecordEvent appends an immutable history entry with a server-assigned timestamp.
func (s *GormStore) RecordEvent(eventType domain.EventType, documentName string) error {
	model := HistoryEventModel{
		EventType:    string(eventType),
		DocumentName: documentName,
		Timestamp:    time.Now().UTC(),
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
}

// ListEvents returns all history entries, newest first.
func (s *GormStore) ListEvents() ([]domain.HistoryEvent, error) {
	var models []HistoryEventModel
	if err := s.db.Order("timestamp DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.HistoryEvent, 0, len(models))
	for _, m := range models {
		res = append(res, eventFromModel(m))
	}
	return res, nil
}

func documentToModel(d domain.Document) DocumentModel {
	return DocumentModel{
		ID:         d.ID,
		Filename:   d.Filename,
		UploadDate: d.UploadDate,
		Status:     string(d.Status),
		Summary:    nullable(d.Summary),
		FullText:   nullable(d.FullText),
		ModelUsed:  nullable(d.ModelUsed),
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:         m.ID,
		Filename:   m.Filename,
		UploadDate: m.UploadDate,
		Status:     domain.DocumentStatus(m.Status),
		Summary:    deref(m.Summary),
		FullText:   deref(m.FullText),
		ModelUsed:  deref(m.ModelUsed),
	}
}

func eventFromModel(m HistoryEventModel) domain.HistoryEvent {
	return domain.HistoryEvent{
		ID:           m.ID,
		EventType:    domain.EventType(m.EventType),
		DocumentName: m.DocumentName,
		Timestamp:    m.Timestamp,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
