package store

import "time"

// GORM models used for persistence.
type DocumentModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Filename   string    `gorm:"size:300;not null"`
	UploadDate time.Time `gorm:"not null;index"`
	Status     string    `gorm:"size:50;not null"`
	Summary    *string   `gorm:"type:text"`
	FullText   *string   `gorm:"type:text"`
	ModelUsed  *string   `gorm:"size:100"`
}

type HistoryEventModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	EventType    string    `gorm:"size:100;not null"`
	DocumentName string    `gorm:"size:300;not null"`
	Timestamp    time.Time `gorm:"not null;index"`
}
