package domain

import "time"

type DocumentStatus string

const (
	StatusPending        DocumentStatus = "Pending"
	StatusInProgress     DocumentStatus = "In Progress"
	StatusAnalyzed       DocumentStatus = "Analyzed"
	StatusAnalysisFailed DocumentStatus = "Analysis Failed"
)

type EventType string

const (
	EventUploadSuccess   EventType = "UPLOAD_SUCCESS"
	EventTextExtractFail EventType = "TEXT_EXTRACT_FAIL"
	EventAnalysisSuccess EventType = "ANALYSIS_SUCCESS"
	EventAnalysisFail    EventType = "ANALYSIS_FAIL"
	EventDeleteDocument  EventType = "DELETE_DOCUMENT"
)

// Document is one analysis attempt for one uploaded file. Summary, FullText
// and ModelUsed use "" for not-yet-set; the HTTP layer renders those as null.
type Document struct {
	ID         int64          `json:"id"`
	Filename   string         `json:"filename"`
	UploadDate time.Time      `json:"uploadDate"`
	Status     DocumentStatus `json:"status"`
	Summary    string         `json:"summary,omitempty"`
	FullText   string         `json:"fullText,omitempty"`
	ModelUsed  string         `json:"modelUsed,omitempty"`
}

// HistoryEvent is an append-only audit entry. DocumentName is a plain string,
// not a foreign key, so history survives document deletion.
type HistoryEvent struct {
	ID           int64     `json:"id"`
	EventType    EventType `json:"eventType"`
	DocumentName string    `json:"documentName"`
	Timestamp    time.Time `json:"timestamp"`
}
