package models

import (
	"fmt"
	"strings"
	"time"
)

// SourceType tags which external store a SourceRef points into.
type SourceType string

const (
	SourcePaper SourceType = "paper"
	SourceBlog  SourceType = "blog"
)

// ParseSourceType normalises user input into a SourceType.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourcePaper:
		return SourcePaper, nil
	case SourceBlog:
		return SourceBlog, nil
	}
	return "", fmt.Errorf("unknown source type %q", s)
}

// SourceRef identifies an externally owned document by kind and numeric id.
type SourceRef struct {
	Type SourceType `json:"sourceType"`
	ID   int64      `json:"sourceId"`
}

func PaperRef(id int64) SourceRef { return SourceRef{Type: SourcePaper, ID: id} }
func BlogRef(id int64) SourceRef  { return SourceRef{Type: SourceBlog, ID: id} }

func (r SourceRef) String() string {
	return fmt.Sprintf("%s/%d", r.Type, r.ID)
}

// SourceDocument is a paper or blog row as seen by the report pipeline.
type SourceDocument struct {
	ID         int64      `db:"id" json:"id"`
	SourceType SourceType `db:"-" json:"sourceType"`
	Title      string     `db:"title" json:"title"`
	Content    string     `db:"content" json:"content"`   // stored text, used as streaming context
	FilePath   string     `db:"file_path" json:"filePath"` // relative to the upload root or an object key
}

func (d *SourceDocument) Ref() SourceRef {
	return SourceRef{Type: d.SourceType, ID: d.ID}
}

// Report is the persisted result of one synchronous generation call.
// Rows are written once and never updated.
type Report struct {
	ID          string     `db:"id" json:"id"`
	SourceType  SourceType `db:"source_type" json:"sourceType"`
	SourceID    int64      `db:"source_id" json:"sourceId"`
	Content     string     `db:"content" json:"content"`
	ArchivePath *string    `db:"archive_path" json:"archivePath"` // nil when archival rendering failed
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// ReportPage is one window over a report's paragraphs.
type ReportPage struct {
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
	Content    []string `json:"content"`
}

// Stream event names as seen by listeners.
const (
	EventChunk    = "chunk"
	EventComplete = "complete"
	EventFailed   = "failed"
)

// StreamEvent is one message relayed to stream listeners.
type StreamEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// Terminal reports whether no further events follow this one.
func (e StreamEvent) Terminal() bool {
	return e.Event == EventComplete || e.Event == EventFailed
}
