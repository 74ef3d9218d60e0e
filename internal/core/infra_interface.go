package core

import (
	"context"

	"github.com/markdave123-py/Paperlens/internal/models"
)

// SourceRepository resolves papers and blogs owned by the document subsystem.
type SourceRepository interface {
	FindSource(ctx context.Context, ref models.SourceRef) (*models.SourceDocument, error)
}

// ReportRepository persists reports. It is append-only: there is no update path.
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
}

// FileStore reads the binary artifact behind a source record.
type FileStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// ArchiveRenderer produces the fixed-layout copy of a report.
type ArchiveRenderer interface {
	Render(title, content string) ([]byte, error)
}

// ArchiveSink stores rendered archives and returns where they were written.
type ArchiveSink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// ObjectClient is the bucket-bound object storage used for source files and
// archives. Reports are append-only, so there is no delete.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}
