package db

import (
	"context"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/models"
)

// DbClient defines all persistence operations the report pipeline needs.
// It abstracts Postgres/SQLite so higher layers never depend on a specific DB.
type DbClient interface {
	core.SourceRepository
	core.ReportRepository

	ListReportsBySource(ctx context.Context, ref models.SourceRef) ([]models.Report, error)

	Close() error
}
