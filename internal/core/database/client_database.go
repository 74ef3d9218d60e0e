package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/markdave123-py/Paperlens/internal/config"
	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/models"
)

var _ DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db      *sql.DB
	dialect dialect
}

// sourceTables dispatches a SourceType to the table that owns it.
var sourceTables = map[models.SourceType]string{
	models.SourcePaper: "papers",
	models.SourceBlog:  "blogs",
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}

	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is empty")
		}
		db, err := sql.Open(postgresDialect.driver, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}

		// Sensible pool settings for an API service; adjust as needed.
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetConnMaxIdleTime(10 * time.Minute)

		logger.Info("opening postgres store")
		return open(ctx, db, postgresDialect)
	case "sqlite":
		logger.Info("opening sqlite store", zap.String("path", cfg.SqlitePath))
		return OpenSQLite(ctx, cfg.SqlitePath)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*DatabaseClient, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open(sqliteDialect.driver, path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return open(ctx, db, sqliteDialect)
}

func open(ctx context.Context, db *sql.DB, d dialect) (*DatabaseClient, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// Ensure bootstrap once
	if err := EnsureBootstrapped(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db, dialect: d}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Source lookup

func (c *DatabaseClient) FindSource(ctx context.Context, ref models.SourceRef) (*models.SourceDocument, error) {
	table, ok := sourceTables[ref.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown source type %q", core.ErrInvalidInput, ref.Type)
	}

	q := c.dialect.rebind(`SELECT id, title, content, file_path FROM ` + table + ` WHERE id = ?`)
	var (
		d       models.SourceDocument
		content sql.NullString
	)
	err := c.db.QueryRowContext(ctx, q, ref.ID).Scan(&d.ID, &d.Title, &content, &d.FilePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	d.SourceType = ref.Type
	d.Content = content.String
	return &d, nil
}

// Reports

func (c *DatabaseClient) CreateReport(ctx context.Context, r *models.Report) error {
	if r == nil {
		return errors.New("nil report")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	q := c.dialect.rebind(`
		INSERT INTO reports (id, source_type, source_id, content, archive_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	var archive sql.NullString
	if r.ArchivePath != nil {
		archive = sql.NullString{String: *r.ArchivePath, Valid: true}
	}
	if _, err := c.db.ExecContext(ctx, q,
		r.ID, string(r.SourceType), r.SourceID, r.Content, archive, r.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (c *DatabaseClient) GetReport(ctx context.Context, id string) (*models.Report, error) {
	q := c.dialect.rebind(`
		SELECT id, source_type, source_id, content, archive_path, created_at
		FROM reports WHERE id = ?
	`)
	r, err := scanReport(c.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return r, nil
}

func (c *DatabaseClient) ListReportsBySource(ctx context.Context, ref models.SourceRef) ([]models.Report, error) {
	q := c.dialect.rebind(`
		SELECT id, source_type, source_id, content, archive_path, created_at
		FROM reports
		WHERE source_type = ? AND source_id = ?
		ORDER BY created_at DESC
	`)
	rows, err := c.db.QueryContext(ctx, q, string(ref.Type), ref.ID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(s rowScanner) (*models.Report, error) {
	var (
		r          models.Report
		sourceType string
		archive    sql.NullString
		createdAt  sql.NullTime
	)
	if err := s.Scan(&r.ID, &sourceType, &r.SourceID, &r.Content, &archive, &createdAt); err != nil {
		return nil, err
	}
	r.SourceType = models.SourceType(sourceType)
	if archive.Valid {
		p := archive.String
		r.ArchivePath = &p
	}
	if createdAt.Valid {
		r.CreatedAt = createdAt.Time.UTC()
	}
	return &r, nil
}
