package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/core/extraction"
	"github.com/markdave123-py/Paperlens/internal/core/reports"
	"github.com/markdave123-py/Paperlens/internal/models"
)

// ReportService runs the synchronous ask pipeline and serves paginated reads.
type ReportService struct {
	sources   core.SourceRepository
	files     core.FileStore
	extractor core.TextExtractor
	generator core.Generator
	reports   core.ReportRepository
	renderer  core.ArchiveRenderer
	sink      core.ArchiveSink
	segmenter reports.Segmenter
	logger    *zap.Logger
	now       func() time.Time
}

// ReportDeps groups the collaborators of ReportService.
type ReportDeps struct {
	Sources   core.SourceRepository
	Files     core.FileStore
	Extractor core.TextExtractor
	Generator core.Generator
	Reports   core.ReportRepository
	Renderer  core.ArchiveRenderer
	Sink      core.ArchiveSink
	Segmenter reports.Segmenter // defaults to NumberedListSegmenter
	Logger    *zap.Logger
}

func NewReportService(d ReportDeps) *ReportService {
	if d.Segmenter == nil {
		d.Segmenter = reports.NumberedListSegmenter{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &ReportService{
		sources:   d.Sources,
		files:     d.Files,
		extractor: d.Extractor,
		generator: d.Generator,
		reports:   d.Reports,
		renderer:  d.Renderer,
		sink:      d.Sink,
		segmenter: d.Segmenter,
		logger:    d.Logger,
		now:       time.Now,
	}
}

// Ask resolves the source, extracts its file, asks the generator and persists
// the answer as a new report. No report is written unless generation succeeds.
func (s *ReportService) Ask(ctx context.Context, ref models.SourceRef, question string) (*models.Report, error) {
	doc, err := s.sources.FindSource(ctx, ref)
	if err != nil {
		return nil, err
	}

	text, err := extractSource(ctx, s.files, s.extractor, doc)
	if err != nil {
		return nil, err
	}

	answer, err := s.generator.Complete(ctx, question, text)
	if err != nil {
		return nil, err
	}

	return s.persist(ctx, doc, answer)
}

// CreateFromContent stores caller-supplied content as a report for an existing source.
func (s *ReportService) CreateFromContent(ctx context.Context, ref models.SourceRef, content string) (*models.Report, error) {
	doc, err := s.sources.FindSource(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, doc, content)
}

// GetPage segments a stored report and returns one page of paragraphs.
func (s *ReportService) GetPage(ctx context.Context, id string, page, pageSize int) (models.ReportPage, error) {
	if page < 1 || pageSize < 1 {
		return models.ReportPage{}, fmt.Errorf("%w: page and pageSize must be >= 1", core.ErrInvalidInput)
	}
	r, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return models.ReportPage{}, err
	}
	return reports.Paginate(s.segmenter.Segment(r.Content), page, pageSize)
}

func (s *ReportService) persist(ctx context.Context, doc *models.SourceDocument, content string) (*models.Report, error) {
	report := &models.Report{
		ID:         uuid.NewString(),
		SourceType: doc.SourceType,
		SourceID:   doc.ID,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}

	if path, err := s.archive(ctx, doc, report); err != nil {
		s.logger.Warn("archive rendering skipped",
			zap.String("report_id", report.ID),
			zap.Stringer("source", doc.Ref()),
			zap.Error(err))
	} else {
		report.ArchivePath = &path
	}

	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	s.logger.Info("report created",
		zap.String("report_id", report.ID),
		zap.Stringer("source", doc.Ref()),
		zap.Int("bytes", len(content)),
		zap.Bool("archived", report.ArchivePath != nil))
	return report, nil
}

// archive renders and stores the fixed-layout copy. Every failure is reported
// as ErrArchiveRender.
func (s *ReportService) archive(ctx context.Context, doc *models.SourceDocument, r *models.Report) (string, error) {
	if s.renderer == nil || s.sink == nil {
		return "", fmt.Errorf("%w: no archive backend configured", core.ErrArchiveRender)
	}
	data, err := s.renderer.Render(doc.Title, r.Content)
	if err != nil {
		return "", wrapArchive(err)
	}
	name := fmt.Sprintf("%d_%s_report.pdf", r.CreatedAt.UnixMilli(), r.ID)
	path, err := s.sink.Save(ctx, name, data)
	if err != nil {
		return "", wrapArchive(err)
	}
	return path, nil
}

func wrapArchive(err error) error {
	if errors.Is(err, core.ErrArchiveRender) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrArchiveRender, err)
}

// extractSource confirms the source file exists and extracts its text.
func extractSource(ctx context.Context, files core.FileStore, extractor core.TextExtractor, doc *models.SourceDocument) (string, error) {
	if doc.FilePath == "" {
		return "", fmt.Errorf("%w: %s has no file path", core.ErrFileMissing, doc.Ref())
	}
	ok, err := files.Exists(ctx, doc.FilePath)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", doc.FilePath, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrFileMissing, doc.FilePath)
	}

	data, err := files.Read(ctx, doc.FilePath)
	if err != nil {
		return "", err
	}
	return extractor.Extract(ctx, data, extraction.ContentTypeFor(doc.FilePath))
}
