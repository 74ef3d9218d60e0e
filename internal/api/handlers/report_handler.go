package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/core/reports"
	"github.com/markdave123-py/Paperlens/internal/models"
)

// ReportReader serves stored reports.
type ReportReader interface {
	CreateFromContent(ctx context.Context, ref models.SourceRef, content string) (*models.Report, error)
	GetPage(ctx context.Context, id string, page, pageSize int) (models.ReportPage, error)
}

// ReportAPI is everything the HTTP surface needs from the report pipeline.
type ReportAPI interface {
	Asker
	ReportReader
}

type ReportHandler struct {
	reports ReportReader
	logger  *zap.Logger
}

func NewReportHandler(reports ReportReader, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

type CreateReportRequest struct {
	SourceType string `json:"sourceType"`
	SourceID   int64  `json:"sourceId"`
	Content    string `json:"content"`
}

// Create stores caller-supplied content as a report.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	ref, err := sourceRef(req.SourceType, req.SourceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	report, err := h.reports.CreateFromContent(r.Context(), ref, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// GetPage returns GET /reports/{id}?page=1&pageSize=1.
func (h *ReportHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", reports.DefaultPageSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out, err := h.reports.GetPage(r.Context(), chi.URLParam(r, "id"), page, pageSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", core.ErrInvalidInput, key, v)
	}
	return n, nil
}
