package reports

import (
	"fmt"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/models"
)

const DefaultPageSize = 1

// Paginate returns paragraphs [(page-1)*pageSize, page*pageSize). Pages past
// the end come back with empty content rather than an error.
func Paginate(paragraphs []string, page, pageSize int) (models.ReportPage, error) {
	if page < 1 {
		return models.ReportPage{}, fmt.Errorf("%w: page must be >= 1, got %d", core.ErrInvalidInput, page)
	}
	if pageSize < 1 {
		return models.ReportPage{}, fmt.Errorf("%w: pageSize must be >= 1, got %d", core.ErrInvalidInput, pageSize)
	}

	n := len(paragraphs)
	total := n / pageSize
	if n%pageSize != 0 {
		total++
	}

	content := []string{}
	if page-1 < total {
		start := (page - 1) * pageSize
		end := start + min(pageSize, n-start)
		content = append(content, paragraphs[start:end]...)
	}

	return models.ReportPage{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: total,
		Content:    content,
	}, nil
}
