package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/markdave123-py/Paperlens/internal/core"
)

var _ core.ArchiveRenderer = (*PDFRenderer)(nil)

// PDFRenderer lays report text out on A4 pages in a monospace core font.
// Characters outside cp1252 are replaced, so any UTF-8 input renders.
type PDFRenderer struct {
	FontSize   float64
	LineHeight float64
	Margin     float64
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{FontSize: 10, LineHeight: 5, Margin: 15}
}

func (r *PDFRenderer) Render(title, content string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(r.Margin, r.Margin, r.Margin)
	pdf.SetAutoPageBreak(true, r.Margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("paperlens", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-r.Margin + 5)
		pdf.SetFont("Courier", "", 8)
		pdf.CellFormat(0, 4, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Courier", "B", r.FontSize+2)
		pdf.MultiCell(0, r.LineHeight+1, tr(title), "", "L", false)
		pdf.Ln(r.LineHeight)
	}

	pdf.SetFont("Courier", "", r.FontSize)
	body := strings.ReplaceAll(content, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\t", "    ")
	pdf.MultiCell(0, r.LineHeight, tr(body), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrArchiveRender, err)
	}
	return buf.Bytes(), nil
}
