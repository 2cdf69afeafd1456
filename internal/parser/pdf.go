package parser

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
)

// colGapPoints is the horizontal whitespace, in PDF points, treated as
// a column boundary when rebuilding table cells from positioned text.
const colGapPoints = 12.0

// pdfSource extracts tabular rows from text-based PDF statements. Word
// positions are grouped into lines, and gaps between words wider than
// colGapPoints become cell boundaries. Image-based or custom-encoded
// PDFs yield no usable rows and are rejected as unparsable.
type pdfSource struct{}

func (s *pdfSource) Format() domain.FileType { return domain.FileTypePDF }

func (s *pdfSource) Rows(data []byte) (header []string, rows [][]string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			header, rows = nil, nil
			err = fmt.Errorf("%w: malformed PDF: %v", domain.ErrUnparsableFile, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnparsableFile, err)
	}

	var lines [][]string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageRows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range pageRows {
			if cells := tabulate(row.Content); len(cells) > 0 {
				lines = append(lines, cells)
			}
		}
	}

	header, rows = findTable(lines)
	if header == nil {
		return nil, nil, fmt.Errorf("%w: no tabular rows detected in PDF", domain.ErrUnparsableFile)
	}
	return header, rows, nil
}

// tabulate rebuilds cells from positioned words on one visual line.
func tabulate(words []pdf.Text) []string {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(words))
	copy(sorted, words)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var cell strings.Builder
	lastEnd := sorted[0].X

	for i, w := range sorted {
		if i > 0 && w.X-lastEnd > colGapPoints {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		} else if i > 0 {
			cell.WriteByte(' ')
		}
		cell.WriteString(w.S)
		lastEnd = w.X + w.W
	}
	if cell.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}
	return cells
}

// findTable locates the statement table: the first line with at least
// two cells, one of which mentions a date column, becomes the header;
// the table is every following multi-cell line.
func findTable(lines [][]string) ([]string, [][]string) {
	for i, line := range lines {
		if len(line) < 2 || !looksLikeHeader(line) {
			continue
		}
		var rows [][]string
		for _, candidate := range lines[i+1:] {
			if len(candidate) >= 2 {
				rows = append(rows, candidate)
			}
		}
		if len(rows) > 0 {
			return line, rows
		}
	}
	return nil, nil
}

func looksLikeHeader(cells []string) bool {
	for _, c := range cells {
		if strings.Contains(strings.ToLower(c), "date") {
			return true
		}
	}
	return false
}
