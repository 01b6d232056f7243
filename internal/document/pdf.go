package document

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/entity"
)

// PDFDocument is a parsed attendance manifest. Text is recovered from the
// page content streams; tables are reconstructed from the text lines, which
// is as close as a text-layer read gets to the source report's cell grid.
type PDFDocument struct {
	text   string
	tables []entity.Table
}

// ParsePDF reads and validates the PDF container and extracts the text of
// every page in document order. A byte stream that is not a well-formed PDF
// fails with a document-format error.
func ParsePDF(data []byte) (*PDFDocument, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, common.DocumentFormatErrorf("pdfcpu read: %v", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageText := extractPageText(ctx, pageNr)
		if pageText == "" {
			continue
		}
		pages = append(pages, pageText)
	}

	text := strings.Join(pages, "\n")
	return &PDFDocument{
		text:   text,
		tables: tablesFromPages(pages),
	}, nil
}

// Text returns the document's plain text, pages joined with newlines. Empty
// when the PDF carries no text layer.
func (d *PDFDocument) Text() string { return d.text }

// Tables returns the reconstructed cell grids, one per page that yielded
// tabular lines.
func (d *PDFDocument) Tables() []entity.Table { return d.tables }

// extractPageText extracts text from a single page via the pdfcpu content
// stream.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream scans content-stream operators for shown text.
// Tj/TJ append to the current line, ' and T* start a new line, Td/TD add a
// cell gap so adjacent positioned strings do not run together.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	appendLiterals := func(line []byte) {
		for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
			if text := decodePDFString(m[1]); text != "" {
				sb.WriteString(text)
			}
		}
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			appendLiterals(line)
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			appendLiterals(line)
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteString("  ")
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return strings.TrimSpace(sb.String())
}

// decodePDFString resolves the escape sequences of a PDF literal string.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(raw) {
			break
		}
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '(', ')', '\\':
			sb.WriteByte(raw[i])
		case '0', '1', '2', '3', '4', '5', '6', '7':
			// octal escape, up to three digits
			v := int(raw[i] - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				v = v*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(v))
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

var cellGapRe = regexp.MustCompile(`\s{2,}`)

// tablesFromPages rebuilds cell grids from page text: a line that splits into
// two or more fields on wide gaps is a table row, consecutive such lines form
// one table. Single-field lines (headings, footers) break tables apart.
func tablesFromPages(pages []string) []entity.Table {
	var tables []entity.Table
	for _, page := range pages {
		var current entity.Table
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			cells := splitTableLine(line)
			if len(cells) < 2 {
				if len(current) > 0 {
					tables = append(tables, current)
					current = nil
				}
				continue
			}
			current = append(current, cells)
		}
		if len(current) > 0 {
			tables = append(tables, current)
		}
	}
	return tables
}

// splitTableLine cuts a text line into cells on runs of two or more spaces.
func splitTableLine(line string) []string {
	if line == "" {
		return nil
	}
	parts := cellGapRe.Split(line, -1)
	cells := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}
