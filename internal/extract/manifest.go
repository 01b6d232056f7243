package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/mi4u/lembrete-api/internal/document"
	"github.com/mi4u/lembrete-api/internal/entity"
)

// manifestColumns is the fixed column set of the attendance manifest. Wider
// extracted rows are truncated to it; columns beyond these are discarded.
const manifestColumns = 11

// patientColumnLabel is the manifest's repeated header text in the patient
// name column.
const patientColumnLabel = "Nome Paciente"

// Header field patterns, searched independently over the full document text.
// A pattern that does not match leaves its field empty; header recovery never
// fails the parse.
var (
	manifestUnitRe         = regexp.MustCompile(`Unidade de Saúde\s+(.*)`)
	manifestDateRe         = regexp.MustCompile(`Data Atendimento\s+(\d{2}/\d{2}/\d{4})`)
	manifestProfessionalRe = regexp.MustCompile(`Profissional:\s+(.*?)\s+CRM[:\s]*(\d+)`)
	manifestSpecialtyRe    = regexp.MustCompile(`Especialidade:\s+(.*)`)
)

// ParseManifestHeader recovers the manifest header block from the document's
// full text.
func ParseManifestHeader(text string) entity.HeaderBlock {
	var header entity.HeaderBlock

	if m := manifestUnitRe.FindStringSubmatch(text); m != nil {
		header.Unit = strings.TrimSpace(m[1])
	}
	if m := manifestDateRe.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse("02/01/2006", m[1]); err == nil {
			header.DocumentDate = &d
		}
	}
	if m := manifestProfessionalRe.FindStringSubmatch(text); m != nil {
		header.Professional = strings.TrimSpace(m[1])
		header.LicenseID = strings.TrimSpace(m[2])
	}
	if m := manifestSpecialtyRe.FindStringSubmatch(text); m != nil {
		header.Specialty = strings.TrimSpace(m[1])
	}

	return header
}

// ParseManifestRows flattens every extracted table into one matrix aligned to
// the eleven manifest columns and yields a raw patient row per data row. A
// repeated literal header row at the top is dropped. If no extracted row
// reaches the expected width the table layout did not survive extraction and
// no rows are produced.
func ParseManifestRows(doc document.Access) []entity.PatientRow {
	var matrix [][]string
	width := 0
	for _, table := range doc.Tables() {
		for _, row := range table {
			clean := cleanRow(row)
			if clean == nil {
				continue
			}
			if len(clean) > width {
				width = len(clean)
			}
			matrix = append(matrix, clean)
		}
	}

	if width < manifestColumns {
		return nil
	}

	var rows []entity.PatientRow
	for i, row := range matrix {
		cells := alignRow(row, manifestColumns)
		if i == 0 && cells[1] == patientColumnLabel {
			continue
		}
		rows = append(rows, entity.PatientRow{
			RecordNumber: cells[0],
			Patient:      cells[1],
			Age:          cells[2],
			CNSFragment:  cells[3],
			Phone:        cells[4],
			ScheduledAt:  cells[5],
			ReceivedAt:   cells[6],
			AttendedAt:   cells[7],
			ClosedAt:     cells[8],
			Status:       cells[9],
			Signature:    cells[10],
		})
	}
	return rows
}

// cleanRow normalizes cell text (newlines to spaces, trimmed) and drops rows
// with no content at all.
func cleanRow(row []string) []string {
	clean := make([]string, len(row))
	hasContent := false
	for i, cell := range row {
		cell = strings.TrimSpace(strings.ReplaceAll(cell, "\n", " "))
		clean[i] = cell
		if cell != "" {
			hasContent = true
		}
	}
	if !hasContent {
		return nil
	}
	return clean
}

// alignRow pads or truncates a row to the given width.
func alignRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	aligned := make([]string, width)
	copy(aligned, row)
	return aligned
}
