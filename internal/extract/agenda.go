// Package extract recovers raw agenda and manifest rows from parsed
// documents. The field positions and placeholder labels in here encode the
// layout contract of the legacy exports; deviating documents fail loudly
// (structural breaks) or drop rows (table sub-headers), never guess.
package extract

import (
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/document"
	"github.com/mi4u/lembrete-api/internal/entity"
)

// Table-internal sub-header labels repeated by the agenda export. Row pairs
// carrying them are layout, not data.
const (
	agendaTimeLabel    = "Horário"
	agendaBookingLabel = "Agendamento"
)

// agendaTableAttrs marks the agenda data tables apart from layout tables.
var agendaTableAttrs = map[string]string{"cellpadding": "3", "border": "1"}

// ParseAgendaHeaders reads the bordered <center> header sections of the
// agenda export. Cell 0 carries "unit: X"; cell 1 carries the professional /
// date / specialty fields as colon-separated, newline-joined sub-lines at
// fixed positions. Sections with fewer than two cells are skipped; a section
// whose cells do not split at the expected positions is a structural failure.
func ParseAgendaHeaders(doc *document.HTMLDocument) ([]entity.HeaderBlock, error) {
	var headers []entity.HeaderBlock

	for _, cells := range doc.SectionCells(atom.Center) {
		if len(cells) < 2 {
			continue
		}

		unitParts := strings.SplitN(cells[0], ":", 2)
		if len(unitParts) < 2 {
			return nil, common.DocumentFormatErrorf("agenda header: unit cell %q has no field separator", cells[0])
		}

		info := strings.Split(cells[1], ":")
		if len(info) < 5 {
			return nil, common.DocumentFormatErrorf("agenda header: professional cell has %d fields, want 5", len(info))
		}

		headers = append(headers, entity.HeaderBlock{
			Unit:         strings.TrimSpace(unitParts[1]),
			Professional: firstLine(info[1]),
			RawDate:      firstLine(info[2]),
			Specialty:    firstLine(info[4]),
		})
	}

	return headers, nil
}

// ParseAgendaRows walks the agenda data tables and assembles appointment rows
// from row pairs: row 2k holds the appointment fields, row 2k+1 holds the
// phone list as "label: p1 | p2". Row 0 of every table is a label row. Pairs
// whose code or patient is empty or a sub-header label are skipped; an odd
// trailing row is dropped. Each produced row carries the header block at the
// same index as its table; differing header/table counts are a structural
// failure.
func ParseAgendaRows(doc *document.HTMLDocument, headers []entity.HeaderBlock) ([]entity.AppointmentRow, error) {
	tables := doc.TablesWithAttrs(agendaTableAttrs)
	if len(tables) != len(headers) {
		return nil, common.DocumentFormatErrorf("agenda: %d data tables but %d header blocks", len(tables), len(headers))
	}

	var out []entity.AppointmentRow
	for i, table := range tables {
		if len(table) == 0 {
			continue
		}
		rows := table[1:]

		for j := 0; j+1 < len(rows); j += 2 {
			dataRow, phoneRow := rows[j], rows[j+1]
			if len(dataRow) < 3 {
				return nil, common.DocumentFormatErrorf("agenda: data row with %d cells, want at least 3", len(dataRow))
			}

			code := dataRow[1]
			patient := dataRow[2]
			if code == "" || code == agendaTimeLabel || patient == "" || patient == agendaBookingLabel {
				continue
			}

			if len(phoneRow) == 0 {
				return nil, common.DocumentFormatErrorf("agenda: empty phone row below patient %q", patient)
			}
			// Only the segment between the first and second colon is the
			// phone list; stray trailing text after another colon is not.
			phoneParts := strings.Split(phoneRow[0], ":")
			if len(phoneParts) < 2 {
				return nil, common.DocumentFormatErrorf("agenda: phone cell %q has no field separator", phoneRow[0])
			}

			out = append(out, entity.AppointmentRow{
				Header:    headers[i],
				Time:      dataRow[0],
				Code:      code,
				Patient:   patient,
				Requester: dataRow[len(dataRow)-3],
				Phones:    phoneParts[1],
			})
		}
	}

	return out, nil
}

// firstLine returns the text before the first newline, trimmed.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
