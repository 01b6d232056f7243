// Package normalize turns raw extracted rows into validated reminder records.
// The recovery rules in here are heuristics tuned to the legacy exports:
// they prefer dropping a questionable manifest row over guessing, and they
// fail fast on malformed agenda rows.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/entity"
)

// Meta carries the caller-supplied batch metadata stamped onto every record.
type Meta struct {
	CompanyID    int
	UploaderID   int
	UploaderName string
	Filename     string
	SendAt       time.Time
	UploadedAt   time.Time

	// Agenda path only.
	TemplateID  string
	SendChannel string
}

// timestampLayouts are the explicit formats tried, in order, for
// caller-supplied free-text timestamps before the ISO fallback.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a free-text timestamp: the explicit layouts first, in
// order, then a generic ISO-8601 attempt. No layout matching is a field-parse
// error.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, common.FieldParseErrorf("unrecognized timestamp %q", value)
}

// AppointmentRecords normalizes agenda rows into reminder records, fanning
// out one record per phone number. A row with an unparseable date, time or
// code fails the whole batch; the agenda path has no silent-drop contract
// for malformed values.
func AppointmentRecords(rows []entity.AppointmentRow, meta Meta) ([]entity.AppointmentRecord, error) {
	var records []entity.AppointmentRecord

	for _, row := range rows {
		agendaDate, err := time.Parse("02-01-2006", strings.TrimSpace(row.Header.RawDate))
		if err != nil {
			return nil, common.FieldParseErrorf("agenda date %q", row.Header.RawDate)
		}
		timeOfDay, err := time.Parse("15:04", strings.TrimSpace(row.Time))
		if err != nil {
			return nil, common.FieldParseErrorf("agenda time %q", row.Time)
		}
		code, err := strconv.Atoi(strings.TrimSpace(row.Code))
		if err != nil {
			return nil, common.FieldParseErrorf("agenda code %q", row.Code)
		}

		for _, phone := range strings.Split(row.Phones, " | ") {
			phone = strings.TrimSpace(phone)
			if phone == "" {
				continue
			}
			records = append(records, entity.AppointmentRecord{
				CompanyID:    meta.CompanyID,
				Unit:         row.Header.Unit,
				Professional: row.Header.Professional,
				AgendaDate:   agendaDate,
				Specialty:    row.Header.Specialty,
				TimeOfDay:    timeOfDay.Format("15:04"),
				Code:         strconv.Itoa(code),
				Patient:      row.Patient,
				Phone:        phone,
				SendAt:       meta.SendAt,
				UploadedAt:   meta.UploadedAt,
				Requester:    row.Requester,
				Filename:     meta.Filename,
				UploaderID:   meta.UploaderID,
				UploaderName: meta.UploaderName,
				TemplateID:   meta.TemplateID,
				SendChannel:  meta.SendChannel,
			})
		}
	}

	return records, nil
}

var (
	digitRunRe = regexp.MustCompile(`\b\d+\b`)
	phoneRe    = regexp.MustCompile(`\b\d{10,11}\b`)
	dateRe     = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	clockRe    = regexp.MustCompile(`\b\d{2}:\d{2}\b`)
)

// PatientVisitRecords normalizes manifest rows into patient-visit records.
// Rows missing a patient name, a reconstructable 15-digit CNS or a resolvable
// appointment datetime are dropped, not failed; the returned count says how
// many.
func PatientVisitRecords(rows []entity.PatientRow, header entity.HeaderBlock, meta Meta) ([]entity.PatientVisitRecord, int) {
	var records []entity.PatientVisitRecord
	dropped := 0

	// cases.Caser is a stateful transformer, so each call gets its own;
	// ingestion calls run concurrently.
	titleCaser := cases.Title(language.BrazilianPortuguese)

	for _, row := range rows {
		name := strings.TrimSpace(row.Patient)
		flat := strings.Join(row.Cells(), " ")

		cns := reconstructCNS(flat)
		scheduledAt, ok := resolveDateTime(row.AttendedAt, flat)

		if name == "" || cns == "" || !ok {
			dropped++
			continue
		}

		records = append(records, entity.PatientVisitRecord{
			CompanyID:      meta.CompanyID,
			Unit:           header.Unit,
			Professional:   header.Professional,
			LicenseID:      header.LicenseID,
			Specialty:      header.Specialty,
			AttendanceDate: header.DocumentDate,
			ScheduledAt:    scheduledAt,
			Patient:        titleCaser.String(name),
			CNS:            cns,
			Phone:          phoneRe.FindString(flat),
			Classification: entity.VisitClassification,
			Status:         entity.VisitStatus,
			SendAt:         meta.SendAt,
			UploadedAt:     meta.UploadedAt,
			Filename:       meta.Filename,
			UploaderID:     meta.UploaderID,
			UploaderName:   meta.UploaderName,
		})
	}

	return records, dropped
}

// reconstructCNS recovers a 15-digit CNS split across two adjacent numeric
// fragments by table extraction: the first adjacent token pair whose digits
// concatenate to exactly 15 wins. An unrelated numeric field sitting next to
// a fragment can produce a spurious match; the rule is kept as-is because no
// stronger validation is known for these documents.
func reconstructCNS(flat string) string {
	tokens := digitRunRe.FindAllString(flat, -1)
	for i := 0; i+1 < len(tokens); i++ {
		combined := tokens[i] + tokens[i+1]
		if len(combined) == 15 {
			return combined
		}
	}
	return ""
}

// resolveDateTime parses the dedicated attendance column strictly, then falls
// back to combining any date token with any clock token found in the row.
func resolveDateTime(attendedAt, flat string) (time.Time, bool) {
	if t, err := time.Parse("02/01/2006 15:04", strings.TrimSpace(attendedAt)); err == nil {
		return t, true
	}

	date := dateRe.FindString(flat)
	clock := clockRe.FindString(flat)
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("02/01/2006 15:04", date+" "+clock)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
