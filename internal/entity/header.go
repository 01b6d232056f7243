package entity

import "time"

// Table is one extracted document table: rows of cell strings.
type Table [][]string

// HeaderBlock carries the per-section (HTML agenda) or per-document (PDF
// manifest) metadata that precedes the data rows.
type HeaderBlock struct {
	Unit         string     `json:"unit"`
	Professional string     `json:"professional"`
	LicenseID    string     `json:"license_id,omitempty"`
	Specialty    string     `json:"specialty"`
	DocumentDate *time.Time `json:"document_date,omitempty"`

	// RawDate keeps the header date exactly as printed; the agenda path parses
	// it per record because the source format (dd-mm-yyyy) belongs to the row
	// normalization step.
	RawDate string `json:"raw_date,omitempty"`
}
