package entity

// AppointmentRow is one raw agenda entry, assembled from a pair of adjacent
// HTML table rows: the data row and the phone row below it.
type AppointmentRow struct {
	Header    HeaderBlock `json:"header"`
	Time      string      `json:"time"`
	Code      string      `json:"code"`
	Patient   string      `json:"patient"`
	Requester string      `json:"requester"`
	Phones    string      `json:"phones"` // raw "p1 | p2 | ..." list text
}

// PatientRow is one raw attendance-manifest entry spanning the eleven
// recognized manifest columns. Cells keep their noisy source text; the
// normalizer recovers structured fields from them.
type PatientRow struct {
	RecordNumber string `json:"record_number"`
	Patient      string `json:"patient"`
	Age          string `json:"age"`
	CNSFragment  string `json:"cns_fragment"`
	Phone        string `json:"phone"`
	ScheduledAt  string `json:"scheduled_at"`
	ReceivedAt   string `json:"received_at"`
	AttendedAt   string `json:"attended_at"`
	ClosedAt     string `json:"closed_at"`
	Status       string `json:"status"`
	Signature    string `json:"signature"`
}

// Cells returns the row's cell texts in manifest column order. The normalizer
// scans the concatenation for digit runs, so order must match extraction order.
func (r PatientRow) Cells() []string {
	return []string{
		r.RecordNumber, r.Patient, r.Age, r.CNSFragment, r.Phone,
		r.ScheduledAt, r.ReceivedAt, r.AttendedAt, r.ClosedAt,
		r.Status, r.Signature,
	}
}
