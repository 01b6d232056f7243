package repository

import (
	"context"
	"database/sql"
	"time"
)

// Reply values written back by the messaging side. The not-confirmed and
// not-known literals carry a U+3164 filler between the words, exactly as the
// WhatsApp flow produces them.
const (
	ResponseConfirmed    = "CONFIRMO"
	ResponseNotConfirmed = "NÃOㅤCONFIRMO"
	ResponseNotKnown     = "NÃOㅤCONHEÇO"
)

// SummaryRow is one requester/month bucket of the response report.
type SummaryRow struct {
	Requester    string    `json:"solicitante"`
	PeriodOrder  time.Time `json:"periodo_ordem"`
	Period       string    `json:"periodo"`
	Confirmed    int       `json:"confirmado"`
	NotConfirmed int       `json:"nao_confirmado"`
	NotKnown     int       `json:"nao_conheco"`
	NoReply      int       `json:"nao_respondido"`
}

// DetailRow is one reminder outcome for the detailed report.
type DetailRow struct {
	Patient   string `json:"cliente"`
	Phone     string `json:"telefone"`
	Requester string `json:"solicitante"`
	Response  string `json:"resposta"`
}

const reportSummarySQL = `
	SELECT
		solicitante,
		date_trunc('month', data_agenda) AS periodo_ordem,
		TO_CHAR(date_trunc('month', data_agenda), 'MM-YYYY') AS periodo,
		COUNT(*) FILTER (WHERE resposta = $3) AS confirmado,
		COUNT(*) FILTER (WHERE resposta = $4) AS nao_confirmado,
		COUNT(*) FILTER (WHERE resposta = $5) AS nao_conheco,
		COUNT(*) FILTER (WHERE resposta IS NULL OR TRIM(resposta) = '') AS nao_respondido
	FROM lembrete_sertaozinho
	WHERE data_agenda BETWEEN $1 AND $2
	  AND solicitante IS NOT NULL
	  AND solicitante <> ''
	GROUP BY solicitante, periodo_ordem
	ORDER BY solicitante, periodo_ordem`

// ReportSummary aggregates reply counts per requester and month over the
// agenda-date window.
func (r *reminderRepository) ReportSummary(ctx context.Context, from, to time.Time) ([]SummaryRow, error) {
	rows, err := r.db.QueryContext(ctx, reportSummarySQL,
		from, to, ResponseConfirmed, ResponseNotConfirmed, ResponseNotKnown)
	if err != nil {
		r.logger.Error("failed to query report summary", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(
			&row.Requester, &row.PeriodOrder, &row.Period,
			&row.Confirmed, &row.NotConfirmed, &row.NotKnown, &row.NoReply,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const reportDetailsSQL = `
	SELECT paciente, telefone, solicitante, resposta
	FROM lembrete_sertaozinho
	WHERE data_agenda BETWEEN $1 AND $2
	  AND solicitante IS NOT NULL`

// ReportDetails lists the individual reminder outcomes in the window; the
// caller groups them by requester and response class.
func (r *reminderRepository) ReportDetails(ctx context.Context, from, to time.Time) ([]DetailRow, error) {
	rows, err := r.db.QueryContext(ctx, reportDetailsSQL, from, to)
	if err != nil {
		r.logger.Error("failed to query report details", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []DetailRow
	for rows.Next() {
		var patient, phone, requester, response sql.NullString
		if err := rows.Scan(&patient, &phone, &requester, &response); err != nil {
			return nil, err
		}
		out = append(out, DetailRow{
			Patient:   patient.String,
			Phone:     phone.String,
			Requester: requester.String,
			Response:  response.String,
		})
	}
	return out, rows.Err()
}
