// Package export builds report artifacts from persisted reminder outcomes.
package export

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mi4u/lembrete-api/internal/repository"
)

// RequesterDetails groups a requester's reminder outcomes by response class.
type RequesterDetails struct {
	Requester    string                 `json:"solicitante"`
	Confirmed    []repository.DetailRow `json:"confirmados"`
	NotConfirmed []repository.DetailRow `json:"nao_confirmados"`
	NotKnown     []repository.DetailRow `json:"nao_reconhecidos"`
	NoReply      []repository.DetailRow `json:"nao_respondidos"`
}

// GroupDetails buckets detail rows per requester and response class,
// preserving first-seen requester order.
func GroupDetails(rows []repository.DetailRow) []RequesterDetails {
	index := make(map[string]int)
	var out []RequesterDetails

	for _, row := range rows {
		i, ok := index[row.Requester]
		if !ok {
			i = len(out)
			index[row.Requester] = i
			out = append(out, RequesterDetails{
				Requester:    row.Requester,
				Confirmed:    []repository.DetailRow{},
				NotConfirmed: []repository.DetailRow{},
				NotKnown:     []repository.DetailRow{},
				NoReply:      []repository.DetailRow{},
			})
		}

		switch strings.ToUpper(strings.TrimSpace(row.Response)) {
		case repository.ResponseConfirmed:
			out[i].Confirmed = append(out[i].Confirmed, row)
		case repository.ResponseNotConfirmed:
			out[i].NotConfirmed = append(out[i].NotConfirmed, row)
		case repository.ResponseNotKnown:
			out[i].NotKnown = append(out[i].NotKnown, row)
		default:
			out[i].NoReply = append(out[i].NoReply, row)
		}
	}
	return out
}

// Service produces XLSX bytes for report exports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var responseClassLabels = map[string]string{
	repository.ResponseConfirmed:    "Confirmado",
	repository.ResponseNotConfirmed: "Não confirmado",
	repository.ResponseNotKnown:     "Não reconhecido",
}

// DetailsXLSX returns a workbook with one row per reminder outcome, grouped
// rows sorted the way GroupDetails orders requesters.
func (s *Service) DetailsXLSX(groups []RequesterDetails) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Respostas"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{"Solicitante", "Paciente", "Telefone", "Resposta"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	write := func(requester string, entries []repository.DetailRow, label string) {
		for _, e := range entries {
			cells := []any{requester, e.Patient, e.Phone, label}
			for col, v := range cells {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}

	for _, g := range groups {
		write(g.Requester, g.Confirmed, responseClassLabels[repository.ResponseConfirmed])
		write(g.Requester, g.NotConfirmed, responseClassLabels[repository.ResponseNotConfirmed])
		write(g.Requester, g.NotKnown, responseClassLabels[repository.ResponseNotKnown])
		write(g.Requester, g.NoReply, "Não respondido")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("report workbook built", "groups", len(groups), "rows", row-2)
	return buf.Bytes(), nil
}
