package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/export"
)

const reportDateLayout = "02-01-2006"

type reportMonth struct {
	Period string         `json:"periodo"`
	Status map[string]int `json:"status"`
}

type reportGroup struct {
	Requester string        `json:"solicitante"`
	Months    []reportMonth `json:"meses"`
}

// getReport aggregates reply counts per requester and month over the
// dt_start..dt_end agenda-date window (dd-mm-yyyy).
func (s *Server) getReport(c echo.Context) error {
	from, to, err := reportWindow(c)
	if err != nil {
		return err
	}

	rows, err := s.reminders.ReportSummary(c.Request().Context(), from, to)
	if err != nil {
		return common.HTTPError(err)
	}

	if len(rows) == 0 {
		return c.JSON(http.StatusOK, map[string]any{
			"success": true,
			"message": "Não há registros para o período informado",
			"data":    []reportGroup{},
		})
	}

	index := make(map[string]int)
	var groups []reportGroup
	for _, r := range rows {
		i, ok := index[r.Requester]
		if !ok {
			i = len(groups)
			index[r.Requester] = i
			groups = append(groups, reportGroup{Requester: r.Requester})
		}
		groups[i].Months = append(groups[i].Months, reportMonth{
			Period: r.Period,
			Status: map[string]int{
				"confirmado":     r.Confirmed,
				"nao_confirmado": r.NotConfirmed,
				"nao_conheco":    r.NotKnown,
				"nao_respondido": r.NoReply,
			},
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Relatório gerado com sucesso",
		"data":    groups,
	})
}

// getReportDetails lists every outcome in the window, grouped per requester
// and response class.
func (s *Server) getReportDetails(c echo.Context) error {
	groups, err := s.detailGroups(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Relatório gerado com sucesso",
		"data":    groups,
	})
}

// exportReport returns the detail report as an XLSX workbook.
func (s *Server) exportReport(c echo.Context) error {
	groups, err := s.detailGroups(c)
	if err != nil {
		return err
	}

	content, err := s.exporter.DetailsXLSX(groups)
	if err != nil {
		return common.HTTPError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=relatorio.xlsx")
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

func (s *Server) detailGroups(c echo.Context) ([]export.RequesterDetails, error) {
	from, to, err := reportWindow(c)
	if err != nil {
		return nil, err
	}

	rows, err := s.reminders.ReportDetails(c.Request().Context(), from, to)
	if err != nil {
		return nil, common.HTTPError(err)
	}
	return export.GroupDetails(rows), nil
}

func reportWindow(c echo.Context) (time.Time, time.Time, error) {
	if _, err := parseAccessToken(c.QueryParam("mi4u_access_token")); err != nil {
		return time.Time{}, time.Time{}, common.HTTPError(err)
	}

	from, err := time.Parse(reportDateLayout, c.QueryParam("dt_start"))
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "dt_start must be dd-mm-yyyy")
	}
	to, err := time.Parse(reportDateLayout, c.QueryParam("dt_end"))
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "dt_end must be dd-mm-yyyy")
	}
	return from, to, nil
}
