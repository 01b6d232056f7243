package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/repository"
)

// getSchedule lists reminder rows for the caller's company, narrowed by any
// of the table's columns. Text parameters match as case-insensitive
// substrings, data_envio (dd/mm/yyyy) selects a whole day of data_hora_enviar.
func (s *Server) getSchedule(c echo.Context) error {
	claims, err := parseAccessToken(c.QueryParam("mi4u_access_token"))
	if err != nil {
		return common.HTTPError(err)
	}

	filter := repository.ScheduleFilter{
		CompanyID:    &claims.CompanyID,
		Unit:         c.QueryParam("unidade_executante"),
		Professional: c.QueryParam("profissional"),
		Specialty:    c.QueryParam("especialidade"),
		TimeOfDay:    c.QueryParam("horario"),
		Patient:      c.QueryParam("paciente"),
		Phone:        c.QueryParam("telefone"),
		WAMessageID:  c.QueryParam("wa_message_id"),
		Response:     c.QueryParam("resposta"),
		Filename:     c.QueryParam("nome_arquivo"),
		UploaderName: c.QueryParam("nome_usuario"),
	}

	if filter.ID, err = queryInt(c, "id"); err != nil {
		return err
	}
	if filter.Code, err = queryInt(c, "codigo"); err != nil {
		return err
	}
	if filter.UploaderID, err = queryInt(c, "id_usuario"); err != nil {
		return err
	}
	if filter.AgendaDate, err = queryTime(c, "data_agenda", "2006-01-02"); err != nil {
		return err
	}
	if filter.SendAt, err = queryTime(c, "data_hora_enviar", "2006-01-02T15:04:05"); err != nil {
		return err
	}
	if raw := c.QueryParam("data_envio"); raw != "" {
		day, err := time.Parse("02/01/2006", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				"Formato de data inválido. Use dd/mm/yyyy (ex: 09/09/2025)")
		}
		filter.SendDate = &day
	}

	rows, err := s.reminders.ListSchedules(c.Request().Context(), filter)
	if err != nil {
		return common.HTTPError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// setResponse records the messaging side's reply for a sent reminder.
func (s *Server) setResponse(c echo.Context) error {
	waMessageID := c.QueryParam("wa_message_id")
	response := c.QueryParam("resposta")
	if waMessageID == "" || response == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "wa_message_id and resposta are required")
	}

	at := time.Now().Truncate(time.Second)
	updated, err := s.reminders.SetResponse(c.Request().Context(), waMessageID, response, at)
	if err != nil {
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{"updated": updated})
}

// deleteRecords soft-deactivates the ids in the request body, which may be a
// single integer or a list.
func (s *Server) deleteRecords(c echo.Context) error {
	if _, err := parseAccessToken(c.QueryParam("mi4u_access_token")); err != nil {
		return common.HTTPError(err)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		var single int
		if err := json.Unmarshal(body, &single); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "body must be an id or a list of ids")
		}
		ids = []int{single}
	}
	if len(ids) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no ids given")
	}

	if err := s.reminders.Deactivate(c.Request().Context(), ids); err != nil {
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("%d registro(s) desativado(s) com sucesso.", len(ids)),
		"data":    map[string]any{"ids": ids},
	})
}

func queryInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be an integer", name))
	}
	return &v, nil
}

func queryTime(c echo.Context, name, layout string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse(layout, raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s: invalid value %q", name, raw))
	}
	return &v, nil
}
