package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/entity"
)

// reminderTable is the shared reminder table. Both ingestion paths write to
// it with partially overlapping column sets; columns the other path owns are
// left null.
const reminderTable = "lembrete_sertaozinho"

// ScheduleFilter narrows ListSchedules. Zero values mean "no filter"; text
// fields match case-insensitively as substrings, SendDate filters
// data_hora_enviar to that day's window.
type ScheduleFilter struct {
	ID           *int
	CompanyID    *int
	Unit         string
	Professional string
	AgendaDate   *time.Time
	Specialty    string
	TimeOfDay    string
	Code         *int
	Patient      string
	Phone        string
	SendAt       *time.Time
	SendDate     *time.Time
	WAMessageID  string
	Response     string
	Filename     string
	UploaderID   *int
	UploaderName string
}

// ReminderRepository is the persistence boundary for normalized reminder
// records: one batch write per ingestion call, plus the read/update surface
// the HTTP API exposes over the shared table.
type ReminderRepository interface {
	InsertAppointments(ctx context.Context, records []entity.AppointmentRecord) error
	InsertPatientVisits(ctx context.Context, records []entity.PatientVisitRecord) error
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]entity.Schedule, error)
	SetResponse(ctx context.Context, waMessageID, response string, at time.Time) (int64, error)
	Deactivate(ctx context.Context, ids []int) error
	ReportSummary(ctx context.Context, from, to time.Time) ([]SummaryRow, error)
	ReportDetails(ctx context.Context, from, to time.Time) ([]DetailRow, error)
}

type reminderRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewReminderRepository(db *sql.DB, logger *slog.Logger) ReminderRepository {
	return &reminderRepository{db: db, logger: logger}
}

const insertAppointmentSQL = `
	INSERT INTO lembrete_sertaozinho (
		empresa_id, unidade_executante, profissional,
		data_agenda, especialidade, horario, codigo, paciente,
		telefone, data_hora_enviar, data_hora_upload, solicitante, nome_arquivo,
		id_usuario, nome_usuario, template_id, tipo_envio
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

// InsertAppointments writes an agenda batch in one transaction. All rows
// commit or none do.
func (r *reminderRepository) InsertAppointments(ctx context.Context, records []entity.AppointmentRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertAppointmentSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx,
				rec.CompanyID, rec.Unit, rec.Professional,
				rec.AgendaDate, rec.Specialty, rec.TimeOfDay, rec.Code, rec.Patient,
				rec.Phone, rec.SendAt, rec.UploadedAt, rec.Requester, rec.Filename,
				rec.UploaderID, rec.UploaderName, rec.TemplateID, rec.SendChannel,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

const insertPatientVisitSQL = `
	INSERT INTO lembrete_sertaozinho (
		empresa_id, unidade_saude, profissional, crm_profissional,
		especialidade, data_atendimento, data_hora_agendamento,
		paciente, cns, telefone, classificacao, status,
		data_hora_enviar, data_hora_upload, nome_arquivo,
		id_usuario, nome_usuario
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

// InsertPatientVisits writes a manifest batch in one transaction.
func (r *reminderRepository) InsertPatientVisits(ctx context.Context, records []entity.PatientVisitRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertPatientVisitSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range records {
			phone := sql.NullString{String: rec.Phone, Valid: rec.Phone != ""}
			var attendance sql.NullTime
			if rec.AttendanceDate != nil {
				attendance = sql.NullTime{Time: *rec.AttendanceDate, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				rec.CompanyID, rec.Unit, rec.Professional, rec.LicenseID,
				rec.Specialty, attendance, rec.ScheduledAt,
				rec.Patient, rec.CNS, phone, rec.Classification, rec.Status,
				rec.SendAt, rec.UploadedAt, rec.Filename,
				rec.UploaderID, rec.UploaderName,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *reminderRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrPersistence, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrPersistence, err)
	}
	return nil
}

const scheduleColumns = `id, empresa_id, unidade_executante, profissional, data_agenda,
	especialidade, horario, codigo, paciente, telefone, data_hora_enviar,
	solicitante, wa_message_id, resposta, dt_resposta, nome_arquivo,
	id_usuario, nome_usuario`

// ListSchedules returns rows matching the filter, capped at 10000.
func (r *reminderRepository) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]entity.Schedule, error) {
	var conds []string
	var args []any

	eq := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	ilike := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+value+"%")
		conds = append(conds, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}

	if filter.ID != nil {
		eq("id", *filter.ID)
	}
	if filter.CompanyID != nil {
		eq("empresa_id", *filter.CompanyID)
	}
	ilike("unidade_executante", filter.Unit)
	ilike("profissional", filter.Professional)
	if filter.AgendaDate != nil {
		eq("data_agenda", *filter.AgendaDate)
	}
	ilike("especialidade", filter.Specialty)
	ilike("horario", filter.TimeOfDay)
	if filter.Code != nil {
		eq("codigo", *filter.Code)
	}
	ilike("paciente", filter.Patient)
	ilike("telefone", filter.Phone)
	switch {
	case filter.SendDate != nil:
		day := *filter.SendDate
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999999000, day.Location())
		args = append(args, start, end)
		conds = append(conds, fmt.Sprintf("data_hora_enviar >= $%d AND data_hora_enviar <= $%d", len(args)-1, len(args)))
	case filter.SendAt != nil:
		eq("data_hora_enviar", *filter.SendAt)
	}
	ilike("wa_message_id", filter.WAMessageID)
	ilike("resposta", filter.Response)
	ilike("nome_arquivo", filter.Filename)
	if filter.UploaderID != nil {
		eq("id_usuario", *filter.UploaderID)
	}
	ilike("nome_usuario", filter.UploaderName)

	query := fmt.Sprintf("SELECT %s FROM %s", scheduleColumns, reminderTable)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " LIMIT 10000"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list schedules", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.Schedule
	for rows.Next() {
		var s entity.Schedule
		var (
			unit, professional, specialty, timeOfDay, code sql.NullString
			patient, phone, requester, waID, response      sql.NullString
			filename, uploaderName                         sql.NullString
			agendaDate, sendAt, responseAt                 sql.NullTime
			uploaderID                                     sql.NullInt64
		)
		if err := rows.Scan(
			&s.ID, &s.CompanyID, &unit, &professional, &agendaDate,
			&specialty, &timeOfDay, &code, &patient, &phone, &sendAt,
			&requester, &waID, &response, &responseAt, &filename,
			&uploaderID, &uploaderName,
		); err != nil {
			return nil, err
		}
		s.Unit = unit.String
		s.Professional = professional.String
		s.Specialty = specialty.String
		s.TimeOfDay = timeOfDay.String
		s.Code = code.String
		s.Patient = patient.String
		s.Phone = phone.String
		s.Requester = requester.String
		s.WAMessageID = waID.String
		s.Response = response.String
		s.Filename = filename.String
		s.UploaderName = uploaderName.String
		if agendaDate.Valid {
			s.AgendaDate = &agendaDate.Time
		}
		if sendAt.Valid {
			s.SendAt = &sendAt.Time
		}
		if responseAt.Valid {
			s.ResponseAt = &responseAt.Time
		}
		if uploaderID.Valid {
			id := int(uploaderID.Int64)
			s.UploaderID = &id
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetResponse records the messaging side's reply for a sent reminder.
// Returns the number of rows updated.
func (r *reminderRepository) SetResponse(ctx context.Context, waMessageID, response string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lembrete_sertaozinho SET resposta = $1, dt_resposta = $2 WHERE wa_message_id = $3`,
		response, at, waMessageID,
	)
	if err != nil {
		r.logger.Error("failed to set response", "wa_message_id", waMessageID, "error", err)
		return 0, err
	}
	return res.RowsAffected()
}

// Deactivate soft-deletes the given rows (ativo = 'N'). A batch containing an
// already-inactive row is rejected whole.
func (r *reminderRepository) Deactivate(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	in := strings.Join(placeholders, ", ")

	var alreadyInactive bool
	checkQuery := fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM lembrete_sertaozinho WHERE id IN (%s) AND ativo = 'N')`, in)
	if err := r.db.QueryRowContext(ctx, checkQuery, args...).Scan(&alreadyInactive); err != nil {
		return err
	}
	if alreadyInactive {
		return fmt.Errorf("%w: one or more records are already inactive", common.ErrInvalidInput)
	}

	updateQuery := fmt.Sprintf(`UPDATE lembrete_sertaozinho SET ativo = 'N' WHERE id IN (%s)`, in)
	if _, err := r.db.ExecContext(ctx, updateQuery, args...); err != nil {
		r.logger.Error("failed to deactivate records", "ids", ids, "error", err)
		return err
	}
	return nil
}
