package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/entity"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, ReminderRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewReminderRepository(db, slog.Default())
	return db, mock, repo
}

func sampleAppointment() entity.AppointmentRecord {
	return entity.AppointmentRecord{
		CompanyID:    7,
		Unit:         "UBS CENTRO",
		Professional: "DRA MARIA SOUZA",
		AgendaDate:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Specialty:    "CARDIOLOGIA",
		TimeOfDay:    "08:00",
		Code:         "123",
		Patient:      "JOAO DA SILVA",
		Phone:        "16999999999",
		SendAt:       time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
		UploadedAt:   time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
		Requester:    "DR REQUISITANTE",
		Filename:     "agenda",
		UploaderID:   3,
		UploaderName: "Fulano",
		TemplateID:   "lembrete-consulta",
		SendChannel:  "whatsapp",
	}
}

func TestInsertAppointments(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO lembrete_sertaozinho")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	records := []entity.AppointmentRecord{sampleAppointment(), sampleAppointment()}
	err := repo.InsertAppointments(context.Background(), records)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAppointments_RollbackOnFailure(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO lembrete_sertaozinho")
	prep.ExpectExec().WillReturnError(errors.New("column does not exist"))
	mock.ExpectRollback()

	err := repo.InsertAppointments(context.Background(), []entity.AppointmentRecord{sampleAppointment()})

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPersistence))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAppointments_EmptyBatch(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	require.NoError(t, repo.InsertAppointments(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPatientVisits(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO lembrete_sertaozinho")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := entity.PatientVisitRecord{
		CompanyID:      7,
		Unit:           "UBS VILA NOVA",
		Professional:   "CARLOS LIMA",
		LicenseID:      "12345",
		Specialty:      "ORTOPEDIA",
		ScheduledAt:    time.Date(2024, 1, 5, 8, 30, 0, 0, time.UTC),
		Patient:        "Joana Prado",
		CNS:            "704004789010123",
		Classification: entity.VisitClassification,
		Status:         entity.VisitStatus,
		SendAt:         time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
		UploadedAt:     time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
		Filename:       "manifesto",
		UploaderID:     3,
		UploaderName:   "Fulano",
	}
	err := repo.InsertPatientVisits(context.Background(), []entity.PatientVisitRecord{rec})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSchedules_Filters(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	day := time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC)
	companyID := 7

	rows := sqlmock.NewRows([]string{
		"id", "empresa_id", "unidade_executante", "profissional", "data_agenda",
		"especialidade", "horario", "codigo", "paciente", "telefone", "data_hora_enviar",
		"solicitante", "wa_message_id", "resposta", "dt_resposta", "nome_arquivo",
		"id_usuario", "nome_usuario",
	}).AddRow(
		1, companyID, "UBS CENTRO", "DRA MARIA SOUZA", day,
		"CARDIOLOGIA", "08:00", "123", "JOAO DA SILVA", "16999999999", day,
		"DR REQUISITANTE", "wamid.1", nil, nil, "agenda",
		3, "Fulano",
	)

	mock.ExpectQuery(`empresa_id = \$1 AND paciente ILIKE \$2 AND data_hora_enviar >= \$3 AND data_hora_enviar <= \$4 LIMIT 10000`).
		WithArgs(companyID, "%JOAO%",
			time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 9, 9, 23, 59, 59, 999999000, time.UTC)).
		WillReturnRows(rows)

	out, err := repo.ListSchedules(context.Background(), ScheduleFilter{
		CompanyID: &companyID,
		Patient:   "JOAO",
		SendDate:  &day,
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ID)
	assert.Equal(t, "JOAO DA SILVA", out[0].Patient)
	assert.Equal(t, "wamid.1", out[0].WAMessageID)
	assert.Empty(t, out[0].Response)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSchedules_NoFilters(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("FROM lembrete_sertaozinho LIMIT 10000").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "empresa_id", "unidade_executante", "profissional", "data_agenda",
			"especialidade", "horario", "codigo", "paciente", "telefone", "data_hora_enviar",
			"solicitante", "wa_message_id", "resposta", "dt_resposta", "nome_arquivo",
			"id_usuario", "nome_usuario",
		}))

	out, err := repo.ListSchedules(context.Background(), ScheduleFilter{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetResponse(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	at := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE lembrete_sertaozinho SET resposta").
		WithArgs("CONFIRMO", at, "wamid.1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.SetResponse(context.Background(), "wamid.1", "CONFIRMO", at)

	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivate(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("UPDATE lembrete_sertaozinho SET ativo = 'N'").
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.Deactivate(context.Background(), []int{1, 2})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivate_RejectsAlreadyInactive(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Deactivate(context.Background(), []int{1, 2})

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportSummary(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("GROUP BY solicitante, periodo_ordem").
		WithArgs(from, to, ResponseConfirmed, ResponseNotConfirmed, ResponseNotKnown).
		WillReturnRows(sqlmock.NewRows([]string{
			"solicitante", "periodo_ordem", "periodo",
			"confirmado", "nao_confirmado", "nao_conheco", "nao_respondido",
		}).AddRow("DR REQUISITANTE", month, "01-2024", 3, 1, 0, 2))

	out, err := repo.ReportSummary(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "01-2024", out[0].Period)
	assert.Equal(t, 3, out[0].Confirmed)
	assert.Equal(t, 2, out[0].NoReply)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportDetails(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT paciente, telefone, solicitante, resposta").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"paciente", "telefone", "solicitante", "resposta"}).
			AddRow("JOAO DA SILVA", "16999999999", "DR REQUISITANTE", ResponseConfirmed).
			AddRow("ANA PEREIRA", "16988887777", "DR REQUISITANTE", nil))

	out, err := repo.ReportDetails(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, ResponseConfirmed, out[0].Response)
	assert.Empty(t, out[1].Response)
	assert.NoError(t, mock.ExpectationsWereMet())
}
