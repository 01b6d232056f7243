package entity

import "time"

// Fixed values attached to every patient-visit record.
const (
	VisitClassification = "CONSULTA"
	VisitStatus         = "AGENDADO"
)

// AppointmentRecord is a normalized reminder row produced by the HTML agenda
// path. One record per (raw row × phone number): rows fan out over their
// phone list.
type AppointmentRecord struct {
	CompanyID    int       `json:"empresa_id"`
	Unit         string    `json:"unidade_executante"`
	Professional string    `json:"profissional"`
	AgendaDate   time.Time `json:"data_agenda"`
	Specialty    string    `json:"especialidade"`
	TimeOfDay    string    `json:"horario"`
	Code         string    `json:"codigo"`
	Patient      string    `json:"paciente"`
	Phone        string    `json:"telefone"`
	SendAt       time.Time `json:"data_hora_enviar"`
	UploadedAt   time.Time `json:"data_hora_upload"`
	Requester    string    `json:"solicitante"`
	Filename     string    `json:"nome_arquivo"`
	UploaderID   int       `json:"id_usuario"`
	UploaderName string    `json:"nome_usuario"`
	TemplateID   string    `json:"template_id"`
	SendChannel  string    `json:"tipo_envio"`
}

// PatientVisitRecord is a normalized reminder row produced by the PDF
// manifest path. Only rows with a patient name, a 15-digit CNS and a
// resolvable appointment datetime become records.
type PatientVisitRecord struct {
	CompanyID      int        `json:"empresa_id"`
	Unit           string     `json:"unidade_saude"`
	Professional   string     `json:"profissional"`
	LicenseID      string     `json:"crm_profissional"`
	Specialty      string     `json:"especialidade"`
	AttendanceDate *time.Time `json:"data_atendimento,omitempty"`
	ScheduledAt    time.Time  `json:"data_hora_agendamento"`
	Patient        string     `json:"paciente"`
	CNS            string     `json:"cns"`
	Phone          string     `json:"telefone,omitempty"`
	Classification string     `json:"classificacao"`
	Status         string     `json:"status"`
	SendAt         time.Time  `json:"data_hora_enviar"`
	UploadedAt     time.Time  `json:"data_hora_upload"`
	Filename       string     `json:"nome_arquivo"`
	UploaderID     int        `json:"id_usuario"`
	UploaderName   string     `json:"nome_usuario"`
}

// Schedule is a persisted reminder row as read back from the shared table,
// including the response fields filled in by the messaging side.
type Schedule struct {
	ID           int        `json:"id"`
	CompanyID    int        `json:"empresa_id"`
	Unit         string     `json:"unidade_executante,omitempty"`
	Professional string     `json:"profissional,omitempty"`
	AgendaDate   *time.Time `json:"data_agenda,omitempty"`
	Specialty    string     `json:"especialidade,omitempty"`
	TimeOfDay    string     `json:"horario,omitempty"`
	Code         string     `json:"codigo,omitempty"`
	Patient      string     `json:"paciente,omitempty"`
	Phone        string     `json:"telefone,omitempty"`
	SendAt       *time.Time `json:"data_hora_enviar,omitempty"`
	Requester    string     `json:"solicitante,omitempty"`
	WAMessageID  string     `json:"wa_message_id,omitempty"`
	Response     string     `json:"resposta,omitempty"`
	ResponseAt   *time.Time `json:"dt_resposta,omitempty"`
	Filename     string     `json:"nome_arquivo,omitempty"`
	UploaderID   *int       `json:"id_usuario,omitempty"`
	UploaderName string     `json:"nome_usuario,omitempty"`
}
