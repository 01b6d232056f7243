// Package ingest orchestrates document ingestion end to end: parse, extract,
// normalize, enrich with uploader metadata, and hand the batch to the
// persistence boundary. Processing is synchronous; an ingestion call runs to
// completion, success or failure, with no partial commits.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/document"
	"github.com/mi4u/lembrete-api/internal/entity"
	"github.com/mi4u/lembrete-api/internal/extract"
	"github.com/mi4u/lembrete-api/internal/normalize"
	"github.com/mi4u/lembrete-api/internal/templates"
)

// BatchPersister durably writes one normalized batch. A failed write fails
// the whole ingestion call.
type BatchPersister interface {
	InsertAppointments(ctx context.Context, records []entity.AppointmentRecord) error
	InsertPatientVisits(ctx context.Context, records []entity.PatientVisitRecord) error
}

// UserDirectory resolves an uploader id to a display name.
type UserDirectory interface {
	FullName(ctx context.Context, userID int) (string, error)
}

// Service handles ingestion business logic.
type Service struct {
	persister BatchPersister
	users     UserDirectory
	catalog   *templates.Catalog
	logger    *slog.Logger
}

// NewService creates a new ingest service.
func NewService(p BatchPersister, users UserDirectory, catalog *templates.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{persister: p, users: users, catalog: catalog, logger: logger}
}

// Result reports what an ingestion call did. RowsDropped counts manifest rows
// excluded by the best-effort field filters; they are diagnostics, not errors.
type Result struct {
	RowsWritten int `json:"rows_written"`
	RowsDropped int `json:"rows_dropped"`
}

// AgendaRequest carries an HTML agenda upload.
type AgendaRequest struct {
	CompanyID   int
	UploaderID  int
	Filename    string
	SendAt      string // free text; empty means "at upload time"
	UploadedAt  time.Time
	Document    []byte
	SendChannel string
	TemplateID  string
}

// ManifestRequest carries a PDF attendance-manifest upload.
type ManifestRequest struct {
	CompanyID  int
	UploaderID int
	Filename   string
	SendAt     string
	UploadedAt time.Time
	Document   []byte
}

// IngestAgenda runs the HTML agenda path.
func (s *Service) IngestAgenda(ctx context.Context, req AgendaRequest) (Result, error) {
	batchID := uuid.NewString()

	if s.catalog != nil && !s.catalog.Has(req.TemplateID) {
		return Result{}, fmt.Errorf("%w: unknown template %q", common.ErrInvalidInput, req.TemplateID)
	}

	doc, err := document.ParseHTML(req.Document)
	if err != nil {
		return Result{}, err
	}
	headers, err := extract.ParseAgendaHeaders(doc)
	if err != nil {
		return Result{}, err
	}
	rows, err := extract.ParseAgendaRows(doc, headers)
	if err != nil {
		return Result{}, err
	}

	meta, err := s.buildMeta(ctx, req.CompanyID, req.UploaderID, req.Filename, req.SendAt, req.UploadedAt)
	if err != nil {
		return Result{}, err
	}
	meta.TemplateID = req.TemplateID
	meta.SendChannel = req.SendChannel

	records, err := normalize.AppointmentRecords(rows, meta)
	if err != nil {
		return Result{}, err
	}

	if err := s.persister.InsertAppointments(ctx, records); err != nil {
		s.logger.Error("agenda batch write failed",
			"batch_id", batchID, "filename", req.Filename, "records", len(records), "error", err)
		return Result{}, err
	}

	s.logger.Info("agenda ingested",
		"batch_id", batchID, "filename", req.Filename, "headers", len(headers),
		"rows", len(rows), "records", len(records),
	)
	return Result{RowsWritten: len(records)}, nil
}

// IngestManifest runs the PDF manifest path.
func (s *Service) IngestManifest(ctx context.Context, req ManifestRequest) (Result, error) {
	batchID := uuid.NewString()

	doc, err := document.ParsePDF(req.Document)
	if err != nil {
		return Result{}, err
	}
	header := extract.ParseManifestHeader(doc.Text())
	rows := extract.ParseManifestRows(doc)

	meta, err := s.buildMeta(ctx, req.CompanyID, req.UploaderID, req.Filename, req.SendAt, req.UploadedAt)
	if err != nil {
		return Result{}, err
	}

	records, dropped := normalize.PatientVisitRecords(rows, header, meta)

	if err := s.persister.InsertPatientVisits(ctx, records); err != nil {
		s.logger.Error("manifest batch write failed",
			"batch_id", batchID, "filename", req.Filename, "records", len(records), "error", err)
		return Result{}, err
	}

	s.logger.Info("manifest ingested",
		"batch_id", batchID, "filename", req.Filename, "unit", header.Unit,
		"rows", len(rows), "records", len(records), "dropped", dropped,
	)
	return Result{RowsWritten: len(records), RowsDropped: dropped}, nil
}

// buildMeta parses the caller-supplied timestamps and resolves the uploader's
// display name, one lookup per batch.
func (s *Service) buildMeta(ctx context.Context, companyID, uploaderID int, filename, sendAt string, uploadedAt time.Time) (normalize.Meta, error) {
	send := uploadedAt
	if sendAt != "" {
		parsed, err := normalize.ParseTimestamp(sendAt)
		if err != nil {
			return normalize.Meta{}, err
		}
		send = parsed
	}

	name, err := s.users.FullName(ctx, uploaderID)
	if err != nil {
		return normalize.Meta{}, fmt.Errorf("resolve uploader %d: %w", uploaderID, err)
	}

	return normalize.Meta{
		CompanyID:    companyID,
		UploaderID:   uploaderID,
		UploaderName: name,
		Filename:     filename,
		SendAt:       send,
		UploadedAt:   uploadedAt,
	}, nil
}
