// Package server exposes the ingestion and reporting API over HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mi4u/lembrete-api/internal/blobstore"
	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/export"
	"github.com/mi4u/lembrete-api/internal/ingest"
	"github.com/mi4u/lembrete-api/internal/repository"
)

// Server wires handlers to their collaborators.
type Server struct {
	cfg       common.Config
	ingest    *ingest.Service
	reminders repository.ReminderRepository
	blobs     *blobstore.Store
	exporter  *export.Service
	health    func(ctx context.Context) error
	logger    *slog.Logger
}

func New(
	cfg common.Config,
	ingestSvc *ingest.Service,
	reminders repository.ReminderRepository,
	blobs *blobstore.Store,
	exporter *export.Service,
	health func(ctx context.Context) error,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		ingest:    ingestSvc,
		reminders: reminders,
		blobs:     blobs,
		exporter:  exporter,
		health:    health,
		logger:    logger,
	}
}

// Echo builds the routed echo instance.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	auth := requirePermissionToken(s.cfg.Auth.PermissionToken)

	e.GET("/test-db", s.testDB, auth)

	e.POST("/file/post/", s.postFile, auth)
	e.POST("/agenda/post/", s.postAgenda, auth)
	e.GET("/files/", s.listFiles, auth)
	e.GET("/file/:name", s.statFile, auth)
	e.GET("/download/:name", s.downloadFile, auth)

	e.GET("/schedule", s.getSchedule, auth)
	e.POST("/schedule/set_response", s.setResponse, auth)

	e.GET("/report", s.getReport, auth)
	e.GET("/report/details", s.getReportDetails, auth)
	e.GET("/report/export", s.exportReport, auth)

	e.DELETE("/excluir", s.deleteRecords, auth)

	return e
}

func (s *Server) testDB(c echo.Context) error {
	if err := s.health(c.Request().Context()); err != nil {
		return c.JSON(200, map[string]string{"message": "Falha na conexão com o banco de dados."})
	}
	return c.JSON(200, map[string]string{"message": "Conexão com o banco de dados bem-sucedida!"})
}
