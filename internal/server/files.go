package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mi4u/lembrete-api/internal/blobstore"
	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/ingest"
)

func errorsIsNotFound(err error) bool {
	return errors.Is(err, blobstore.ErrBlobNotFound) || errors.Is(err, common.ErrNotFound)
}

const storedNameTimestamp = "2006-01-02-15-04-05"

// postFile receives a PDF attendance manifest, stores it and runs the
// manifest ingestion path. The stored blob is removed when ingestion fails so
// the store only holds documents that produced records.
func (s *Server) postFile(c echo.Context) error {
	claims, err := parseAccessToken(c.QueryParam("mi4u_access_token"))
	if err != nil {
		return common.HTTPError(err)
	}

	content, filename, err := s.readUpload(c)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return echo.NewHTTPError(http.StatusForbidden, "Apenas arquivos PDF são suportados")
	}

	uploadedAt := time.Now()
	base := strings.TrimSuffix(filename, ".pdf")
	storedName := fmt.Sprintf("%s-%s.pdf", base, uploadedAt.Format(storedNameTimestamp))

	if _, err := s.blobs.Save(c.Request().Context(), storedName, "application/pdf", bytes.NewReader(content)); err != nil {
		return common.HTTPError(err)
	}

	result, err := s.ingest.IngestManifest(c.Request().Context(), ingest.ManifestRequest{
		CompanyID:  claims.CompanyID,
		UploaderID: claims.UserID,
		Filename:   base,
		SendAt:     c.QueryParam("data_hora_enviar"),
		UploadedAt: uploadedAt,
		Document:   content,
	})
	if err != nil {
		if delErr := s.blobs.Delete(c.Request().Context(), storedName); delErr != nil {
			s.logger.Error("failed to remove blob after ingest failure", "name", storedName, "error", delErr)
		}
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message":      fmt.Sprintf("Arquivo %s enviado com sucesso", storedName),
		"rows_written": result.RowsWritten,
		"rows_dropped": result.RowsDropped,
	})
}

// postAgenda receives an HTML agenda export. The messaging channel and
// template come as form fields alongside the file.
func (s *Server) postAgenda(c echo.Context) error {
	claims, err := parseAccessToken(c.QueryParam("mi4u_access_token"))
	if err != nil {
		return common.HTTPError(err)
	}

	content, filename, err := s.readUpload(c)
	if err != nil {
		return err
	}
	lower := strings.ToLower(filename)
	if !strings.HasSuffix(lower, ".html") && !strings.HasSuffix(lower, ".htm") {
		return echo.NewHTTPError(http.StatusForbidden, "Apenas arquivos HTML são suportados")
	}

	uploadedAt := time.Now()
	base := strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm")
	storedName := fmt.Sprintf("%s-%s.html", base, uploadedAt.Format(storedNameTimestamp))

	if _, err := s.blobs.Save(c.Request().Context(), storedName, "text/html", bytes.NewReader(content)); err != nil {
		return common.HTTPError(err)
	}

	result, err := s.ingest.IngestAgenda(c.Request().Context(), ingest.AgendaRequest{
		CompanyID:   claims.CompanyID,
		UploaderID:  claims.UserID,
		Filename:    base,
		SendAt:      c.QueryParam("data_hora_enviar"),
		UploadedAt:  uploadedAt,
		Document:    content,
		SendChannel: c.FormValue("tipo_envio"),
		TemplateID:  c.FormValue("template_id"),
	})
	if err != nil {
		if delErr := s.blobs.Delete(c.Request().Context(), storedName); delErr != nil {
			s.logger.Error("failed to remove blob after ingest failure", "name", storedName, "error", delErr)
		}
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message":      fmt.Sprintf("Arquivo %s enviado com sucesso", storedName),
		"rows_written": result.RowsWritten,
	})
}

// readUpload pulls the multipart "file" part into memory, capped at the
// configured upload size.
func (s *Server) readUpload(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer src.Close()

	limit := s.cfg.Storage.MaxUploadSize
	content, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	if int64(len(content)) > limit {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	return content, fh.Filename, nil
}

func (s *Server) listFiles(c echo.Context) error {
	metas, err := s.blobs.List(c.Request().Context())
	if err != nil {
		return common.HTTPError(err)
	}

	files := make(map[string]int64, len(metas))
	for _, m := range metas {
		files[m.Name] = m.Size
	}
	return c.JSON(http.StatusOK, files)
}

func (s *Server) statFile(c echo.Context) error {
	name := c.Param("name")
	meta, err := s.blobs.Stat(c.Request().Context(), name)
	if err != nil {
		if errorsIsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("O arquivo %s não existe!", name))
		}
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"filename":     meta.Name,
		"size":         meta.Size,
		"content_type": meta.ContentType,
	})
}

func (s *Server) downloadFile(c echo.Context) error {
	name := c.Param("name")
	rc, meta, err := s.blobs.Open(c.Request().Context(), name)
	if err != nil {
		if errorsIsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Arquivo não encontrado")
		}
		return common.HTTPError(err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s", meta.Name))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
