package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"spendlens/internal/core"
	"spendlens/internal/extract"
	"spendlens/internal/log"
)

type classifyRequest struct {
	Description string `json:"description"`
	UseHistory  bool   `json:"use_history"`
}

type ingestRequest struct {
	Text string `json:"text"`
}

type draftResponse struct {
	Draft          core.ExtractionDraft `json:"draft"`
	DatesSupported bool                 `json:"dates_supported"`
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(s.reports.Classify(sanitizeInput(req.Description), req.UseHistory)).Write(w)
}

func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		BadRequestError("text is required").Write(w)
		return
	}
	d := s.reports.IngestText(req.Text)
	NewJSONResponse().Body(draftResponse{Draft: d, DatesSupported: s.reports.DatesSupported()}).Write(w)
}

func (s *Server) handleIngestImage(w http.ResponseWriter, r *http.Request) {
	if !s.reports.OCRSupported() {
		s.fail(w, r, log.OpIngest, extract.ErrCapabilityUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("receipt")
	if err != nil {
		if tooLarge(err) {
			ErrorResponse(http.StatusRequestEntityTooLarge, CodeBadRequest, "receipt image too large").Write(w)
			return
		}
		BadRequestError("multipart field \"receipt\" is required").Write(w)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		BadRequestError("unsupported image type " + ext).Write(w)
		return
	}

	path, err := s.spool(file, ext)
	if err != nil {
		if tooLarge(err) {
			ErrorResponse(http.StatusRequestEntityTooLarge, CodeBadRequest, "receipt image too large").Write(w)
			return
		}
		s.fail(w, r, log.OpIngest, err)
		return
	}
	defer os.Remove(path)

	d, err := s.reports.IngestImage(r.Context(), path)
	if err != nil {
		s.fail(w, r, log.OpIngest, err)
		return
	}
	NewJSONResponse().Body(draftResponse{Draft: d, DatesSupported: s.reports.DatesSupported()}).Write(w)
}

// spool copies an upload to a temp file for the recognizer.
func (s *Server) spool(src io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp(s.uploadDir, "receipt-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return f.Name(), nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
