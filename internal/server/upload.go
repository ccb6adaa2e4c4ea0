package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/extract"
)

const uploadStampLayout = "20060102_150405"

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := common.RequestIDFromContext(r.Context())
	sess := sessionFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.countUpload("too_large", "")
			writeError(w, fmt.Sprintf("File exceeds the %d byte upload limit", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	v := common.NewValidator().
		Field("file", name, common.Required, common.MaxLength(255), common.AllowedFileExt)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.countUpload("rejected", "")
		writeError(w, v.ErrorMessage(), http.StatusBadRequest)
		return
	}

	path, err := s.saveUpload(file, name)
	if err != nil {
		s.logger.Error("http.upload.save_failed", "req_id", reqID, "err", err)
		writeError(w, "Failed to save upload", http.StatusInternalServerError)
		return
	}

	a, err := s.analyzer.Analyze(r.Context(), extract.Document{Name: name, Path: path})
	if s.metrics != nil {
		s.metrics.ObserveAnalyze(time.Since(start))
	}
	if err != nil {
		s.countUpload("failed", "")
		s.writeAppError(w, err)
		return
	}

	if err := s.store.Append(r.Context(), a.Record); err != nil {
		s.countUpload("store_failed", a.RecordSource)
		s.logger.Error("http.upload.store_failed", "req_id", reqID, "err", err)
		writeError(w, "Failed to save prescription record", http.StatusInternalServerError)
		return
	}

	sess.SetDocument(a.Context, &a.Record)
	s.countUpload("ok", a.RecordSource)
	s.logger.Info("http.upload.ok",
		"req_id", reqID,
		"session_id", sess.ID,
		"name", name,
		"record_source", a.RecordSource,
		"medicines", len(a.MedicineInfo),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"data":          a.Record,
		"message":       "Prescription scanned and saved successfully!",
		"entities":      a.Entities,
		"medicine_info": a.MedicineInfo,
	})
}

// saveUpload writes the file as <UploadDir>/YYYYmmdd_HHMMSS_<name>.
func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir upload dir: %w", err)
	}
	path := filepath.Join(s.cfg.UploadDir, s.now().Format(uploadStampLayout)+"_"+name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close: %w", err)
	}
	return path, nil
}

// writeAppError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var ae *common.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
		if ae.Cause != nil {
			msg += ": " + ae.Cause.Error()
		}
	}
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat), errors.Is(err, common.ErrValidation):
		writeError(w, msg, http.StatusBadRequest)
	case common.IsKind(err, common.KindExtraction):
		writeError(w, msg, http.StatusUnprocessableEntity)
	default:
		writeError(w, msg, http.StatusInternalServerError)
	}
}

func (s *Server) countUpload(outcome, source string) {
	if s.metrics != nil {
		s.metrics.Uploads.WithLabelValues(outcome, source).Inc()
	}
}
