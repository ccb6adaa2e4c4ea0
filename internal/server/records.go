package server

import (
	"net/http"
	"time"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ReadAll(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if rows == nil {
		rows = []map[string]string{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleExportRecords(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.RecordsXLSX(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	name := "prescriptions_" + s.now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
