package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/mediscan/internal/chat"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entities"
	"github.com/joseph-ayodele/mediscan/internal/entity"
	"github.com/joseph-ayodele/mediscan/internal/export"
	"github.com/joseph-ayodele/mediscan/internal/extract"
	"github.com/joseph-ayodele/mediscan/internal/observability"
	"github.com/joseph-ayodele/mediscan/internal/pipeline"
	"github.com/joseph-ayodele/mediscan/internal/repository"
)

type fakeAnalyzer struct {
	err error
}

func (f fakeAnalyzer) Analyze(_ context.Context, doc extract.Document) (*pipeline.Analysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := os.Stat(doc.Path); err != nil {
		return nil, err
	}
	rec := entity.PrescriptionRecord{
		PatientName: "Jane Doe",
		Medications: []entity.Medication{{MedicineName: "Paracetamol", Dosage: "500mg"}},
	}
	return &pipeline.Analysis{
		Document:     doc,
		Entities:     entities.Entities{PatientName: "Jane Doe", Medicines: []string{"paracetamol"}, Diseases: []string{}},
		Record:       rec,
		RecordSource: pipeline.SourceEntities,
		MedicineInfo: []entity.MedicineInfo{{Name: "paracetamol", DisplayName: "Paracetamol", Info: "pain relief"}},
		Context:      "Medicine: Paracetamol, Function: pain relief",
	}, nil
}

type fakeResponder struct {
	lastContext string
	lastHistory int
}

func (f *fakeResponder) Respond(_ context.Context, docContext, question string, history []chat.Turn) string {
	f.lastContext = docContext
	f.lastHistory = len(history)
	if docContext == "" {
		return chat.CannotFind
	}
	return "**Paracetamol** is used for pain relief."
}

type harness struct {
	ts        *httptest.Server
	client    *http.Client
	responder *fakeResponder
	sessions  *chat.Manager
}

func newHarness(t *testing.T, analyzer Analyzer, maxBytes int64) *harness {
	t.Helper()
	dir := t.TempDir()
	store := repository.NewCSVStore(filepath.Join(dir, "prescriptions.csv"), nil)
	tokens, err := chat.NewTokenSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	responder := &fakeResponder{}
	sessions := chat.NewManager(10, nil)
	srv := New(Config{UploadDir: filepath.Join(dir, "uploads"), MaxUploadBytes: maxBytes}, Deps{
		Analyzer:  analyzer,
		Store:     store,
		Exporter:  export.NewService(store, nil),
		Sessions:  sessions,
		Tokens:    tokens,
		Responder: responder,
		Metrics:   observability.NewMetrics("test"),
	}, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	jar, _ := cookiejar.New(nil)
	return &harness{ts: ts, client: &http.Client{Jar: jar}, responder: responder, sessions: sessions}
}

func (h *harness) upload(t *testing.T, name string, content []byte) (*http.Response, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()
	res, err := h.client.Post(h.ts.URL+"/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return res, decodeBody(t, res)
}

func (h *harness) send(t *testing.T, message string) (*http.Response, map[string]any) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"message": message})
	res, err := h.client.Post(h.ts.URL+"/chat/send", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("chat send: %v", err)
	}
	return res, decodeBody(t, res)
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	out := map[string]any{}
	raw, _ := io.ReadAll(res.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
	}
	return out
}

func TestUploadThenChat(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 0)

	res, body := h.upload(t, "rx.txt", []byte("Patient Name: Jane Doe"))
	if res.StatusCode != http.StatusOK || body["success"] != true {
		t.Fatalf("upload status=%d body=%v", res.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	if data["patient_name"] != "Jane Doe" {
		t.Fatalf("unexpected data %v", data)
	}
	if _, ok := body["medicine_info"].([]any); !ok {
		t.Fatalf("missing medicine_info: %v", body)
	}

	res, body = h.send(t, "What is this used for?")
	if res.StatusCode != http.StatusOK || body["success"] != true {
		t.Fatalf("chat status=%d body=%v", res.StatusCode, body)
	}
	if !strings.Contains(h.responder.lastContext, "Paracetamol") {
		t.Fatalf("responder did not get the session context: %q", h.responder.lastContext)
	}
	if html, _ := body["html"].(string); !strings.Contains(html, "<strong>Paracetamol</strong>") {
		t.Fatalf("expected rendered markdown, got %q", html)
	}

	_, _ = h.send(t, "And the dose?")
	if h.responder.lastHistory != 2 {
		t.Fatalf("expected prior exchange in history, got %d turns", h.responder.lastHistory)
	}
	if h.sessions.Len() != 1 {
		t.Fatalf("cookie should keep one session, got %d", h.sessions.Len())
	}
}

func TestChatWithoutDocument(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 0)
	_, body := h.send(t, "Who is the patient?")
	if body["message"] != chat.CannotFind {
		t.Fatalf("expected cannot-find reply, got %v", body["message"])
	}
}

func TestChatSendRequiresMessage(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 0)
	res, body := h.send(t, "   ")
	if res.StatusCode != http.StatusBadRequest || body["error"] != "No message provided" {
		t.Fatalf("status=%d body=%v", res.StatusCode, body)
	}
}

func TestChatClear(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 0)
	h.upload(t, "rx.txt", []byte("x"))
	h.send(t, "q1")

	res, err := h.client.Post(h.ts.URL+"/chat/clear", "application/json", nil)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if body := decodeBody(t, res); body["success"] != true {
		t.Fatalf("unexpected clear body %v", body)
	}
	h.send(t, "q2")
	if h.responder.lastHistory != 0 {
		t.Fatalf("history should be empty after clear, got %d", h.responder.lastHistory)
	}
}

func TestUploadRejectsExtension(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 0)
	res, body := h.upload(t, "notes.exe", []byte("x"))
	if res.StatusCode != http.StatusBadRequest || body["error"] == nil {
		t.Fatalf("status=%d body=%v", res.StatusCode, body)
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 1024)
	res, _ := h.upload(t, "rx.txt", bytes.Repeat([]byte("a"), 8*1024))
	if res.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.StatusCode)
	}
}

func TestUploadExtractionFailure(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{err: common.ExtractionError("decode text", errors.New("invalid UTF-8"))}, 0)
	res, body := h.upload(t, "rx.txt", []byte{0xff})
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%v)", res.StatusCode, body)
	}
	if !strings.Contains(body["error"].(string), "invalid UTF-8") {
		t.Fatalf("error should carry the cause: %v", body)
	}
}

func TestListRecords(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 0)

	res, err := h.client.Get(h.ts.URL + "/prescriptions")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	raw, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("expected empty array, got %s", raw)
	}

	h.upload(t, "rx.txt", []byte("x"))
	h.upload(t, "rx2.txt", []byte("y"))
	res, _ = h.client.Get(h.ts.URL + "/prescriptions")
	var rows []map[string]string
	_ = json.NewDecoder(res.Body).Decode(&rows)
	res.Body.Close()
	if len(rows) != 2 || rows[0]["patient_name"] != "Jane Doe" || rows[0]["medications"] != "Paracetamol - 500mg - N/A - N/A" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestExportRecords(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 0)
	h.upload(t, "rx.txt", []byte("x"))
	res, err := h.client.Get(h.ts.URL + "/prescriptions.xlsx")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK || !strings.Contains(res.Header.Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("status=%d type=%s", res.StatusCode, res.Header.Get("Content-Type"))
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, fakeAnalyzer{}, 0)
	res, err := h.client.Get(h.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	if body := decodeBody(t, res); body["status"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
}
