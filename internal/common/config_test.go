package common

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CHAT_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("RECORDS_BACKEND", " SQLite ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.MaxUploadBytes != 16<<20 {
		t.Fatalf("MaxUploadBytes = %d, want %d", cfg.Server.MaxUploadBytes, 16<<20)
	}
	if cfg.DrugInfo.Timeout != 10*time.Second {
		t.Fatalf("DrugInfo.Timeout = %v, want 10s", cfg.DrugInfo.Timeout)
	}
	if cfg.Vision.Timeout != 60*time.Second || cfg.Chat.Timeout != 45*time.Second {
		t.Fatalf("model timeouts = %v/%v, want 60s/45s", cfg.Vision.Timeout, cfg.Chat.Timeout)
	}
	if cfg.Chat.HistoryLimit != 10 {
		t.Fatalf("HistoryLimit = %d, want 10", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.APIKey != "gem-key" {
		t.Fatalf("Chat.APIKey = %q, want GEMINI_API_KEY fallback", cfg.Chat.APIKey)
	}
	if cfg.Records.Backend != BackendSQLite {
		t.Fatalf("Records.Backend = %q, want %q", cfg.Records.Backend, BackendSQLite)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	t.Setenv("RECORDS_BACKEND", "postgres")
	t.Setenv("DB_URL", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Validate() error = %v, want ErrInvalidInput", err)
	}

	t.Setenv("RECORDS_BACKEND", "csv")
	t.Setenv("RECORD_POLICY", "lenient")
	cfg, _ = LoadConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() accepted unknown record policy")
	}
}

func TestIsKind(t *testing.T) {
	cause := errors.New("disk full")
	err := StoreError("append row", cause)
	wrapped := fmt.Errorf("upload: %w", err)

	if !IsKind(wrapped, KindStore) {
		t.Fatalf("IsKind(store) = false, want true")
	}
	if IsKind(wrapped, KindExtraction) {
		t.Fatalf("IsKind(extraction) = true, want false")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("cause lost in chain")
	}
	nested := ExtractionError("record", LookupError("inner", nil))
	if !IsKind(nested, KindLookup) {
		t.Fatalf("IsKind should walk nested AppErrors")
	}
}

func TestValidatorAllowedFileExt(t *testing.T) {
	v := NewValidator().Field("file", "scan.PNG", Required, AllowedFileExt)
	if v.HasErrors() {
		t.Fatalf("unexpected errors: %s", v.ErrorMessage())
	}
	v = NewValidator().Field("file", "notes.exe", Required, AllowedFileExt)
	err := ValidateAndReturnError(v)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ValidateAndReturnError() = %v, want ErrValidation", err)
	}
}
