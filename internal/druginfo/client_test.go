package druginfo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLookupPrefersPurpose(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drug/label.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		want := `openfda.brand_name:"Advil" openfda.generic_name:"Advil"`
		if got := r.URL.Query().Get("search"); got != want {
			t.Errorf("search = %q, want %q", got, want)
		}
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		_, _ = io.WriteString(w, `{"results":[{"purpose":["Pain reliever","Fever reducer"],"indications_and_usage":["ignored"]}]}`)
	})

	if got := c.Lookup(context.Background(), "Advil"); got != "Pain reliever Fever reducer..." {
		t.Fatalf("Lookup() = %q", got)
	}
}

func TestLookupFallsBackToIndications(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[{"indications_and_usage":["For the treatment of infections."]}]}`)
	})
	if got := c.Lookup(context.Background(), "amoxicillin"); got != "For the treatment of infections...." {
		t.Fatalf("Lookup() = %q", got)
	}
}

func TestLookupTruncatesTo400(t *testing.T) {
	long := strings.Repeat("a", 500)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[{"purpose":["`+long+`"]}]}`)
	})
	got := c.Lookup(context.Background(), "x")
	if got != strings.Repeat("a", 400)+"..." {
		t.Fatalf("len = %d", len(got))
	}
}

func TestLookupUnknownReturnsFallback(t *testing.T) {
	var outcome string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`)
	})
	c.OnObserve(func(o string, _ time.Duration) { outcome = o })

	if got := c.Lookup(context.Background(), "notarealdrug"); got != Fallback {
		t.Fatalf("Lookup() = %q", got)
	}
	if outcome != "error" {
		t.Fatalf("outcome = %q", outcome)
	}
}

func TestLookupEmptyResultsAndBadJSON(t *testing.T) {
	for name, body := range map[string]string{
		"empty results": `{"results":[]}`,
		"no fields":     `{"results":[{"warnings":["x"]}]}`,
		"bad json":      `{"results":`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			if got := c.Lookup(context.Background(), "aspirin"); got != Fallback {
				t.Fatalf("Lookup() = %q", got)
			}
		})
	}
}

func TestLookupUnreachable(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if got := c.Lookup(context.Background(), "aspirin"); got != Fallback {
		t.Fatalf("Lookup() = %q", got)
	}
}

func TestDefaultTimeout(t *testing.T) {
	c := NewClient(Config{}, nil)
	if c.http.Timeout != 10*time.Second {
		t.Fatalf("timeout = %s", c.http.Timeout)
	}
}
