package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.RecordPromptLogged()

	if got := testutil.ToFloat64(a.PromptsLoggedTotal); got != 1 {
		t.Errorf("a: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.PromptsLoggedTotal); got != 0 {
		t.Errorf("b: got %v, want 0", got)
	}
}

func TestRecordImport(t *testing.T) {
	m := New()
	m.RecordImport(12, nil)
	m.RecordImport(0, nil)
	m.RecordImport(0, errors.New("boom"))

	if got := testutil.ToFloat64(m.MessagesImportedTotal); got != 12 {
		t.Errorf("messages: got %v, want 12", got)
	}
	for _, result := range []string{"ok", "empty", "error"} {
		if got := testutil.ToFloat64(m.ImportsTotal.WithLabelValues(result)); got != 1 {
			t.Errorf("imports[%s]: got %v, want 1", result, got)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	m.RecordImport(1, nil)
	m.RecordSuggestion("ai")
	m.RecordPromptLogged()
	m.RecordPromptSnoozed()
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.RecordSuggestion("fallback")
	m.RecordHTTPRequest("GET", "/api/contacts", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`rekindle_suggestions_total{source="fallback"} 1`,
		`rekindle_http_requests_total{method="GET",route="/api/contacts",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}
