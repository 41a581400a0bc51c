package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func TestRecordUserOperation_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUserOperation("create", "success")
	c.RecordUserOperation("create", "success")
	c.RecordUserOperation("create", "invalid")

	mf := findMetric(t, reg, "eventdesk_user_operations_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label sets, got %d", len(mf.GetMetric()))
	}

	var total float64
	for _, m := range mf.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	if total != 3 {
		t.Errorf("user_operations_total sum = %v, want 3", total)
	}
}

func TestRecordHTTPRequest_UsesUnmatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest(http.MethodGet, "", http.StatusNotFound, 5*time.Millisecond)

	mf := findMetric(t, reg, "eventdesk_http_requests_total")
	labels := map[string]string{}
	for _, lp := range mf.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	if labels["route"] != "unmatched" {
		t.Errorf("route label = %q, want unmatched", labels["route"])
	}
	if labels["status_code"] != "404" {
		t.Errorf("status_code label = %q, want 404", labels["status_code"])
	}
}

func TestRecordLogin_LabelsResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin("web", false)

	mf := findMetric(t, reg, "eventdesk_logins_total")
	for _, lp := range mf.GetMetric()[0].GetLabel() {
		if lp.GetName() == "result" && lp.GetValue() != "failure" {
			t.Errorf("result label = %q, want failure", lp.GetValue())
		}
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRegistration("registered")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "eventdesk_event_registrations_total") {
		t.Error("response should contain eventdesk_event_registrations_total")
	}
}
