package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue は指定した名前のカウンタの現在値を返す。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}

	t.Fatalf("metric %s not found", name)
	return 0
}

// TestRecordHTTPStatus_IncrementsPerStatusCode はステータスコード別にカウンタが増加することを検証する。
func TestRecordHTTPStatus_IncrementsPerStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if val := counterValue(t, reg, "bloodlink_http_status_total"); val != 3 {
		t.Errorf("http_status_total = %v, want 3", val)
	}

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == "bloodlink_http_status_total" {
			if len(mf.GetMetric()) != 2 {
				t.Errorf("expected 2 label values (200, 404), got %d", len(mf.GetMetric()))
			}
		}
	}
}

// TestDonorRegistered_IncrementsCounter はドナー登録カウンタが増加することを検証する。
func TestDonorRegistered_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.DonorRegistered()
	c.DonorRegistered()

	if val := counterValue(t, reg, "bloodlink_donors_registered_total"); val != 2 {
		t.Errorf("donors_registered_total = %v, want 2", val)
	}
}

// TestUserRegistered_IncrementsCounter はユーザー登録カウンタが増加することを検証する。
func TestUserRegistered_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.UserRegistered()

	if val := counterValue(t, reg, "bloodlink_users_registered_total"); val != 1 {
		t.Errorf("users_registered_total = %v, want 1", val)
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシヒストグラムが記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(250 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "bloodlink_request_latency_seconds" {
			found = true
			if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 1 {
				t.Errorf("sample count = %d, want 1", count)
			}
		}
	}
	if !found {
		t.Error("bloodlink_request_latency_seconds metric not found")
	}
}

// TestHandler_ServesRegisteredMetrics は/metricsハンドラーが登録済みメトリクスを出力することを検証する。
func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.DonorRegistered()

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(string(body), "bloodlink_donors_registered_total 1") {
		t.Errorf("expected scrape output to contain donor counter, got:\n%s", body)
	}
}
