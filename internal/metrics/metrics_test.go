package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	if m.registry == nil {
		t.Error("Registry is nil")
	}

	// Verify run metrics
	if m.RunsTotal == nil {
		t.Error("RunsTotal is nil")
	}
	if m.RunDuration == nil {
		t.Error("RunDuration is nil")
	}
	if m.TokensTotal == nil {
		t.Error("TokensTotal is nil")
	}
	if m.CostTotal == nil {
		t.Error("CostTotal is nil")
	}

	// Verify catalog metrics
	if m.CatalogRefreshesTotal == nil {
		t.Error("CatalogRefreshesTotal is nil")
	}

	// Verify telemetry store metrics
	if m.TelemetryAppendErrorsTotal == nil {
		t.Error("TelemetryAppendErrorsTotal is nil")
	}
	if m.TelemetryRowsSkippedTotal == nil {
		t.Error("TelemetryRowsSkippedTotal is nil")
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()

	// Record some sample metrics so they appear in output
	m.RunsTotal.WithLabelValues("test", "completed").Inc()
	m.RunDuration.WithLabelValues("test").Observe(1.0)
	m.TokensTotal.WithLabelValues("test", "prompt").Add(100)
	m.CostTotal.WithLabelValues("test").Add(0.05)
	m.CatalogRefreshesTotal.WithLabelValues("dynamic").Inc()

	handler := m.Handler()
	if handler == nil {
		t.Fatal("Handler returned nil")
	}

	// Test HTTP endpoint
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()

	// Verify metrics are exposed
	expectedMetrics := []string{
		"agent_runs_total",
		"agent_run_duration_seconds",
		"agent_tokens_total",
		"agent_cost_usd_total",
		"catalog_refreshes_total",
		"telemetry_append_errors_total",
		"telemetry_rows_skipped_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Metrics output missing: %s", metric)
		}
	}
}

func TestMetricsRegistry(t *testing.T) {
	m := NewMetrics()

	registry := m.Registry()
	if registry == nil {
		t.Fatal("Registry returned nil")
	}

	// Record some sample metrics so they appear in gather
	m.RunsTotal.WithLabelValues("test", "completed").Inc()
	m.RunDuration.WithLabelValues("test").Observe(1.0)
	m.TokensTotal.WithLabelValues("test", "completion").Add(42)
	m.CostTotal.WithLabelValues("test").Add(0.01)
	m.CatalogRefreshesTotal.WithLabelValues("fallback").Inc()

	// Verify metrics are registered
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Error("No metrics registered")
	}

	// Count registered metrics
	metricNames := make(map[string]bool)
	for _, mf := range metricFamilies {
		metricNames[*mf.Name] = true
	}

	expectedCount := 7 // Total number of metrics
	if len(metricNames) != expectedCount {
		t.Errorf("Expected %d metrics, got %d", expectedCount, len(metricNames))
	}
}

func TestRunMetrics(t *testing.T) {
	m := NewMetrics()

	t.Run("increment runs by outcome", func(t *testing.T) {
		m.RunsTotal.WithLabelValues("test-agent", "completed").Inc()
		m.RunsTotal.WithLabelValues("test-agent", "aborted").Inc()

		metricFamilies, _ := m.registry.Gather()
		found := false
		for _, mf := range metricFamilies {
			if *mf.Name == "agent_runs_total" {
				found = true
				if len(mf.Metric) != 2 {
					t.Errorf("Expected 2 labeled series, got %d", len(mf.Metric))
				}
			}
		}
		if !found {
			t.Error("agent_runs_total metric not found")
		}
	})

	t.Run("record run duration", func(t *testing.T) {
		m.RunDuration.WithLabelValues("test-agent").Observe(1.5)

		metricFamilies, _ := m.registry.Gather()
		found := false
		for _, mf := range metricFamilies {
			if *mf.Name == "agent_run_duration_seconds" {
				found = true
			}
		}
		if !found {
			t.Error("agent_run_duration_seconds metric not found")
		}
	})

	t.Run("accumulate token counts", func(t *testing.T) {
		m.TokensTotal.WithLabelValues("test-agent", "prompt").Add(1000)
		m.TokensTotal.WithLabelValues("test-agent", "completion").Add(500)

		metricFamilies, _ := m.registry.Gather()
		found := false
		for _, mf := range metricFamilies {
			if *mf.Name == "agent_tokens_total" {
				found = true
			}
		}
		if !found {
			t.Error("agent_tokens_total metric not found")
		}
	})

	t.Run("accumulate cost", func(t *testing.T) {
		m.CostTotal.WithLabelValues("test-agent").Add(2.0)

		metricFamilies, _ := m.registry.Gather()
		for _, mf := range metricFamilies {
			if *mf.Name == "agent_cost_usd_total" {
				if len(mf.Metric) > 0 && *mf.Metric[0].Counter.Value != 2.0 {
					t.Errorf("Expected value 2.0, got %f", *mf.Metric[0].Counter.Value)
				}
			}
		}
	})
}

func TestCatalogMetrics(t *testing.T) {
	m := NewMetrics()

	m.CatalogRefreshesTotal.WithLabelValues("dynamic").Inc()
	m.CatalogRefreshesTotal.WithLabelValues("fallback").Inc()
	m.CatalogRefreshesTotal.WithLabelValues("fallback").Inc()

	metricFamilies, _ := m.registry.Gather()
	found := false
	for _, mf := range metricFamilies {
		if *mf.Name == "catalog_refreshes_total" {
			found = true
			if len(mf.Metric) != 2 {
				t.Errorf("Expected 2 labeled series, got %d", len(mf.Metric))
			}
		}
	}
	if !found {
		t.Error("catalog_refreshes_total metric not found")
	}
}

func TestMetricsIsolation(t *testing.T) {
	// Create two separate metrics instances
	m1 := NewMetrics()
	m2 := NewMetrics()

	// Increment metrics in m1
	m1.TelemetryAppendErrorsTotal.Inc()
	m1.TelemetryAppendErrorsTotal.Inc()

	// Increment metrics in m2
	m2.TelemetryAppendErrorsTotal.Inc()

	// Verify m1 has 2
	metricFamilies1, _ := m1.registry.Gather()
	for _, mf := range metricFamilies1 {
		if *mf.Name == "telemetry_append_errors_total" {
			if len(mf.Metric) > 0 && *mf.Metric[0].Counter.Value != 2 {
				t.Errorf("m1: Expected value 2, got %f", *mf.Metric[0].Counter.Value)
			}
		}
	}

	// Verify m2 has 1
	metricFamilies2, _ := m2.registry.Gather()
	for _, mf := range metricFamilies2 {
		if *mf.Name == "telemetry_append_errors_total" {
			if len(mf.Metric) > 0 && *mf.Metric[0].Counter.Value != 1 {
				t.Errorf("m2: Expected value 1, got %f", *mf.Metric[0].Counter.Value)
			}
		}
	}
}
