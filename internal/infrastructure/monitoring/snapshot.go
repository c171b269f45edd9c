package monitoring

import (
	"strings"
	"time"
)

// Snapshot is a point-in-time summary of the counters, for the JSON status
// endpoint and the dashboard.
type Snapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds float64   `json:"uptime_seconds"`

	TotalRequests    int64   `json:"total_requests"`
	ServerErrors     int64   `json:"server_errors"`
	ErrorRate        float64 `json:"error_rate"`
	AverageLatencyMs float64 `json:"average_latency_ms"`

	Mounts          int64            `json:"mounts"`
	ActiveSlots     int64            `json:"active_slots"`
	RelayEntries    int64            `json:"relay_entries"`
	RelayDropped    map[string]int64 `json:"relay_dropped"`
	SandboxRuns     map[string]int64 `json:"sandbox_runs"`
	SandboxLost     int64            `json:"sandbox_lost"`
	ActiveEditors   int64            `json:"active_editors"`
	StoreCalls      int64            `json:"store_calls"`
	StoreErrorCalls int64            `json:"store_error_calls"`
}

// Snapshot gathers the registry and folds each family into totals
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Timestamp:     time.Now(),
		UptimeSeconds: time.Since(m.started).Seconds(),
		RelayDropped:  map[string]int64{},
		SandboxRuns:   map[string]int64{},
	}

	families, err := m.registry.Gather()
	if err != nil {
		return snap
	}

	var latencySum float64
	var latencyCount uint64

	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			counter := int64(metric.GetCounter().GetValue())
			gauge := int64(metric.GetGauge().GetValue())

			switch mf.GetName() {
			case "penbox_http_requests_total":
				snap.TotalRequests += counter
				if strings.HasPrefix(labels["status"], "5") {
					snap.ServerErrors += counter
				}
			case "penbox_http_request_duration_seconds":
				latencySum += metric.GetHistogram().GetSampleSum()
				latencyCount += metric.GetHistogram().GetSampleCount()
			case "penbox_preview_mounts_total":
				snap.Mounts += counter
			case "penbox_preview_slots_active":
				snap.ActiveSlots = gauge
			case "penbox_relay_entries_total":
				snap.RelayEntries += counter
			case "penbox_relay_dropped_total":
				snap.RelayDropped[labels["reason"]] += counter
			case "penbox_sandbox_runs_total":
				snap.SandboxRuns[labels["outcome"]] += counter
			case "penbox_sandbox_runtimes_lost_total":
				snap.SandboxLost += counter
			case "penbox_ws_connections":
				snap.ActiveEditors = gauge
			case "penbox_store_calls_total":
				snap.StoreCalls += counter
				if labels["status"] == "error" {
					snap.StoreErrorCalls += counter
				}
			}
		}
	}

	if snap.TotalRequests > 0 {
		snap.ErrorRate = float64(snap.ServerErrors) / float64(snap.TotalRequests)
	}
	if latencyCount > 0 {
		snap.AverageLatencyMs = latencySum / float64(latencyCount) * 1000
	}
	return snap
}
