package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Per-field parse-or-default helpers. Each is total: it reports whether the
// raw value was readable, but never panics or returns an error. The row
// parser decides whether a failed field invalidates the whole row.

// coerceInt reads a non-negative integer. Empty input defaults to 0. Numeric
// input is clamped to >= 0; NaN and infinities map to 0. Non-numeric input
// fails.
func coerceInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0, true
		}
		return int(v), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, true
	}
	return int(f), true
}

// coerceFloat reads a non-negative float with the same leniency as coerceInt.
func coerceFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0.0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0.0, true
	}
	return f, true
}

// coerceBool recognizes a fixed truthy set and defaults to false for
// everything else. It never fails a row.
func coerceBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func coerceSource(raw string) ModelListSource {
	if strings.TrimSpace(raw) == string(SourceDynamic) {
		return SourceDynamic
	}
	return SourceFallback
}

func coerceWebStatus(raw string) WebStatus {
	switch strings.TrimSpace(raw) {
	case string(WebStatusOK):
		return WebStatusOK
	case string(WebStatusBlocked):
		return WebStatusBlocked
	default:
		return WebStatusOff
	}
}

// parseRow converts one CSV row back into a RunRecord. Rows with the wrong
// field count, an unparseable timestamp, or a non-numeric numeric field are
// rejected; the caller skips them.
func parseRow(fields []string) (RunRecord, error) {
	if len(fields) != len(columns) {
		return RunRecord{}, fmt.Errorf("expected %d fields, got %d", len(columns), len(fields))
	}

	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(fields[0]))
	if err != nil {
		return RunRecord{}, fmt.Errorf("unparseable timestamp %q", fields[0])
	}

	promptTokens, ok := coerceInt(fields[3])
	if !ok {
		return RunRecord{}, fmt.Errorf("non-numeric prompt_tokens %q", fields[3])
	}
	completionTokens, ok := coerceInt(fields[4])
	if !ok {
		return RunRecord{}, fmt.Errorf("non-numeric completion_tokens %q", fields[4])
	}
	totalTokens, ok := coerceInt(fields[5])
	if !ok {
		return RunRecord{}, fmt.Errorf("non-numeric total_tokens %q", fields[5])
	}
	latency, ok := coerceInt(fields[6])
	if !ok {
		return RunRecord{}, fmt.Errorf("non-numeric latency_ms %q", fields[6])
	}
	cost, ok := coerceFloat(fields[7])
	if !ok {
		return RunRecord{}, fmt.Errorf("non-numeric cost_usd %q", fields[7])
	}

	return RunRecord{
		Timestamp:        ts,
		AgentName:        fields[1],
		Model:            fields[2],
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		LatencyMs:        int64(latency),
		CostUSD:          cost,
		ExperimentID:     fields[8],
		TaskLabel:        fields[9],
		RunNotes:         fields[10],
		Streaming:        coerceBool(fields[11]),
		ModelListSource:  coerceSource(fields[12]),
		ToolWebEnabled:   coerceBool(fields[13]),
		WebStatus:        coerceWebStatus(fields[14]),
		Aborted:          coerceBool(fields[15]),
	}, nil
}
