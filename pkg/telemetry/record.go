package telemetry

import (
	"strconv"
	"time"
)

// ModelListSource records where the model selector list came from at build
// time.
type ModelListSource string

const (
	SourceDynamic  ModelListSource = "dynamic"
	SourceFallback ModelListSource = "fallback"
)

// WebStatus records the outcome of the web-fetch capability for one turn.
type WebStatus string

const (
	WebStatusOff     WebStatus = "off"
	WebStatusOK      WebStatus = "ok"
	WebStatusBlocked WebStatus = "blocked"
)

// RunRecord is the immutable fact describing one completed or aborted turn.
// Records are appended to the store exactly once and never mutated.
type RunRecord struct {
	Timestamp        time.Time
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	LatencyMs        int64
	CostUSD          float64
	ExperimentID     string
	TaskLabel        string
	RunNotes         string
	Streaming        bool
	ModelListSource  ModelListSource
	ToolWebEnabled   bool
	WebStatus        WebStatus
	Aborted          bool
}

// columns is the stable on-disk field order. Changing it is a schema break.
var columns = []string{
	"ts", "agent_name", "model", "prompt_tokens", "completion_tokens",
	"total_tokens", "latency_ms", "cost_usd", "experiment_id", "task_label",
	"run_notes", "streaming", "model_list_source", "tool_web_enabled",
	"web_status", "aborted",
}

func (r RunRecord) row() []string {
	return []string{
		r.Timestamp.Format(time.RFC3339Nano),
		r.AgentName,
		r.Model,
		strconv.Itoa(r.PromptTokens),
		strconv.Itoa(r.CompletionTokens),
		strconv.Itoa(r.TotalTokens),
		strconv.FormatInt(r.LatencyMs, 10),
		strconv.FormatFloat(r.CostUSD, 'f', -1, 64),
		r.ExperimentID,
		r.TaskLabel,
		r.RunNotes,
		strconv.FormatBool(r.Streaming),
		string(r.ModelListSource),
		strconv.FormatBool(r.ToolWebEnabled),
		string(r.WebStatus),
		strconv.FormatBool(r.Aborted),
	}
}
