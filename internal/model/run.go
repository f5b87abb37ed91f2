package model

import "time"

// RunStatus represents the current state of a resolution run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one resolution of a Lead.
type Run struct {
	ID        string     `json:"id"`
	Lead      Lead       `json:"lead"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the outcome of a completed run.
type RunResult struct {
	Executives []Executive    `json:"executives"`
	Stats      RunStats       `json:"stats"`
	BySource   map[Source]int `json:"by_source,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// RunStats counts pipeline activity for one run.
type RunStats struct {
	Queries        int `json:"queries"`
	URLsProcessed  int `json:"urls_processed"`
	URLsSkipped    int `json:"urls_skipped"`
	Extractions    int `json:"extractions"`
	GatewayCalls   int `json:"gateway_calls"`
	ExecutivesSeen int `json:"executives_seen"`
}

// CountBySource tallies executives per provenance tag.
func CountBySource(execs []Executive) map[Source]int {
	out := make(map[Source]int)
	for _, e := range execs {
		out[e.Source]++
	}
	return out
}
