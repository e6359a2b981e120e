package pipeline

import (
	"time"

	"github.com/espresso-charts/studio/internal/timing"
)

// Phase names the dispatcher's fixed per-story sequence.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseCover    Phase = "cover"
	PhaseCharts   Phase = "charts"
	PhaseReel     Phase = "reel"
	PhaseAudio    Phase = "audio"
)

// PhaseOrder is the strict execution sequence; later phases consume
// files produced by earlier ones.
var PhaseOrder = []Phase{PhaseValidate, PhaseCover, PhaseCharts, PhaseReel, PhaseAudio}

// StoryStatus summarizes one story's run outcome.
type StoryStatus string

const (
	StoryCompleted StoryStatus = "completed"
	StoryFailed    StoryStatus = "failed"
)

// UnitReport records one produced asset.
type UnitReport struct {
	Unit string `json:"unit"`
	Tag  string `json:"tag,omitempty"`
	Path string `json:"path"`
}

// StoryReport records one story's run: what was produced, how long the
// reel and voiceover were estimated at, and where processing stopped if
// it failed.
type StoryReport struct {
	StoryID     int             `json:"story_id"`
	Slug        string          `json:"slug"`
	Status      StoryStatus     `json:"status"`
	Estimate    timing.Estimate `json:"estimate"`
	Units       []UnitReport    `json:"units,omitempty"`
	FailedPhase Phase           `json:"failed_phase,omitempty"`
	Err         string          `json:"error,omitempty"`
}

// Report is the record of one week run.
type Report struct {
	RunID      string        `json:"run_id"`
	Week       string        `json:"week"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stories    []StoryReport `json:"stories"`
}

// Failed returns the stories that did not complete.
func (r Report) Failed() []StoryReport {
	var out []StoryReport
	for _, story := range r.Stories {
		if story.Status != StoryCompleted {
			out = append(out, story)
		}
	}
	return out
}

// Completed reports whether every story finished.
func (r Report) Completed() bool {
	return len(r.Failed()) == 0
}
