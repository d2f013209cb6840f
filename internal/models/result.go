package models

import (
	"encoding/json"
	"time"
)

// Status is the outcome class of a stage or a whole run.
// Ordered by severity: StatusOK < StatusDegraded < StatusFatal.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFatal    Status = "fatal"

	// StatusRunning marks a history row whose run has not finished. It never appears in an
	// Outcome.
	StatusRunning Status = "running"
)

func (s Status) rank() int {
	switch s {
	case StatusDegraded:
		return 1
	case StatusFatal:
		return 2
	default:
		return 0
	}
}

// Worse returns the more severe of s and o.
func (s Status) Worse(o Status) Status {
	if o.rank() > s.rank() {
		return o
	}
	return s
}

// Stage names a pipeline step.
type Stage string

const (
	StageRequest     Stage = "request"
	StageExtract     Stage = "extract"
	StageGenerate    Stage = "generate"
	StageWriteText   Stage = "write-text"
	StageMaterialize Stage = "materialize"
)

// Outcome records how one stage finished. Reason is empty for StatusOK.
type Outcome struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// OK returns a successful outcome for stage.
func OK(stage Stage) Outcome {
	return Outcome{Stage: stage, Status: StatusOK}
}

// Degraded returns a degraded outcome for stage with the given reason.
func Degraded(stage Stage, reason string) Outcome {
	return Outcome{Stage: stage, Status: StatusDegraded, Reason: reason}
}

// Fatal returns a fatal outcome for stage with the given reason.
func Fatal(stage Stage, reason string) Outcome {
	return Outcome{Stage: stage, Status: StatusFatal, Reason: reason}
}

// RunResult is the structured result of one pipeline run.
type RunResult struct {
	ID         string     `json:"id"`
	Request    RunRequest `json:"request"`
	SourceKind Kind       `json:"source_kind"`
	Method     string     `json:"method,omitempty"`
	Outcomes   []Outcome  `json:"outcomes"`
	Artifacts  []Artifact `json:"artifacts"`
	StartedAt  time.Time  `json:"started_at"`
	DurationMs int64      `json:"duration_ms"`
}

// Status returns the most severe stage status of the run.
func (r *RunResult) Status() Status {
	s := StatusOK
	for _, o := range r.Outcomes {
		s = s.Worse(o.Status)
	}
	return s
}

// MarshalJSON adds the derived run status to the encoded result.
func (r RunResult) MarshalJSON() ([]byte, error) {
	type plain RunResult
	return json.Marshal(struct {
		plain
		Status Status `json:"status"`
	}{plain(r), r.Status()})
}

// Problems returns the outcomes that are not OK, in stage order.
func (r *RunResult) Problems() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status != StatusOK {
			out = append(out, o)
		}
	}
	return out
}

// HistoryRecord is a persisted run summary.
type HistoryRecord struct {
	ID                string     `json:"id"`
	SourcePath        string     `json:"source_path"`
	SourceFingerprint string     `json:"source_fingerprint,omitempty"`
	InputKind         Kind       `json:"input_kind"`
	Format            Format     `json:"format"`
	Mode              Mode       `json:"mode"`
	Prompt            string     `json:"prompt"`
	Status            Status     `json:"status"`
	Reasons           []string   `json:"reasons,omitempty"`
	ProcessingTimeMs  int64      `json:"processing_time_ms"`
	CreatedAt         time.Time  `json:"created_at"`
	Artifacts         []Artifact `json:"artifacts,omitempty"`
}

// KindCount is the number of runs recorded for one input kind.
type KindCount struct {
	Kind  Kind  `json:"kind"`
	Count int64 `json:"count"`
}
