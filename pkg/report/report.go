// Package report records what happened to each crawl target: how many pastes
// were discovered and saved, which ones failed and why the crawl stopped.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Mode is the operation a report describes
type Mode string

const (
	ModeDownload Mode = "download"
	ModeList     Mode = "list"
)

// Stage identifies where a paste failed
type Stage string

const (
	StageFetch Stage = "fetch"
	StageSave  Stage = "save"
)

// Failure is one paste that could not be retrieved or written
type Failure struct {
	Reference string `json:"reference"`
	Title     string `json:"title,omitempty"`
	Stage     Stage  `json:"stage"`
	Error     string `json:"error"`
}

// TargetReport is the outcome of one crawl target
type TargetReport struct {
	RunID        string        `json:"run_id"`
	Target       string        `json:"target"`
	AuthorSlug   string        `json:"author_slug"`
	Mode         Mode          `json:"mode"`
	Discovered   int           `json:"discovered"`
	Saved        int           `json:"saved"`
	Partial      int           `json:"partial"`
	Files        []string      `json:"files,omitempty"`
	Failures     []Failure     `json:"failures,omitempty"`
	PagesFetched int           `json:"pages_fetched"`
	StopReason   string        `json:"stop_reason,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
	Err          string        `json:"error,omitempty"`
}

// NewRunID returns a fresh identifier shared by all reports of one invocation
func NewRunID() string {
	return uuid.NewString()
}

// New starts a report for target
func New(runID, target, authorSlug string, mode Mode) *TargetReport {
	return &TargetReport{
		RunID:      runID,
		Target:     target,
		AuthorSlug: authorSlug,
		Mode:       mode,
		StartedAt:  time.Now().UTC(),
	}
}

// AddFailure records a failed paste
func (r *TargetReport) AddFailure(ref, title string, stage Stage, err error) {
	r.Failures = append(r.Failures, Failure{
		Reference: ref,
		Title:     title,
		Stage:     stage,
		Error:     err.Error(),
	})
}

// AddSaved records a written file
func (r *TargetReport) AddSaved(path string, partial bool) {
	r.Saved++
	if partial {
		r.Partial++
	}
	r.Files = append(r.Files, path)
}

// Fail marks the whole target as failed
func (r *TargetReport) Fail(err error) {
	if err != nil {
		r.Err = err.Error()
	}
}

// Failed reports whether the target failed outright
func (r *TargetReport) Failed() bool {
	return r.Err != ""
}

// Finish stamps the elapsed time since StartedAt
func (r *TargetReport) Finish() {
	r.Duration = time.Since(r.StartedAt)
}

// Path returns where Save writes the report inside dir
func (r *TargetReport) Path(dir string) string {
	return filepath.Join(dir, r.AuthorSlug+".report.json")
}

// Save writes the report as JSON to <dir>/<authorSlug>.report.json
func (r *TargetReport) Save(dir string) (string, error) {
	path := r.Path(dir)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// Load reads a report written by Save
func Load(path string) (*TargetReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r TargetReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &r, nil
}

// RunSummary aggregates the reports of one invocation
type RunSummary struct {
	RunID         string
	Mode          Mode
	Targets       int
	FailedTargets int
	Discovered    int
	Saved         int
	Partial       int
	Failures      int
	Duration      time.Duration
}

// Summarize folds reports into a RunSummary. Nil reports are skipped.
func Summarize(runID string, mode Mode, reports []*TargetReport, elapsed time.Duration) RunSummary {
	s := RunSummary{RunID: runID, Mode: mode, Duration: elapsed}
	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Targets++
		if r.Failed() {
			s.FailedTargets++
		}
		s.Discovered += r.Discovered
		s.Saved += r.Saved
		s.Partial += r.Partial
		s.Failures += len(r.Failures)
	}
	return s
}

// OK reports whether every target completed
func (s RunSummary) OK() bool {
	return s.FailedTargets == 0
}
