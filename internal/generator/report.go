package generator

import (
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docgen/internal/docgen"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/version"
)

// Outcome is the final result of a generation.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
	OutcomeSkipped  Outcome = "skipped"
)

// IssueCode used for stage failures that carry no classified code.
const IssueGenericStageError = "GENERIC_STAGE_ERROR"

// Issue is a structured record of a stage failure.
type Issue struct {
	Code     string         `json:"code"`
	Stage    StageName      `json:"stage"`
	Severity StageErrorKind `json:"severity"`
	Message  string         `json:"message"`
}

// Report captures what one generation did.
type Report struct {
	RunID           string
	Module          string
	Format          string
	OutputDirectory string
	Version         string
	Start           time.Time
	End             time.Time
	StageDurations  map[StageName]time.Duration
	StageResults    map[StageName]StageResult

	FilesParsed  int
	FilesFailed  int
	Packages     int
	Declarations int
	References   int
	Unresolved   int
	Inherited    int
	Examples     int
	SourceLinks  int
	FilesWritten int
	BrokenLinks  int

	// Warnings and Errors count emitted diagnostics by severity.
	Warnings int
	Errors   int

	Issues     []Issue
	Outcome    Outcome
	SkipReason string
}

func newReport(runID string, opts docgen.Options) *Report {
	return &Report{
		RunID:           runID,
		Module:          opts.ModuleName(),
		Format:          string(opts.OutputFormat()),
		OutputDirectory: opts.OutputDirectory(),
		Version:         version.Version,
		Start:           time.Now(),
		StageDurations:  map[StageName]time.Duration{},
		StageResults:    map[StageName]StageResult{},
	}
}

// AddIssue records a stage failure.
func (r *Report) AddIssue(se *StageError) {
	code := IssueGenericStageError
	if ce, ok := derrors.AsClassified(se.Err); ok && ce.Code() != "" {
		code = string(ce.Code())
	}
	r.Issues = append(r.Issues, Issue{Code: code, Stage: se.Stage, Severity: se.Kind, Message: se.Err.Error()})
}

// Finish sets the end time of the report.
func (r *Report) Finish() { r.End = time.Now() }

// Duration is the wall time between start and finish.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// DeriveOutcome sets Outcome from the terminal error and recorded warnings.
func (r *Report) DeriveOutcome(err error) {
	if err != nil {
		var se *StageError
		if errors.As(err, &se) && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
		r.Outcome = OutcomeFailed
		return
	}
	if r.Warnings > 0 || r.Errors > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	for _, res := range r.StageResults {
		if res == StageResultWarning {
			r.Outcome = OutcomeWarning
			return
		}
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("module=%s format=%s packages=%d declarations=%d files=%d warnings=%d errors=%d duration=%s outcome=%s",
		r.Module, r.Format, r.Packages, r.Declarations, r.FilesWritten, r.Warnings, r.Errors,
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}
