package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for generation and stage metrics.
// Implementations must tolerate being called from a single goroutine per run;
// the generator never calls them concurrently.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveGenerationDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncGenerationOutcome(outcome string) // outcome: success|warning|failed|canceled|skipped
	IncDiagnostic(severity, code string)
	AddFilesParsed(n int)
	SetDeclarations(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveGenerationDuration(time.Duration)    {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncGenerationOutcome(string)                {}
func (NoopRecorder) IncDiagnostic(string, string)               {}
func (NoopRecorder) AddFilesParsed(int)                         {}
func (NoopRecorder) SetDeclarations(int)                        {}
