package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docgen"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry           *prom.Registry
	stageDuration      *prom.HistogramVec
	generationDuration prom.Histogram
	stageResults       *prom.CounterVec
	generationOutcome  *prom.CounterVec
	diagnostics        *prom.CounterVec
	filesParsed        prom.Counter
	declarations       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual generation stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.generationDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Total generation duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.generationOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "generation_outcomes_total",
		Help:      "Generation outcomes by final status",
	}, []string{"outcome"})
	pr.diagnostics = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "diagnostics_total",
		Help:      "Diagnostics emitted by severity and code",
	}, []string{"severity", "code"})
	pr.filesParsed = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "files_parsed_total",
		Help:      "Source files parsed successfully",
	})
	pr.declarations = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "declarations",
		Help:      "Declarations in the last documented module",
	})
	reg.MustRegister(pr.stageDuration, pr.generationDuration, pr.stageResults, pr.generationOutcome,
		pr.diagnostics, pr.filesParsed, pr.declarations)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveGenerationDuration(d time.Duration) {
	if p == nil || p.generationDuration == nil {
		return
	}
	p.generationDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncGenerationOutcome(outcome string) {
	if p == nil || p.generationOutcome == nil {
		return
	}
	p.generationOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncDiagnostic(severity, code string) {
	if p == nil || p.diagnostics == nil {
		return
	}
	p.diagnostics.WithLabelValues(severity, code).Inc()
}

func (p *PrometheusRecorder) AddFilesParsed(n int) {
	if p == nil || p.filesParsed == nil || n <= 0 {
		return
	}
	p.filesParsed.Add(float64(n))
}

func (p *PrometheusRecorder) SetDeclarations(n int) {
	if p == nil || p.declarations == nil {
		return
	}
	p.declarations.Set(float64(n))
}

// WriteTextfile writes the current metric values in the Prometheus text format,
// suitable for the node_exporter textfile collector. The write is atomic.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.registry == nil {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
