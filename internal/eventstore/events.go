package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docgen/internal/foundation/errors"
)

// Event type names as stored in the events table.
const (
	TypeGenerationStarted  = "GenerationStarted"
	TypeStageCompleted     = "StageCompleted"
	TypeGenerationFinished = "GenerationFinished"
)

// GenerationStartedMeta describes the invocation that started a run.
type GenerationStartedMeta struct {
	Module          string `json:"module"`
	Format          string `json:"format"`
	OutputDirectory string `json:"output_directory"`
	Sources         int    `json:"sources"`
}

// GenerationStarted is recorded before the first stage runs.
type GenerationStarted struct {
	BaseEvent
	Meta GenerationStartedMeta
}

// StageCompletedMeta records one stage outcome.
type StageCompletedMeta struct {
	Stage      string `json:"stage"`
	Result     string `json:"result"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// StageCompleted is recorded after each stage, whatever its result.
type StageCompleted struct {
	BaseEvent
	Meta StageCompletedMeta
}

// GenerationFinishedMeta summarizes a finished run.
type GenerationFinishedMeta struct {
	State        string `json:"state"`
	Outcome      string `json:"outcome"`
	DurationMS   int64  `json:"duration_ms"`
	Files        int    `json:"files"`
	Declarations int    `json:"declarations"`
	Warnings     int    `json:"warnings"`
	Errors       int    `json:"errors"`
	Error        string `json:"error,omitempty"`
}

// GenerationFinished is the last event of every run.
type GenerationFinished struct {
	BaseEvent
	Meta GenerationFinishedMeta
}

func newBaseEvent(runID, eventType string, payload any) (BaseEvent, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, errors.WrapError(err, errors.CategoryEventStore, ErrMarshalPayloadFailed.Message()).
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   b,
	}, nil
}

// NewGenerationStarted creates a GenerationStarted event.
func NewGenerationStarted(runID string, meta GenerationStartedMeta) (*GenerationStarted, error) {
	base, err := newBaseEvent(runID, TypeGenerationStarted, meta)
	if err != nil {
		return nil, err
	}
	return &GenerationStarted{BaseEvent: base, Meta: meta}, nil
}

// NewStageCompleted creates a StageCompleted event.
func NewStageCompleted(runID string, meta StageCompletedMeta) (*StageCompleted, error) {
	base, err := newBaseEvent(runID, TypeStageCompleted, meta)
	if err != nil {
		return nil, err
	}
	return &StageCompleted{BaseEvent: base, Meta: meta}, nil
}

// NewGenerationFinished creates a GenerationFinished event.
func NewGenerationFinished(runID string, meta GenerationFinishedMeta) (*GenerationFinished, error) {
	base, err := newBaseEvent(runID, TypeGenerationFinished, meta)
	if err != nil {
		return nil, err
	}
	return &GenerationFinished{BaseEvent: base, Meta: meta}, nil
}
