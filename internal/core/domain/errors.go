package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure leaving a pipeline stage wraps exactly one of
// these in a StageError, so callers can branch with errors.Is.
var (
	// ErrConfiguration indicates missing or invalid settings.
	// Fatal and never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrFetch indicates the document could not be retrieved or read.
	ErrFetch = errors.New("fetch error")

	// ErrIndexProvisioning indicates index creation failed or never became ready.
	ErrIndexProvisioning = errors.New("index provisioning error")

	// ErrEmbedding indicates the embedding service failed.
	ErrEmbedding = errors.New("embedding error")

	// ErrIndex indicates an upsert or query against the index failed.
	ErrIndex = errors.New("index error")

	// ErrGeneration indicates the language model call failed.
	ErrGeneration = errors.New("generation error")
)

// Errors returned by adapters.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrReadyTimeout indicates an index did not report ready in time.
	ErrReadyTimeout = errors.New("timed out waiting for index to become ready")
)

// Stage names the pipeline step an error came from.
type Stage string

// Pipeline stages.
const (
	StageConfig    Stage = "config"
	StageFetch     Stage = "fetch"
	StageChunk     Stage = "chunk"
	StageProvision Stage = "provision"
	StageEmbed     Stage = "embed"
	StageUpsert    Stage = "upsert"
	StageRetrieve  Stage = "retrieve"
	StageGenerate  Stage = "generate"
)

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// StageError tags a failure with the stage it happened in and its kind.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

// NewStageError builds a StageError. A nil err is replaced by kind.
func NewStageError(stage Stage, kind, err error) *StageError {
	if err == nil {
		err = kind
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// ConfigError is shorthand for a ConfigurationError raised in stage.
func ConfigError(stage Stage, format string, args ...any) *StageError {
	return NewStageError(stage, ErrConfiguration, fmt.Errorf(format, args...))
}

func (e *StageError) Error() string {
	if e.Err == nil || errors.Is(e.Kind, e.Err) {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *StageError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// StageOf returns the stage of the first StageError in err's chain.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// AsStageError tags err with stage and kind unless it already carries a stage.
func AsStageError(stage Stage, kind, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return NewStageError(stage, kind, err)
}
