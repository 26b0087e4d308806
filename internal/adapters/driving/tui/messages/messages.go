// Package messages defines Bubbletea message types for the chat TUI.
// Messages carry the results of pipeline calls back into the Elm loop.
package messages

import (
	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// IngestRequested asks the app to ingest URL into the index.
type IngestRequested struct {
	URL string
}

// IngestCompleted carries the outcome of an ingestion.
type IngestCompleted struct {
	URL    string
	Result *domain.IngestResult
	Err    error
}

// QuestionAsked asks the app to answer Question.
type QuestionAsked struct {
	Question string
}

// AnswerCompleted carries the outcome of a question.
type AnswerCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// ViewChanged is sent when the prompt switches mode.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies what the prompt is currently collecting.
type ViewType int

const (
	// ViewURL collects a page URL to ingest.
	ViewURL ViewType = iota
	// ViewChat collects questions about ingested pages.
	ViewChat
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewURL:
		return "url"
	case ViewChat:
		return "chat"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened outside a pipeline call.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
