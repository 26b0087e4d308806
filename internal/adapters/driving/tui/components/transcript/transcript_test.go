package transcript

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

func TestNew(t *testing.T) {
	tr := New(nil)

	require.NotNil(t, tr)
	assert.Empty(t, tr.Entries())
	assert.NotNil(t, tr.styles)
}

func TestTranscript_AddEntries(t *testing.T) {
	tr := New(nil)
	tr.SetSize(120, 20)

	tr.AddNotice("Ingested %d chunks", 3)
	tr.AddQuestion("What is the capital of France?")
	tr.AddAnswer(&domain.Answer{
		Text: "Paris.",
		Matches: []domain.Match{
			{Metadata: map[string]any{domain.MetaSource: "https://example.com/france"}},
		},
	})

	entries := tr.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, KindNotice, entries[0].Kind)
	assert.Equal(t, "Ingested 3 chunks", entries[0].Text)
	assert.Equal(t, KindQuestion, entries[1].Kind)
	assert.Equal(t, KindAnswer, entries[2].Kind)
	assert.Equal(t, []string{"https://example.com/france"}, entries[2].Sources)

	view := tr.View()
	assert.Contains(t, view, "You:")
	assert.Contains(t, view, "Paris.")
	assert.Contains(t, view, "source: https://example.com/france")
}

func TestTranscript_NilAnswerAndErrorIgnored(t *testing.T) {
	tr := New(nil)

	tr.AddAnswer(nil)
	tr.AddError(nil)

	assert.Empty(t, tr.Entries())
}

func TestTranscript_AddErrorNamesStage(t *testing.T) {
	tr := New(nil)
	tr.SetSize(120, 10)

	tr.AddError(domain.NewStageError(domain.StageFetch, domain.ErrFetch, errors.New("status 404")))

	require.Len(t, tr.Entries(), 1)
	assert.Equal(t, KindError, tr.Entries()[0].Kind)
	assert.Contains(t, tr.View(), "[fetch]")
}

func TestErrorText(t *testing.T) {
	staged := domain.NewStageError(domain.StageGenerate, domain.ErrGeneration, errors.New("rate limited"))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain error", errors.New("boom"), "boom"},
		{"stage error", staged, "[generate] "},
		{"wrapped stage error", fmt.Errorf("asking: %w", staged), "[generate] "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, ErrorText(tt.err), tt.want)
		})
	}
}

func TestTranscript_FollowsNewestEntry(t *testing.T) {
	tr := New(nil)
	tr.SetSize(40, 3)

	for i := 0; i < 20; i++ {
		tr.AddNotice("line %d", i)
	}

	assert.True(t, tr.AtBottom())
	assert.Contains(t, tr.View(), "line 19")

	tr.ScrollUp()
	assert.False(t, tr.AtBottom())

	for i := 0; i < 20; i++ {
		tr.ScrollDown()
	}
	assert.True(t, tr.AtBottom())
}

func TestTranscript_SetSizeClamps(t *testing.T) {
	tr := New(nil)

	tr.SetSize(0, 0)

	assert.Equal(t, 10, tr.viewport.Width)
	assert.Equal(t, 1, tr.viewport.Height)
}
