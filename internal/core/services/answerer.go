package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/logger"
)

// contextPlaceholder is where the retrieved context goes in the system prompt.
const contextPlaceholder = "%s"

// Answerer turns retrieved context and a question into a grounded answer.
type Answerer struct {
	llm              driven.LLMService
	prompts          driven.PromptStore
	tokens           driven.TokenCounter
	maxContextTokens int
	maxTokens        int
}

// AnswererOption configures an Answerer.
type AnswererOption func(*Answerer)

// WithTokenBudget truncates the context to max tokens before generation.
// A nil counter or non-positive max disables truncation.
func WithTokenBudget(counter driven.TokenCounter, max int) AnswererOption {
	return func(a *Answerer) {
		a.tokens = counter
		a.maxContextTokens = max
	}
}

// WithMaxTokens caps the length of the generated answer.
func WithMaxTokens(n int) AnswererOption {
	return func(a *Answerer) {
		a.maxTokens = n
	}
}

// NewAnswerer creates an answerer.
func NewAnswerer(llm driven.LLMService, prompts driven.PromptStore, opts ...AnswererOption) *Answerer {
	a := &Answerer{llm: llm, prompts: prompts}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer asks the model to answer question from contextText only.
// Empty context returns domain.DontKnowAnswer without calling the model.
// The model's reply is returned as is.
func (a *Answerer) Answer(ctx context.Context, contextText, question string) (string, error) {
	if emptyContext(contextText) {
		logger.Debug("empty context, skipping generation")
		return domain.DontKnowAnswer, nil
	}

	if a.tokens != nil && a.maxContextTokens > 0 {
		truncated, err := a.tokens.Truncate(contextText, a.maxContextTokens)
		if err != nil {
			return "", domain.NewStageError(domain.StageGenerate, domain.ErrGeneration,
				fmt.Errorf("truncate context: %w", err))
		}
		if len(truncated) < len(contextText) {
			logger.Debug("context truncated to %d tokens", a.maxContextTokens)
		}
		contextText = truncated
	}

	system, err := a.systemPrompt(contextText)
	if err != nil {
		return "", err
	}
	logger.Debug("prompt: %d chars of context, question %q", len(contextText), question)

	reply, err := a.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: question},
	}, driven.ChatOptions{MaxTokens: a.maxTokens, Temperature: 0})
	if err != nil {
		return "", domain.AsStageError(domain.StageGenerate, domain.ErrGeneration, err)
	}
	return reply, nil
}

// emptyContext reports whether contextText carries nothing to ground on.
func emptyContext(contextText string) bool {
	return strings.TrimSpace(contextText) == ""
}

// systemPrompt renders the grounding instruction around contextText.
// A template without a placeholder gets the context appended.
func (a *Answerer) systemPrompt(contextText string) (string, error) {
	if a.prompts == nil {
		return "", domain.ConfigError(domain.StageGenerate, "no prompt store configured")
	}
	tmpl, err := a.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", domain.ConfigError(domain.StageGenerate, "load prompt %s: %v", driven.PromptAnswerSystem, err)
	}
	if !strings.Contains(tmpl, contextPlaceholder) {
		return tmpl + ContextSeparator + contextText, nil
	}
	return strings.Replace(tmpl, contextPlaceholder, contextText, 1), nil
}
