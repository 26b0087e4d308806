package mcp

import (
	"context"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// mockChatService implements driving.ChatService for testing.
type mockChatService struct {
	ingestResult *domain.IngestResult
	answer       *domain.Answer
	err          error

	lastSession *domain.Session
	lastURL     string
	lastQ       string
}

func (m *mockChatService) Ingest(_ context.Context, sess *domain.Session, url string) (*domain.IngestResult, error) {
	m.lastSession, m.lastURL = sess, url
	if m.err != nil {
		return nil, m.err
	}
	sess.MarkIngested(url)
	return m.ingestResult, nil
}

func (m *mockChatService) Ask(_ context.Context, sess *domain.Session, question string) (*domain.Answer, error) {
	m.lastSession, m.lastQ = sess, question
	sess.Record(domain.RoleUser, question)
	if m.err != nil {
		return nil, m.err
	}
	sess.Record(domain.RoleAssistant, m.answer.Text)
	return m.answer, nil
}
