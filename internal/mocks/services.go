package mocks

import (
	"context"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// MockTranscriber is a mock implementation of ports.Transcriber
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, clip domain.AudioClip, locale domain.Locale) (string, error)
	Text           string
	Calls          int
	LastLocale     domain.Locale
}

func (m *MockTranscriber) Transcribe(ctx context.Context, clip domain.AudioClip, locale domain.Locale) (string, error) {
	m.Calls++
	m.LastLocale = locale
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, clip, locale)
	}
	return m.Text, nil
}

// MockLanguageModel is a mock implementation of ports.LanguageModel
type MockLanguageModel struct {
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Reply        string
	Calls        int
	LastSystem   string
	LastUser     string
}

func (m *MockLanguageModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.Calls++
	m.LastSystem = systemPrompt
	m.LastUser = userPrompt
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}
	return m.Reply, nil
}

// MockTokenVerifier is a mock implementation of ports.TokenVerifier
type MockTokenVerifier struct {
	VerifyFunc func(ctx context.Context, token string) (string, error)
}

func (m *MockTokenVerifier) Verify(ctx context.Context, token string) (string, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token)
	}
	return "doctor-1", nil
}
