package voice

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/mocks"
)

func TestCachedTranscriber(t *testing.T) {
	// Arrange
	stt := &mocks.MockTranscriber{Text: "vaghe vizit"}
	cache := mocks.NewMockCache()
	ct := NewCachedTranscriber(stt, cache, time.Hour, zap.NewNop())
	clip := domain.AudioClip{Data: []byte("same bytes"), ContentType: "audio/ogg"}

	// Act
	first, err1 := ct.Transcribe(context.Background(), clip, domain.LocaleArmenian)
	second, err2 := ct.Transcribe(context.Background(), clip, domain.LocaleArmenian)
	_, _ = ct.Transcribe(context.Background(), clip, domain.LocaleRussian)

	// Assert
	if err1 != nil || err2 != nil {
		t.Fatalf("expected no errors, got %v %v", err1, err2)
	}
	if first != "vaghe vizit" || second != first {
		t.Errorf("expected cached transcript, got %q and %q", first, second)
	}
	if stt.Calls != 2 {
		t.Errorf("expected provider called once per locale, got %d", stt.Calls)
	}
}

func TestCachedTranscriber_SkipsSilence(t *testing.T) {
	stt := &mocks.MockTranscriber{Text: ""}
	ct := NewCachedTranscriber(stt, mocks.NewMockCache(), time.Hour, zap.NewNop())
	clip := domain.AudioClip{Data: []byte("quiet")}

	_, _ = ct.Transcribe(context.Background(), clip, domain.LocaleAuto)
	_, _ = ct.Transcribe(context.Background(), clip, domain.LocaleAuto)

	if stt.Calls != 2 {
		t.Errorf("expected silence not to be cached, got %d calls", stt.Calls)
	}
}
