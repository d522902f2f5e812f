package voice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/observability/telemetry"
	"github.com/smilecrm/smilecrm-voice/internal/ports"
)

const transcriptKeyPrefix = "voice:transcript:"

// CachedTranscriber remembers transcripts by audio hash so that a client
// retrying the same upload is not billed twice.
type CachedTranscriber struct {
	next  ports.Transcriber
	cache ports.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedTranscriber(next ports.Transcriber, cache ports.Cache, ttl time.Duration, log *zap.Logger) *CachedTranscriber {
	return &CachedTranscriber{next: next, cache: cache, ttl: ttl, log: log}
}

func (t *CachedTranscriber) Transcribe(ctx context.Context, clip domain.AudioClip, locale domain.Locale) (string, error) {
	key := transcriptKey(clip, locale)

	if text, err := t.cache.Get(ctx, key); err == nil {
		telemetry.TranscriptCacheTotal.WithLabelValues("hit").Inc()
		t.log.Debug("Transcript cache hit", zap.String("key", key))
		return text, nil
	}
	telemetry.TranscriptCacheTotal.WithLabelValues("miss").Inc()

	text, err := t.next.Transcribe(ctx, clip, locale)
	if err != nil {
		return "", err
	}
	// Silence is not cached.
	if text != "" {
		if err := t.cache.Set(ctx, key, text, t.ttl); err != nil {
			t.log.Warn("Failed to cache transcript", zap.Error(err))
		}
	}
	return text, nil
}

func transcriptKey(clip domain.AudioClip, locale domain.Locale) string {
	sum := sha256.Sum256(clip.Data)
	return transcriptKeyPrefix + hex.EncodeToString(sum[:]) + ":" + string(locale)
}
