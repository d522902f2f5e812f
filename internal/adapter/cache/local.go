package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/observability/telemetry"
	"github.com/smilecrm/smilecrm-voice/internal/ports"
)

// DefaultLocalEntries bounds the in-process cache when no size is configured.
const DefaultLocalEntries = 2048

type localEntry struct {
	text      string
	expiresAt time.Time
}

// LocalCache keeps transcripts (and token revocations) in process memory
// for single-instance deployments or when Redis is unreachable at startup.
// The least recently used entry goes first once maxEntries is reached;
// expired entries are dropped when they are next read.
type LocalCache struct {
	entries *lru.Cache[string, localEntry]
	now     func() time.Time
	log     *zap.Logger
}

func NewLocalCache(maxEntries int, log *zap.Logger) (*LocalCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultLocalEntries
	}
	entries, err := lru.New[string, localEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}
	log.Info("Local transcript cache initialized", zap.Int("max_entries", maxEntries))
	return &LocalCache{entries: entries, now: time.Now, log: log}, nil
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ports.ErrCacheMiss, key)
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.entries.Remove(key)
		telemetry.TranscriptCacheTotal.WithLabelValues("expired").Inc()
		return "", fmt.Errorf("%w: %s expired", ports.ErrCacheMiss, key)
	}
	return e.text, nil
}

// Set stores text values only; anything else is a programming error.
func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("local cache stores text, got %T", value)
	}

	e := localEntry{text: text}
	if expiration > 0 {
		e.expiresAt = c.now().Add(expiration)
	}
	if c.entries.Add(key, e) {
		telemetry.TranscriptCacheTotal.WithLabelValues("evicted").Inc()
		c.log.Debug("Local cache full, evicted least recently used entry")
	}
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Len is the number of stored entries, expired ones included until read.
func (c *LocalCache) Len() int {
	return c.entries.Len()
}

func (c *LocalCache) Ping() error {
	return nil
}

func (c *LocalCache) Close() error {
	c.entries.Purge()
	return nil
}
