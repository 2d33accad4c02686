package speech

import (
	"context"
	"encoding/hex"
	"hash"
	"hash/fnv"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/disgoorg/log"
	"github.com/go-redis/cache/v9"
)

var _ Synthesizer = (*CachedSynthesizer)(nil)

// CachedSynthesizer is a wrapper around a Synthesizer that caches the generated audio data.
// It uses redis to store the audio data with a key based on hash of the text, voice and speaking rate.
type CachedSynthesizer struct {
	next  Synthesizer
	cache *cache.Cache
	ttl   time.Duration

	mu   sync.Mutex
	hash hash.Hash
}

// NewCachedSynthesizer creates a new CachedSynthesizer. A nil hash defaults to fnv-64a.
func NewCachedSynthesizer(next Synthesizer, redisCache *cache.Cache, ttl time.Duration, hash hash.Hash) *CachedSynthesizer {
	if hash == nil {
		hash = fnv.New64a()
	}

	return &CachedSynthesizer{
		next:  next,
		cache: redisCache,
		ttl:   ttl,
		hash:  hash,
	}
}

func (c *CachedSynthesizer) Name() string {
	return c.next.Name() + "-cached"
}

func (c *CachedSynthesizer) Synthesize(ctx context.Context, request SynthesisRequest) (*Audio, error) {
	key := c.generateKey(request)

	var audio Audio
	if err := c.cache.Get(ctx, key, &audio); err == nil {
		slog.Debug("cache hit", "key", key, "synthesizer", c.Name())
		return &audio, nil
	}

	generated, err := c.next.Synthesize(ctx, request)
	if err != nil {
		return nil, err
	}

	// narration starts right away, the cache is filled in the background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.cache.Set(&cache.Item{
			Ctx:   ctx,
			Key:   key,
			Value: generated,
			TTL:   c.ttl,
		}); err != nil {
			log.Warn("failed to cache audio data", "error", err, "key", key)
		}
	}()

	return generated, nil
}

// generateKey creates a unique key for the cache based on the request parameters.
func (c *CachedSynthesizer) generateKey(request SynthesisRequest) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hash.Reset()
	c.hash.Write([]byte(c.next.Name()))
	c.hash.Write([]byte(request.LanguageCode))
	c.hash.Write([]byte(request.VoiceName))
	c.hash.Write([]byte(strconv.FormatFloat(request.SpeakingRate, 'f', 2, 64)))
	c.hash.Write([]byte(request.Text))
	return "audio:" + hex.EncodeToString(c.hash.Sum(nil))
}
