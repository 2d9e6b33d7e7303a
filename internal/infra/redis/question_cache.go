package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QuestionCache stores question sets as JSON strings in Redis and falls
// back to the wrapped source on a miss.
// Sets are stored as: SET quiz:questions:{file} <json> EX ttl
type QuestionCache struct {
	client *redis.Client
	source app.QuestionSource
	ttl    time.Duration
	log    *zap.Logger
	sf     singleflight.Group

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, source app.QuestionSource, ttl time.Duration, log *zap.Logger) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, file string) ([]domain.Question, error) {
	key := c.key(file)
	if set, ok := c.cached(ctx, key); ok {
		return set, nil
	}

	result, err, _ := c.sf.Do(file, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := c.cached(ctx, key); ok {
			return set, nil
		}

		set, err := c.source.Questions(ctx, file)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(set)
		if err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err(); err != nil {
				c.log.Warn("cache question set", zap.String("file", file), zap.Error(err))
			}
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var set []domain.Question
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, false
	}
	return set, true
}

func (c *QuestionCache) key(file string) string {
	return "quiz:questions:" + file
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	jitter := c.rnd.Int63n(jitterMax + 1)
	c.mu.Unlock()
	return c.ttl + time.Duration(jitter)
}
