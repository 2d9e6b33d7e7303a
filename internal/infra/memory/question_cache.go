package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionCache keeps fetched question sets in process with a TTL so that
// restarting a quiz does not refetch the file.
type QuestionCache struct {
	source app.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, file string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[file]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(file, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[file]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.source.Questions(ctx, file)
		if err != nil {
			return nil, err
		}

		// failed loads are not cached
		c.mu.Lock()
		c.cache[file] = cachedSet{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalog serves a manifest and question sets from memory (tests/demos).
type StaticCatalog struct {
	entries []domain.ManifestEntry
	sets    map[string][]domain.Question
}

func NewStaticCatalog(entries []domain.ManifestEntry, sets map[string][]domain.Question) *StaticCatalog {
	return &StaticCatalog{entries: entries, sets: sets}
}

func (s *StaticCatalog) Manifest(_ context.Context) ([]domain.ManifestEntry, error) {
	out := make([]domain.ManifestEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *StaticCatalog) Questions(_ context.Context, file string) ([]domain.Question, error) {
	if set, ok := s.sets[file]; ok {
		return set, nil
	}
	return nil, domain.ErrQuizNotFound
}
