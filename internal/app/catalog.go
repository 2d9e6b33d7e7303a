package app

import (
	"context"
	"errors"
	"sort"

	"civil-quiz/internal/domain"
	"go.uber.org/zap"
)

// ManifestSource loads the list of available quizzes (HTTP, Postgres, object storage).
type ManifestSource interface {
	Manifest(ctx context.Context) ([]domain.ManifestEntry, error)
}

// QuestionSource loads the question set a manifest entry points at.
type QuestionSource interface {
	Questions(ctx context.Context, file string) ([]domain.Question, error)
}

// Catalog reads the manifest and question sets.
type Catalog struct {
	manifests ManifestSource
	questions QuestionSource
	log       *zap.Logger
}

func NewCatalog(manifests ManifestSource, questions QuestionSource, log *zap.Logger) *Catalog {
	return &Catalog{manifests: manifests, questions: questions, log: log}
}

// Load returns the manifest ordered by descending id. Entries sharing an id
// keep their source order.
func (c *Catalog) Load(ctx context.Context) ([]domain.ManifestEntry, error) {
	entries, err := c.manifests.Manifest(ctx)
	if err != nil {
		var catalogErr *domain.CatalogError
		if errors.As(err, &catalogErr) {
			return nil, err
		}
		return nil, &domain.CatalogError{Err: err}
	}
	sorted := make([]domain.ManifestEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID > sorted[j].ID
	})
	return sorted, nil
}

// Questions fetches a question set and drops entries that fail the presence
// check. An empty result is domain.ErrEmptyQuiz.
func (c *Catalog) Questions(ctx context.Context, file string) ([]domain.Question, error) {
	set, err := c.questions.Questions(ctx, file)
	if err != nil {
		return nil, err
	}
	usable := make([]domain.Question, 0, len(set))
	for i, q := range set {
		if !complete(q) {
			c.log.Warn("skipping incomplete question", zap.String("file", file), zap.Int("index", i))
			continue
		}
		usable = append(usable, q)
	}
	if len(usable) == 0 {
		return nil, domain.ErrEmptyQuiz
	}
	return usable, nil
}

func complete(q domain.Question) bool {
	return q.Text != "" && len(q.Options) > 0 && q.Answer >= 0 && q.Answer < len(q.Options)
}
