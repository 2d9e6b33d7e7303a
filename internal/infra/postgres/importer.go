package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"civil-quiz/internal/domain"
	"github.com/uptrace/bun"
)

type manifestRow struct {
	bun.BaseModel `bun:"table:quiz_manifest"`

	Position int64  `bun:"position,pk,autoincrement"`
	ID       int    `bun:"id,notnull"`
	Name     string `bun:"name,notnull"`
	File     string `bun:"file,notnull"`
}

type questionSetRow struct {
	bun.BaseModel `bun:"table:question_sets"`

	File string          `bun:"file,pk"`
	Data json.RawMessage `bun:"data,type:jsonb,notnull"`
}

// Importer replaces the stored catalog with a manifest and its question sets.
type Importer struct {
	db *bun.DB
}

func NewImporter(db *bun.DB) *Importer {
	return &Importer{db: db}
}

// Import rewrites quiz_manifest in the given order and upserts every
// question set, all in one transaction.
func (i *Importer) Import(ctx context.Context, entries []domain.ManifestEntry, sets map[string][]domain.Question) error {
	return i.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*manifestRow)(nil)).Where("TRUE").Exec(ctx); err != nil {
			return fmt.Errorf("clear manifest: %w", err)
		}
		for _, e := range entries {
			row := &manifestRow{ID: e.ID, Name: e.Name, File: e.File}
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				return fmt.Errorf("insert manifest entry %d: %w", e.ID, err)
			}
		}
		for file, set := range sets {
			data, err := json.Marshal(set)
			if err != nil {
				return fmt.Errorf("encode %s: %w", file, err)
			}
			row := &questionSetRow{File: file, Data: data}
			_, err = tx.NewInsert().
				Model(row).
				On("CONFLICT (file) DO UPDATE").
				Set("data = EXCLUDED.data").
				Set("updated_at = now()").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", file, err)
			}
		}
		return nil
	})
}
