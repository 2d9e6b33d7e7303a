package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"civil-quiz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Catalog reads the manifest from quiz_manifest and question sets stored as
// JSONB in question_sets, keyed by the manifest's file reference.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) Manifest(ctx context.Context) ([]domain.ManifestEntry, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, name, file FROM quiz_manifest ORDER BY position`)
	if err != nil {
		return nil, &domain.CatalogError{Err: err}
	}
	defer rows.Close()

	var entries []domain.ManifestEntry
	for rows.Next() {
		var e domain.ManifestEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.File); err != nil {
			return nil, &domain.CatalogError{Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.CatalogError{Err: err}
	}
	return entries, nil
}

func (c *Catalog) Questions(ctx context.Context, file string) ([]domain.Question, error) {
	var raw []byte
	err := c.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE file=$1`, file).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return nil, &domain.NetworkError{Op: "load " + file, Err: fmt.Errorf("query question set: %w", err)}
	}
	var set []domain.Question
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, &domain.NetworkError{Op: "load " + file, Err: fmt.Errorf("unmarshal question set: %w", err)}
	}
	return set, nil
}
