package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"civil-quiz/internal/domain"
	pgcatalog "civil-quiz/internal/infra/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCatalogCmd groups catalog maintenance commands.
func NewCatalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the quiz catalog",
	}
	cmd.AddCommand(newCatalogImportCmd(configPath))
	return cmd
}

func newCatalogImportCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load list.json and its question sets from a directory into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogImport(cmd.Context(), *configPath, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding list.json")
	return cmd
}

func runCatalogImport(ctx context.Context, configPath, dir string) error {
	entries, sets, err := readCatalogDir(dir)
	if err != nil {
		return err
	}

	s, err := newStack(configPath)
	if err != nil {
		return err
	}
	defer s.close()

	if err := runMigrationsWithConfig(ctx, s.cfg, s.log); err != nil {
		return err
	}
	db, err := openBun(s.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := pgcatalog.NewImporter(db).Import(ctx, entries, sets); err != nil {
		return err
	}
	s.log.Info("catalog imported", zap.Int("quizzes", len(entries)), zap.Int("sets", len(sets)))
	return nil
}

// readCatalogDir reads list.json and every question set it references.
func readCatalogDir(dir string) ([]domain.ManifestEntry, map[string][]domain.Question, error) {
	var entries []domain.ManifestEntry
	if err := readJSON(filepath.Join(dir, "list.json"), &entries); err != nil {
		return nil, nil, err
	}
	sets := make(map[string][]domain.Question, len(entries))
	for _, e := range entries {
		if _, seen := sets[e.File]; seen {
			continue
		}
		var set []domain.Question
		if err := readJSON(filepath.Join(dir, filepath.FromSlash(e.File)), &set); err != nil {
			return nil, nil, err
		}
		sets[e.File] = set
	}
	return entries, sets, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
