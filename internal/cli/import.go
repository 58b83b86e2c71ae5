package cli

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"quiznufi-service/internal/domain"
	"quiznufi-service/internal/importer"

	"github.com/spf13/cobra"
)

// NewImportCmd loads CSV or YAML question banks into the question store.
func NewImportCmd(configPath *string) *cobra.Command {
	var opts importer.Options
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import questions from CSV or YAML files (upsert by question text)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured; imports into the in-memory bank would be lost")
			}
			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
			var rows []domain.Question
			for _, name := range args {
				f, err := os.Open(name)
				if err != nil {
					return err
				}
				parsed, err := importer.ReadFile(name, f)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				rows = append(rows, parsed...)
			}

			questions, err := importer.Build(rows, opts)
			if err != nil {
				return err
			}
			im := importer.New(b.questions, nil)
			if cache, ok := b.repository.(importer.CacheInvalidator); ok {
				im = im.WithCache(cache)
			}
			stats, err := im.Import(ctx, questions)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions (%d new, %d updated)\n", stats.Inserted+stats.Updated, stats.Inserted, stats.Updated)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.WrongOptions, "wrong-options", importer.DefaultWrongOptions, "wrong options to generate for rows without option columns")
	cmd.Flags().StringVar(&opts.PromptTemplate, "template", "", `prompt template, e.g. "Que signifie « %s » ?"`)
	cmd.Flags().IntVar(&opts.DefaultTime, "default-time", importer.DefaultTime, "seconds per question when a row has no time")
	return cmd
}
