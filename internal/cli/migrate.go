package cli

import (
	"context"
	"fmt"
	"log"

	"explainit-service/internal/config"
	"explainit-service/internal/infra/filesystem"
	"explainit-service/internal/infra/postgres"
	pgmigrations "explainit-service/internal/infra/postgres/migrations"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations and optionally imports quiz files.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var importQuizzes bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			if !importQuizzes {
				return nil
			}
			return importQuizFiles(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&importQuizzes, "import-quizzes", false, "copy quiz files from the quizzes dir into postgres")
	return cmd
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db := openBun(cfg.Postgres.URL)
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("no new migrations")
		return nil
	}
	log.Printf("migrations applied: %s", group)
	return nil
}

func importQuizFiles(ctx context.Context, cfg config.Config) error {
	files := filesystem.NewQuizLoader(cfg.Media.QuizzesDir)
	ids, err := files.ListQuizIDs(ctx)
	if err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := postgres.NewQuizLoader(pool)

	imported := 0
	for _, id := range ids {
		quiz, err := files.LoadQuiz(ctx, id)
		if err != nil {
			log.Printf("skip quiz %s: %v", id, err)
			continue
		}
		if err := store.SaveQuiz(ctx, id, quiz); err != nil {
			return fmt.Errorf("save quiz %s: %w", id, err)
		}
		imported++
	}
	log.Printf("imported %d of %d quizzes", imported, len(ids))
	return nil
}
