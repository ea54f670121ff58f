package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"explainit-service/internal/app"
	"explainit-service/internal/config"
	"explainit-service/internal/infra/filesystem"
	"explainit-service/internal/infra/memory"
	"explainit-service/internal/infra/postgres"
	"explainit-service/internal/infra/process"
	redisstore "explainit-service/internal/infra/redis"
	"explainit-service/internal/infra/sqlite"
	transport "explainit-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the ExplainIt backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed-leaderboard", false, "record demo results so the leaderboard is not empty")
	return cmd
}

// backend holds the wired services plus whatever must be closed on shutdown.
type backend struct {
	api     *transport.API
	ws      *transport.WSHandler
	options transport.RouterOptions

	leaderboard *app.LeaderboardService
	closers     []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func runServer(ctx context.Context, configPath, portFlag string, seed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3000"
	}

	b, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if seed {
		if err := seedLeaderboard(ctx, b.leaderboard); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(b.api, b.ws, b.options),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: POST /api/generate holds the response until the
		// generator exits, and the leaderboard socket is long-lived.
	}

	go func() {
		log.Printf("starting explainit backend on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, redisClient.Close)
	}

	library, err := filesystem.NewVideoLibrary(cfg.Media.PostedDir)
	if err != nil {
		return nil, err
	}
	characters := filesystem.NewCharacterCatalog(cfg.Media.CharactersFile)

	// Generated quiz files stay visible even when Postgres is the primary store.
	var loader memory.QuizLoader = filesystem.NewQuizLoader(cfg.Media.QuizzesDir)
	var accounts app.AccountRepository
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		loader = memory.ChainQuizLoader{postgres.NewQuizLoader(pool), loader}

		db := openBun(cfg.Postgres.URL)
		b.closers = append(b.closers, db.Close)
		accounts = postgres.NewAccountRepository(db)
	} else {
		store, err := sqlite.Open(cfg.Auth.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open account store: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		accounts = store
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	sessionTTL := config.TTLDuration(cfg.Auth.SessionTTL, 7*24*time.Hour)
	var (
		quizRepo app.QuizRepository
		sessions app.SessionRepository
		points   app.PointsStore
	)
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
		sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
		points = redisstore.NewPointsStore(redisClient)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		sessions = memory.NewSessionStore()
		points = memory.NewPointsStore()
	}

	loginLimiter, err := newLimiter(cfg.RateLimit.Login, "limiter:login", redisClient)
	if err != nil {
		return nil, err
	}
	generateLimiter, err := newLimiter(cfg.RateLimit.Generate, "limiter:generate", redisClient)
	if err != nil {
		return nil, err
	}

	runner := process.NewScriptRunner(cfg.Generator.Python, cfg.Generator.Script, cfg.Media.GenerationDir)
	catalog := app.NewCatalogService(library, quizRepo, characters)
	generation := app.NewGenerationService(runner, cfg.Generator.MaxConcurrent, config.TTLDuration(cfg.Generator.Timeout, 0))
	auth := app.NewAuthService(accounts, sessions, sessionTTL, cfg.Auth.BcryptCost)
	b.leaderboard = app.NewLeaderboardService(points)

	b.api = transport.NewAPI(catalog, generation, auth, b.leaderboard)
	b.ws = transport.NewWSHandler(b.leaderboard)
	b.options = transport.RouterOptions{
		PostedDir: library.Dir(),
		PublicDir: cfg.Server.PublicDir,
		Login:     loginLimiter,
		Generate:  generateLimiter,
	}
	ok = true
	return b, nil
}

func openBun(url string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// newLimiter shares counters through Redis when it is configured so every
// replica enforces the same budget.
func newLimiter(formatted, prefix string, client *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("rate %q: %w", formatted, err)
	}
	var store limiter.Store
	if client != nil {
		store, err = limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
		if err != nil {
			return nil, err
		}
	} else {
		store = limitermemory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}
	return limiter.New(store, rate), nil
}
