package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"explainit-service/internal/app"
	"explainit-service/internal/domain"
	"explainit-service/internal/infra/memory"
	"explainit-service/internal/infra/postgres"
	pgmigrations "explainit-service/internal/infra/postgres/migrations"
	infraredis "explainit-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizAndLeaderboardEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := postgres.NewQuizLoader(pool)
	if err := loader.SaveQuiz(ctx, "001", sampleQuiz()); err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizRepo := infraredis.NewQuizRepository(redisClient, memory.ChainQuizLoader{loader}, 5*time.Minute)
	auth := app.NewAuthService(postgres.NewAccountRepository(db), infraredis.NewSessionStore(redisClient, time.Hour), time.Hour, 4)
	leaderboard := app.NewLeaderboardService(infraredis.NewPointsStore(redisClient))
	catalog := app.NewCatalogService(nil, quizRepo, nil)

	quiz, err := catalog.Quiz(ctx, "001.mp4")
	if err != nil {
		t.Fatalf("quiz: %v", err)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].Choices[1] != "4" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if _, err := catalog.Quiz(ctx, "missing.mp4"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	alice, err := auth.Signup(ctx, domain.Profile{Name: "Alice Smith", Email: "Alice@Example.com"}, "pw-alice")
	if err != nil {
		t.Fatalf("signup alice: %v", err)
	}
	if _, err := auth.Signup(ctx, domain.Profile{Name: "Other", Email: "alice@example.com"}, "pw"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected duplicate email rejected, got %v", err)
	}
	bob, err := auth.Signup(ctx, domain.Profile{Name: "Bob Jones", Email: "bob@example.com"}, "pw-bob")
	if err != nil {
		t.Fatalf("signup bob: %v", err)
	}

	username := "bobby"
	updated, err := auth.UpdateProfile(ctx, bob.Token, domain.ProfileUpdate{Username: &username, Friends: []string{alice.Profile.ID}})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Username != "bobby" || !updated.IsFriend(alice.Profile.ID) {
		t.Fatalf("profile not updated: %+v", updated)
	}

	relogged, err := auth.Login(ctx, "bob@example.com", "pw-bob")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if relogged.Profile.Username != "bobby" {
		t.Fatalf("expected persisted username, got %+v", relogged.Profile)
	}
	if _, err := auth.Authenticate(ctx, bob.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected old session replaced, got %v", err)
	}

	if _, err := leaderboard.RecordQuizResult(ctx, alice.Profile, 1, 2); err != nil {
		t.Fatalf("record alice: %v", err)
	}
	if _, err := leaderboard.RecordQuizResult(ctx, relogged.Profile, 1, 1); err != nil {
		t.Fatalf("record bob: %v", err)
	}

	entries, err := leaderboard.Board(ctx, app.LeaderboardQuery{
		Period: domain.PeriodAllTime,
		Scope:  domain.ScopeFriends,
		Viewer: &relogged.Profile,
	})
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(entries) != 2 || entries[0].User.DisplayName != "bobby" || entries[0].Points != 100 {
		t.Fatalf("expected bob leading with 100, got %+v", entries)
	}
	if !entries[0].IsCurrentUser || !entries[1].IsFriend || entries[1].Points != 50 {
		t.Fatalf("unexpected flags %+v", entries)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "explainit", "POSTGRES_PASSWORD": "explainit", "POSTGRES_DB": "explainit"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://explainit:explainit@%s:%s/explainit?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func sampleQuiz() domain.QuizDocument {
	correct := 1
	return domain.QuizDocument{
		Questions: []domain.QuizDocumentQuestion{
			{
				Question:     "What is 2 + 2?",
				Choices:      []string{"3", "4", "5"},
				CorrectIndex: &correct,
				Explanation:  "Two pairs make four.",
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
