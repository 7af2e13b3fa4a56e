package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-player/internal/app"
	"quiz-player/internal/app/apptest"
	"quiz-player/internal/domain"
	"quiz-player/internal/infra/memory"
	pgloader "quiz-player/internal/infra/postgres"
	pgmigrations "quiz-player/internal/infra/postgres/migrations"
	infraredis "quiz-player/internal/infra/redis"
)

func TestPlayAgainstSeededBank(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewBankLoader(pool)
	for i, entry := range memory.SampleBank() {
		if err := loader.SaveEntry(ctx, i, entry); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	bank := app.NewBankService(infraredis.NewBankRepository(redisClient, loader, 5*time.Minute, zerolog.Nop()))
	results := infraredis.NewResultStore(redisClient, 10)
	presenter := &apptest.Presenter{}
	clock := apptest.NewFakeClock()
	session := app.NewSession(bank, bank, presenter, domain.FastPolicy(),
		app.WithClock(clock),
		app.WithSpawner(apptest.Sync),
		app.WithRecorder(results),
	)
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(presenter.Questions) != 1 || presenter.Questions[0].Total != 3 {
		t.Fatalf("expected first of 3 questions, got %+v", presenter.Questions)
	}

	// Answer the first question correctly by text, let the second time out, get the third wrong.
	first := presenter.Questions[0]
	if err := session.Select(keyForText(t, first, "4")); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	clock.Advance(domain.FastPolicy().QuestionBudget)
	clock.Advance(domain.FastPolicy().TimeoutDelay)
	third := presenter.Questions[len(presenter.Questions)-1]
	if third.Index != 2 {
		t.Fatalf("expected third question, got index %d", third.Index)
	}
	if err := session.Select(third.Options[len(third.Options)-1].Key); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	if len(presenter.Summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(presenter.Summaries))
	}
	summary := presenter.Summaries[0]
	if summary.Score != 1 || summary.Total != 3 || summary.Percent != 33 || summary.Passed {
		t.Fatalf("unexpected summary %+v", summary)
	}

	recent, err := results.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].RunID != summary.RunID {
		t.Fatalf("expected recorded run %s, got %+v", summary.RunID, recent)
	}
}

func keyForText(t *testing.T, view domain.QuestionView, text string) string {
	t.Helper()
	for _, opt := range view.Options {
		if opt.Text == text {
			return opt.Key
		}
	}
	t.Fatalf("option %q not found in %+v", text, view.Options)
	return ""
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	host, port, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port), cleanup
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	host, port, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")
	return fmt.Sprintf("redis://%s:%s", host, port), cleanup
}

// startContainer runs req and returns the host and mapped port for exposed.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, exposed nat.Port) (string, string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	cleanup := func() { _ = container.Terminate(ctx) }

	host, err := container.Host(ctx)
	if err != nil {
		cleanup()
		t.Fatalf("%s host: %v", req.Image, err)
	}
	port, err := container.MappedPort(ctx, exposed)
	if err != nil {
		cleanup()
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return host, port.Port(), cleanup
}

// migrateSchema retries while postgres finishes its init restart.
func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	var err error
	for attempt := 0; attempt < 20; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("ping postgres: %v", err)
	}

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
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
