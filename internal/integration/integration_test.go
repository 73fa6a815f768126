package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"edu-quiz-service/internal/infra/memory"
	pgstore "edu-quiz-service/internal/infra/postgres"
	pgmigrations "edu-quiz-service/internal/infra/postgres/migrations"
	infraredis "edu-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

var scope = domain.SessionDescriptor{SubjectID: "math", LevelID: "math-basic", TopicID: "math-basic-arithmetic"}

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	content := app.NewContent(memory.NewCachedStore(pgstore.NewKVStore(pool), time.Minute))
	if err := content.SeedIfMissing(ctx, app.DefaultSeed()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := content.SetPlayerName(ctx, "Ada"); err != nil {
		t.Fatalf("set player: %v", err)
	}

	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(sessionStore, content, app.WithTiming(app.Timing{
		QuestionBudget: 15,
		Tick:           time.Second,
		AnswerDelay:    10 * time.Millisecond,
		TimeoutDelay:   10 * time.Millisecond,
	}))

	view, err := service.Start(ctx, scope)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	updates, cancel, err := service.Subscribe(ctx, view.SessionID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	answers := map[string]string{}
	for _, q := range app.DefaultSeed().Questions {
		answers[q.Text] = q.CorrectAnswer
	}

	deadline := time.After(30 * time.Second)
	answered := -1
	for view.Phase != app.PhaseFinished {
		select {
		case v := <-updates:
			view = v
		case <-deadline:
			t.Fatalf("session did not finish, last view %+v", view)
		}
		if view.Phase != app.PhasePresenting || view.Index == answered {
			continue
		}
		for i, opt := range view.Options {
			if domain.SameAnswer(opt.Text, answers[view.Question]) {
				if _, err := service.Select(ctx, view.SessionID, i); err != nil {
					t.Fatalf("select: %v", err)
				}
				answered = view.Index
				break
			}
		}
	}
	if view.Score != view.Total || view.Verdict != app.VerdictPositive {
		t.Fatalf("expected full score, got %d/%d %s", view.Score, view.Total, view.Verdict)
	}

	// Read back through an uncached store to confirm the row was written.
	results, err := app.NewContent(pgstore.NewKVStore(pool)).Results(ctx)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	got := results[0]
	if got.SubjectID != scope.SubjectID || got.LevelID != scope.LevelID || got.TopicID != scope.TopicID ||
		got.Score != 3 || got.Total != 3 || got.PlayerName != "Ada" || got.Date.IsZero() {
		t.Fatalf("unexpected result %+v", got)
	}

	service.Close(ctx, view.SessionID)
	if n, err := redisClient.Exists(ctx, "quizgame:session:"+view.SessionID).Result(); err != nil || n != 0 {
		t.Fatalf("expected session marker removed, got %d %v", n, err)
	}
}

func TestRedisContentStore(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	content := app.NewContent(infraredis.NewKVStore(redisClient, ""))
	if err := content.SeedIfMissing(ctx, app.DefaultSeed()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	topics, err := content.Topics(ctx)
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if len(topics) != len(app.DefaultSeed().Topics) {
		t.Fatalf("expected seeded topics, got %d", len(topics))
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

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
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
