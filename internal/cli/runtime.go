package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/config"
	"edu-quiz-service/internal/infra/memory"
	pgstore "edu-quiz-service/internal/infra/postgres"
	redisstore "edu-quiz-service/internal/infra/redis"
	"edu-quiz-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// runtime is the wired application shared by every subcommand.
type runtime struct {
	cfg     config.Config
	content *app.Content
	quiz    *app.QuizService
	admin   *app.AdminService
	setup   *app.SetupService
	closers []func()
}

func loadRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return buildRuntime(ctx, cfg)
}

func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	store, err := rt.openStore(ctx, redisClient)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.content = app.NewContent(store)

	if cfg.SeedEnabled() {
		if err := rt.content.SeedIfMissing(ctx, app.DefaultSeed()); err != nil {
			rt.Close()
			return nil, err
		}
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.SessionTTL, 30*time.Minute))
	} else {
		sessions = memory.NewSessionStore()
	}

	clock := app.SystemClock{}
	rt.quiz = app.NewQuizService(sessions, rt.content,
		app.WithClock(clock),
		app.WithTiming(timingFromConfig(cfg)),
		app.WithSessionRetention(config.TTLDuration(cfg.Quiz.SessionRetention, app.DefaultSessionRetention)),
	)
	rt.admin = app.NewAdminService(rt.content, app.Credentials{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
	}, clock)
	rt.setup = app.NewSetupService(rt.content)
	return rt, nil
}

func (rt *runtime) openStore(ctx context.Context, redisClient *redis.Client) (app.KVStore, error) {
	cacheTTL := config.TTLDuration(rt.cfg.Store.CacheTTL, 30*time.Second)

	switch rt.cfg.Store.Backend {
	case config.BackendMemory:
		return memory.NewKVStore(), nil
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis backend selected but redis.addr not configured")
		}
		return redisstore.NewKVStore(redisClient, rt.cfg.Redis.Prefix), nil
	case config.BackendPostgres:
		if err := runMigrationsWithConfig(ctx, rt.cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, rt.cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		return memory.NewCachedStore(pgstore.NewKVStore(pool), cacheTTL), nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, rt.cfg.SQLite.DSN)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		return memory.NewCachedStore(db, cacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", rt.cfg.Store.Backend)
	}
}

// Close releases connections in reverse order of opening.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// timingFromConfig converts the configured durations into a tick budget.
func timingFromConfig(cfg config.Config) app.Timing {
	def := app.DefaultTiming()
	tick := config.TTLDuration(cfg.Quiz.Tick, def.Tick)
	if tick <= 0 {
		tick = def.Tick
	}
	questionTime := config.TTLDuration(cfg.Quiz.QuestionTime, time.Duration(def.QuestionBudget)*def.Tick)
	budget := int(questionTime / tick)
	if budget < 1 {
		log.Printf("quiz.questionTime %s shorter than one tick, using a single tick", questionTime)
		budget = 1
	}
	return app.Timing{
		QuestionBudget: budget,
		Tick:           tick,
		AnswerDelay:    config.TTLDuration(cfg.Quiz.AnswerDelay, def.AnswerDelay),
		TimeoutDelay:   config.TTLDuration(cfg.Quiz.TimeoutDelay, def.TimeoutDelay),
	}
}
