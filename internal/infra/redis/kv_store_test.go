package redis

import (
	"context"
	"errors"
	"testing"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestKVStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewKVStore(newClient(mr), "")
	ctx := context.Background()

	if _, err := store.Get(ctx, domain.KeySubjects); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := store.Set(ctx, domain.KeySubjects, []byte(`[{"id":"math","name":"Math"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("quizgame:subjects") {
		t.Fatalf("expected prefixed redis key")
	}
	got, err := store.Get(ctx, domain.KeySubjects)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"id":"math","name":"Math"}]` {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestContentOverRedisFailsClosedOnCorruptBlob(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("quizgame:questions", "{not json"); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}
	content := app.NewContent(NewKVStore(newClient(mr), ""))

	questions, err := content.Questions(context.Background())
	if err != nil {
		t.Fatalf("expected fail-closed read, got %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected empty collection, got %d", len(questions))
	}
}

func TestContentAppendResultOverRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	content := app.NewContent(NewKVStore(newClient(mr), ""))
	for i := 0; i < 2; i++ {
		if err := content.AppendResult(ctx, domain.Result{SubjectID: "math", LevelID: "l1", TopicID: "t1", Score: i, Total: 2}); err != nil {
			t.Fatalf("append result: %v", err)
		}
	}
	results, err := content.Results(ctx)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 || results[0].Score != 0 || results[1].Score != 1 {
		t.Fatalf("expected results in insertion order, got %+v", results)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
