package redis

import (
	"testing"
	"time"

	"edu-quiz-service/internal/app"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	store.Put(app.NewSession(app.SessionConfig{ID: "s-1"}))
	if !mr.Exists("quizgame:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quizgame:session:s-1"); ttl != time.Minute {
		t.Fatalf("expected marker ttl of 1m, got %v", ttl)
	}
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session tracked locally")
	}

	store.Delete("s-1")
	if mr.Exists("quizgame:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
}
