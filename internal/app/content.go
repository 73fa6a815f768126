package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"edu-quiz-service/internal/domain"
)

// KVStore abstracts where collections live (in-memory, Redis, Postgres, SQLite).
// Values are whole-collection JSON blobs; Get returns domain.ErrKeyNotFound for
// keys that were never written.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Content is the typed view over a KVStore. Every mutation reads the latest
// snapshot and writes the full collection back. Writes within one process are
// serialised by mu; writers in other processes are not coordinated, the last
// write wins.
type Content struct {
	store KVStore

	mu sync.Mutex
}

func NewContent(store KVStore) *Content {
	return &Content{store: store}
}

func (c *Content) Subjects(ctx context.Context) ([]domain.Subject, error) {
	return loadCollection[domain.Subject](ctx, c.store, domain.KeySubjects)
}

func (c *Content) SaveSubjects(ctx context.Context, subjects []domain.Subject) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return saveCollection(ctx, c.store, domain.KeySubjects, subjects)
}

func (c *Content) UpdateSubjects(ctx context.Context, fn func([]domain.Subject) ([]domain.Subject, error)) error {
	return updateCollection(ctx, c, domain.KeySubjects, fn)
}

func (c *Content) Levels(ctx context.Context) ([]domain.Level, error) {
	return loadCollection[domain.Level](ctx, c.store, domain.KeyLevels)
}

func (c *Content) SaveLevels(ctx context.Context, levels []domain.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return saveCollection(ctx, c.store, domain.KeyLevels, levels)
}

func (c *Content) UpdateLevels(ctx context.Context, fn func([]domain.Level) ([]domain.Level, error)) error {
	return updateCollection(ctx, c, domain.KeyLevels, fn)
}

func (c *Content) Topics(ctx context.Context) ([]domain.Topic, error) {
	return loadCollection[domain.Topic](ctx, c.store, domain.KeyTopics)
}

func (c *Content) SaveTopics(ctx context.Context, topics []domain.Topic) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return saveCollection(ctx, c.store, domain.KeyTopics, topics)
}

func (c *Content) UpdateTopics(ctx context.Context, fn func([]domain.Topic) ([]domain.Topic, error)) error {
	return updateCollection(ctx, c, domain.KeyTopics, fn)
}

func (c *Content) Questions(ctx context.Context) ([]domain.Question, error) {
	return loadCollection[domain.Question](ctx, c.store, domain.KeyQuestions)
}

func (c *Content) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return saveCollection(ctx, c.store, domain.KeyQuestions, questions)
}

func (c *Content) UpdateQuestions(ctx context.Context, fn func([]domain.Question) ([]domain.Question, error)) error {
	return updateCollection(ctx, c, domain.KeyQuestions, fn)
}

// Results returns recorded results in insertion order.
func (c *Content) Results(ctx context.Context) ([]domain.Result, error) {
	return loadCollection[domain.Result](ctx, c.store, domain.KeyResults)
}

// AppendResult adds one entry to the results log. Sessions finishing at the
// same time each keep their entry.
func (c *Content) AppendResult(ctx context.Context, result domain.Result) error {
	return updateCollection(ctx, c, domain.KeyResults, func(results []domain.Result) ([]domain.Result, error) {
		return append(results, result), nil
	})
}

// PlayerName returns the stored player name or domain.ErrNoPlayer.
func (c *Content) PlayerName(ctx context.Context) (string, error) {
	raw, err := c.store.Get(ctx, domain.KeyPlayerName)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", domain.ErrNoPlayer
	}
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		return "", domain.ErrNoPlayer
	}
	return name, nil
}

// SetPlayerName stores name as a plain string, not JSON.
func (c *Content) SetPlayerName(ctx context.Context, name string) error {
	return c.store.Set(ctx, domain.KeyPlayerName, []byte(name))
}

// User returns the login marker; a missing or unreadable marker is an anonymous user.
func (c *Content) User(ctx context.Context) (domain.User, error) {
	raw, err := c.store.Get(ctx, domain.KeyUser)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return domain.User{}, nil
	}
	if err != nil {
		return domain.User{}, err
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		log.Printf("content: malformed %q value, treating as anonymous: %v", domain.KeyUser, err)
		return domain.User{}, nil
	}
	return user, nil
}

func (c *Content) SetUser(ctx context.Context, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, domain.KeyUser, data)
}

// Seed is the initial content written on first start.
type Seed struct {
	Subjects  []domain.Subject
	Levels    []domain.Level
	Topics    []domain.Topic
	Questions []domain.Question
}

// SeedIfMissing writes each seed collection only when its key is absent,
// leaving curated content untouched.
func (c *Content) SeedIfMissing(ctx context.Context, seed Seed) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps := []struct {
		key   string
		value any
	}{
		{domain.KeySubjects, seed.Subjects},
		{domain.KeyLevels, seed.Levels},
		{domain.KeyTopics, seed.Topics},
		{domain.KeyQuestions, seed.Questions},
	}
	for _, step := range steps {
		_, err := c.store.Get(ctx, step.key)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrKeyNotFound) {
			return fmt.Errorf("seed %s: %w", step.key, err)
		}
		data, err := json.Marshal(step.value)
		if err != nil {
			return fmt.Errorf("seed %s: %w", step.key, err)
		}
		if err := c.store.Set(ctx, step.key, data); err != nil {
			return fmt.Errorf("seed %s: %w", step.key, err)
		}
		log.Printf("seeded %s", step.key)
	}
	return nil
}

// loadCollection fails closed: a malformed blob reads as an empty collection
// and is replaced on the next write.
func loadCollection[T any](ctx context.Context, store KVStore, key string) ([]T, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("content: malformed %q collection, treating as empty: %v", key, err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// updateCollection holds c.mu across the read, fn and the write back. fn may
// read other collections but must not write through c. An error from fn
// leaves the stored collection untouched.
func updateCollection[T any](ctx context.Context, c *Content, key string, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := loadCollection[T](ctx, c.store, key)
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return saveCollection(ctx, c.store, key, items)
}

func saveCollection[T any](ctx context.Context, store KVStore, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
