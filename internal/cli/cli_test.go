package cli

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/config"
	"edu-quiz-service/internal/domain"
	"edu-quiz-service/internal/infra/memory"
)

func TestTimingFromConfig(t *testing.T) {
	var cfg config.Config
	cfg.Quiz.QuestionTime = "10s"
	cfg.Quiz.Tick = "500ms"
	cfg.Quiz.AnswerDelay = "1s"

	timing := timingFromConfig(cfg)
	if timing.QuestionBudget != 20 || timing.Tick != 500*time.Millisecond {
		t.Fatalf("expected 20 ticks of 500ms, got %+v", timing)
	}
	if timing.AnswerDelay != time.Second || timing.TimeoutDelay != app.DefaultTiming().TimeoutDelay {
		t.Fatalf("unexpected delays %+v", timing)
	}

	if got := timingFromConfig(config.Config{}); got != app.DefaultTiming() {
		t.Fatalf("expected default timing, got %+v", got)
	}
}

func TestBuildRuntimeSeedsSQLite(t *testing.T) {
	var cfg config.Config
	cfg.Store.Backend = config.BackendSQLite
	cfg.SQLite.DSN = "file:" + filepath.Join(t.TempDir(), "quiz.db") + "?mode=rwc"

	rt, err := buildRuntime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Close()

	questions, err := rt.content.Questions(context.Background())
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != len(app.DefaultSeed().Questions) {
		t.Fatalf("expected seeded questions, got %d", len(questions))
	}
}

func TestBuildRuntimeRejectsUnknownBackend(t *testing.T) {
	var cfg config.Config
	cfg.Store.Backend = "floppy"
	if _, err := buildRuntime(context.Background(), cfg); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func newPlayer(t *testing.T, input string, timing app.Timing, questions ...domain.Question) (*player, *bytes.Buffer, *app.Content) {
	t.Helper()
	content := app.NewContent(memory.NewKVStore())
	seed := app.DefaultSeed()
	seed.Questions = questions
	if err := content.SeedIfMissing(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out := &bytes.Buffer{}
	return &player{
		quiz:  app.NewQuizService(memory.NewSessionStore(), content, app.WithTiming(timing), app.WithRandSeed(3)),
		setup: app.NewSetupService(content),
		in:    bufio.NewReader(strings.NewReader(input)),
		out:   out,
	}, out, content
}

func arithmetic(text, correct string, options ...string) domain.Question {
	return domain.Question{
		ID:            text,
		SubjectID:     "math",
		LevelID:       "math-basic",
		TopicID:       "math-basic-arithmetic",
		Text:          text,
		Options:       options,
		CorrectAnswer: correct,
	}
}

func TestPlayAnswersFromInput(t *testing.T) {
	timing := app.Timing{QuestionBudget: 15, Tick: time.Second, AnswerDelay: time.Millisecond, TimeoutDelay: time.Millisecond}
	p, out, content := newPlayer(t, "Ada\n1\n", timing, arithmetic("What is 2 + 2?", "4", "4"))

	if err := p.run(context.Background(), "", domain.SessionDescriptor{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Score: 1 / 1. "+app.MessagePositive) {
		t.Fatalf("expected positive summary, got:\n%s", out.String())
	}

	results, err := content.Results(context.Background())
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 || results[0].PlayerName != "Ada" {
		t.Fatalf("expected one result for Ada, got %+v", results)
	}

	var table bytes.Buffer
	if err := printResults(context.Background(), &table, content); err != nil {
		t.Fatalf("print results: %v", err)
	}
	if !strings.Contains(table.String(), "Arithmetic") || !strings.Contains(table.String(), "1 / 1") {
		t.Fatalf("unexpected results table:\n%s", table.String())
	}
}

func TestPlayTimesOut(t *testing.T) {
	timing := app.Timing{QuestionBudget: 1, Tick: 50 * time.Millisecond, AnswerDelay: time.Millisecond, TimeoutDelay: time.Millisecond}
	p, out, _ := newPlayer(t, "", timing, arithmetic("What is 3 + 3?", "6", "5", "6", "7", "8"))

	if err := p.run(context.Background(), "Grace", domain.SessionDescriptor{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "time's up!") {
		t.Fatalf("expected timeout notice, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Score: 0 / 1. "+app.MessageEncouraging) {
		t.Fatalf("expected encouraging summary, got:\n%s", out.String())
	}
}

func TestPlayWithoutQuestionsShowsMessage(t *testing.T) {
	p, out, content := newPlayer(t, "", app.DefaultTiming())

	if err := p.run(context.Background(), "Grace", domain.SessionDescriptor{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), app.MessageNoQuestions) {
		t.Fatalf("expected no-questions message, got:\n%s", out.String())
	}
	results, _ := content.Results(context.Background())
	if len(results) != 0 {
		t.Fatalf("expected no result, got %d", len(results))
	}
}
