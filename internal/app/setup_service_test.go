package app_test

import (
	"context"
	"errors"
	"testing"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"edu-quiz-service/internal/infra/memory"
)

func newSetup(t *testing.T) *app.SetupService {
	t.Helper()
	content := app.NewContent(memory.NewKVStore())
	if err := content.SeedIfMissing(context.Background(), app.DefaultSeed()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return app.NewSetupService(content)
}

func TestCatalogRequiresPlayer(t *testing.T) {
	setup := newSetup(t)
	if _, err := setup.Catalog(context.Background(), domain.SessionDescriptor{}); !errors.Is(err, domain.ErrNoPlayer) {
		t.Fatalf("expected ErrNoPlayer, got %v", err)
	}
	if _, err := setup.SetPlayerName(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected blank name rejected, got %v", err)
	}
}

func TestCatalogDefaultsToFirstEntries(t *testing.T) {
	ctx := context.Background()
	setup := newSetup(t)
	if _, err := setup.SetPlayerName(ctx, " Ada "); err != nil {
		t.Fatalf("set player: %v", err)
	}

	cat, err := setup.Catalog(ctx, domain.SessionDescriptor{})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if cat.PlayerName != "Ada" {
		t.Fatalf("expected trimmed player name, got %q", cat.PlayerName)
	}
	want := domain.SessionDescriptor{SubjectID: "math", LevelID: "math-basic", TopicID: "math-basic-arithmetic"}
	if cat.Selected != want {
		t.Fatalf("expected %+v, got %+v", want, cat.Selected)
	}
	if len(cat.Subjects) != 2 || len(cat.Levels) != 1 || len(cat.Topics) != 1 {
		t.Fatalf("unexpected cascade sizes: %d/%d/%d", len(cat.Subjects), len(cat.Levels), len(cat.Topics))
	}
}

func TestCatalogCascadeResetsChildren(t *testing.T) {
	ctx := context.Background()
	setup := newSetup(t)
	if _, err := setup.SetPlayerName(ctx, "Ada"); err != nil {
		t.Fatalf("set player: %v", err)
	}

	// Switching subject while keeping a stale level id falls back to the new subject's levels.
	cat, err := setup.Catalog(ctx, domain.SessionDescriptor{SubjectID: "geography", LevelID: "math-basic"})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if cat.Selected.LevelID != "geography-basic" || cat.Selected.TopicID != "geography-basic-capitals" {
		t.Fatalf("expected geography cascade, got %+v", cat.Selected)
	}
	for _, level := range cat.Levels {
		if level.SubjectID != "geography" {
			t.Fatalf("level %q leaked into geography cascade", level.ID)
		}
	}

	cat, err = setup.Catalog(ctx, domain.SessionDescriptor{SubjectID: "history"})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if cat.Selected.SubjectID != "math" {
		t.Fatalf("expected unknown subject to fall back to first, got %q", cat.Selected.SubjectID)
	}
}
