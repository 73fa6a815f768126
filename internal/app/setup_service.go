package app

import (
	"context"
	"fmt"
	"strings"

	"edu-quiz-service/internal/domain"
)

// Catalog is the selector cascade shown to the player before a quiz.
type Catalog struct {
	PlayerName string                   `json:"playerName"`
	Subjects   []domain.Subject         `json:"subjects"`
	Levels     []domain.Level           `json:"levels"`
	Topics     []domain.Topic           `json:"topics"`
	Selected   domain.SessionDescriptor `json:"selected"`
}

// SetupService captures the player name and resolves the subject/level/topic cascade.
type SetupService struct {
	content *Content
}

func NewSetupService(content *Content) *SetupService {
	return &SetupService{content: content}
}

// SetPlayerName registers the player; blank names are rejected.
func (s *SetupService) SetPlayerName(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: player name is required", domain.ErrInvalidInput)
	}
	if err := s.content.SetPlayerName(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *SetupService) PlayerName(ctx context.Context) (string, error) {
	return s.content.PlayerName(ctx)
}

// Catalog resolves the cascade for the requested selection. Each empty or
// unknown id falls back to the first entry available under its parent, so the
// returned descriptor is complete whenever content exists for it.
func (s *SetupService) Catalog(ctx context.Context, want domain.SessionDescriptor) (Catalog, error) {
	player, err := s.content.PlayerName(ctx)
	if err != nil {
		return Catalog{}, err
	}
	subjects, err := s.content.Subjects(ctx)
	if err != nil {
		return Catalog{}, err
	}
	allLevels, err := s.content.Levels(ctx)
	if err != nil {
		return Catalog{}, err
	}
	allTopics, err := s.content.Topics(ctx)
	if err != nil {
		return Catalog{}, err
	}

	cat := Catalog{PlayerName: player, Subjects: subjects}
	cat.Selected.SubjectID = pick(subjects, want.SubjectID, func(v domain.Subject) string { return v.ID })

	cat.Levels = filter(allLevels, func(l domain.Level) bool { return l.SubjectID == cat.Selected.SubjectID })
	cat.Selected.LevelID = pick(cat.Levels, want.LevelID, func(v domain.Level) string { return v.ID })

	cat.Topics = filter(allTopics, func(t domain.Topic) bool {
		return t.SubjectID == cat.Selected.SubjectID && t.LevelID == cat.Selected.LevelID
	})
	cat.Selected.TopicID = pick(cat.Topics, want.TopicID, func(v domain.Topic) string { return v.ID })
	return cat, nil
}

func pick[T any](items []T, want string, key func(T) string) string {
	if want != "" && containsID(items, want, key) {
		return want
	}
	if len(items) == 0 {
		return ""
	}
	return key(items[0])
}
