package app

import (
	"context"
	"crypto/subtle"
	"fmt"
	"regexp"
	"strings"

	"edu-quiz-service/internal/domain"
)

// QuestionOptionCount is how many options the question editor requires.
// Sessions do not depend on it.
const QuestionOptionCount = 4

var whitespaceRun = regexp.MustCompile(`\s+`)

// Credentials is the hardcoded admin login.
type Credentials struct {
	Username string
	Password string
}

// QuestionInput is the question editor form.
type QuestionInput struct {
	SubjectID     string   `json:"subjectId"`
	LevelID       string   `json:"levelId"`
	TopicID       string   `json:"topicId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// AdminService backs the content editors and the login gate.
type AdminService struct {
	content *Content
	creds   Credentials
	clock   Clock
}

func NewAdminService(content *Content, creds Credentials, clock Clock) *AdminService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AdminService{content: content, creds: creds, clock: clock}
}

// Login checks the credentials and marks the stored user as admin.
func (s *AdminService) Login(ctx context.Context, username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password)) == 1
	if !userOK || !passOK {
		return domain.ErrInvalidCredentials
	}
	return s.content.SetUser(ctx, domain.User{Role: domain.RoleAdmin})
}

// IsAdmin reports whether the stored login marker carries the admin role.
func (s *AdminService) IsAdmin(ctx context.Context) (bool, error) {
	user, err := s.content.User(ctx)
	if err != nil {
		return false, err
	}
	return user.Role == domain.RoleAdmin, nil
}

func (s *AdminService) Subjects(ctx context.Context) ([]domain.Subject, error) {
	return s.content.Subjects(ctx)
}

// AddSubject derives the id from the name: lower case, whitespace runs as "-".
func (s *AdminService) AddSubject(ctx context.Context, name string) (domain.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Subject{}, fmt.Errorf("%w: subject name is required", domain.ErrInvalidInput)
	}
	subject := domain.Subject{
		ID:   whitespaceRun.ReplaceAllString(strings.ToLower(name), "-"),
		Name: name,
	}
	err := s.content.UpdateSubjects(ctx, func(subjects []domain.Subject) ([]domain.Subject, error) {
		if containsID(subjects, subject.ID, func(v domain.Subject) string { return v.ID }) {
			return nil, fmt.Errorf("%w: subject %q", domain.ErrAlreadyExists, subject.ID)
		}
		return append(subjects, subject), nil
	})
	if err != nil {
		return domain.Subject{}, err
	}
	return subject, nil
}

func (s *AdminService) DeleteSubject(ctx context.Context, id string) error {
	return s.content.UpdateSubjects(ctx, func(subjects []domain.Subject) ([]domain.Subject, error) {
		kept, ok := removeByID(subjects, id, func(v domain.Subject) string { return v.ID })
		if !ok {
			return nil, fmt.Errorf("%w: subject %q", domain.ErrNotFound, id)
		}
		return kept, nil
	})
}

// Levels lists levels, restricted to subjectID when it is set.
func (s *AdminService) Levels(ctx context.Context, subjectID string) ([]domain.Level, error) {
	levels, err := s.content.Levels(ctx)
	if err != nil {
		return nil, err
	}
	return filter(levels, func(l domain.Level) bool {
		return subjectID == "" || l.SubjectID == subjectID
	}), nil
}

func (s *AdminService) AddLevel(ctx context.Context, subjectID, name string) (domain.Level, error) {
	name = strings.TrimSpace(name)
	if name == "" || subjectID == "" {
		return domain.Level{}, fmt.Errorf("%w: subject and level name are required", domain.ErrInvalidInput)
	}
	subjects, err := s.content.Subjects(ctx)
	if err != nil {
		return domain.Level{}, err
	}
	if !containsID(subjects, subjectID, func(v domain.Subject) string { return v.ID }) {
		return domain.Level{}, fmt.Errorf("%w: subject %q", domain.ErrNotFound, subjectID)
	}

	level := domain.Level{
		ID:        fmt.Sprintf("%s-%d", subjectID, s.clock.Now().UnixMilli()),
		Name:      name,
		SubjectID: subjectID,
	}
	err = s.content.UpdateLevels(ctx, func(levels []domain.Level) ([]domain.Level, error) {
		if containsID(levels, level.ID, func(v domain.Level) string { return v.ID }) {
			return nil, fmt.Errorf("%w: level %q", domain.ErrAlreadyExists, level.ID)
		}
		return append(levels, level), nil
	})
	if err != nil {
		return domain.Level{}, err
	}
	return level, nil
}

func (s *AdminService) DeleteLevel(ctx context.Context, id string) error {
	return s.content.UpdateLevels(ctx, func(levels []domain.Level) ([]domain.Level, error) {
		kept, ok := removeByID(levels, id, func(v domain.Level) string { return v.ID })
		if !ok {
			return nil, fmt.Errorf("%w: level %q", domain.ErrNotFound, id)
		}
		return kept, nil
	})
}

// Topics lists topics, restricted to the given subject and level when set.
func (s *AdminService) Topics(ctx context.Context, subjectID, levelID string) ([]domain.Topic, error) {
	topics, err := s.content.Topics(ctx)
	if err != nil {
		return nil, err
	}
	return filter(topics, func(t domain.Topic) bool {
		return (subjectID == "" || t.SubjectID == subjectID) && (levelID == "" || t.LevelID == levelID)
	}), nil
}

// AddTopic rejects a level that belongs to a different subject.
func (s *AdminService) AddTopic(ctx context.Context, subjectID, levelID, name string) (domain.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" || subjectID == "" || levelID == "" {
		return domain.Topic{}, fmt.Errorf("%w: subject, level and topic name are required", domain.ErrInvalidInput)
	}
	levels, err := s.content.Levels(ctx)
	if err != nil {
		return domain.Topic{}, err
	}
	level, ok := findByID(levels, levelID, func(v domain.Level) string { return v.ID })
	if !ok {
		return domain.Topic{}, fmt.Errorf("%w: level %q", domain.ErrNotFound, levelID)
	}
	if level.SubjectID != subjectID {
		return domain.Topic{}, fmt.Errorf("%w: level %q belongs to subject %q", domain.ErrInconsistentScope, levelID, level.SubjectID)
	}

	topic := domain.Topic{
		ID:        fmt.Sprintf("%s-%s-%d", subjectID, levelID, s.clock.Now().UnixMilli()),
		Name:      name,
		SubjectID: subjectID,
		LevelID:   levelID,
	}
	err = s.content.UpdateTopics(ctx, func(topics []domain.Topic) ([]domain.Topic, error) {
		if containsID(topics, topic.ID, func(v domain.Topic) string { return v.ID }) {
			return nil, fmt.Errorf("%w: topic %q", domain.ErrAlreadyExists, topic.ID)
		}
		return append(topics, topic), nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return topic, nil
}

func (s *AdminService) DeleteTopic(ctx context.Context, id string) error {
	return s.content.UpdateTopics(ctx, func(topics []domain.Topic) ([]domain.Topic, error) {
		kept, ok := removeByID(topics, id, func(v domain.Topic) string { return v.ID })
		if !ok {
			return nil, fmt.Errorf("%w: topic %q", domain.ErrNotFound, id)
		}
		return kept, nil
	})
}

// Questions lists questions whose scope matches every non-empty field of scope.
func (s *AdminService) Questions(ctx context.Context, scope domain.SessionDescriptor) ([]domain.Question, error) {
	questions, err := s.content.Questions(ctx)
	if err != nil {
		return nil, err
	}
	return filter(questions, func(q domain.Question) bool {
		return (scope.SubjectID == "" || q.SubjectID == scope.SubjectID) &&
			(scope.LevelID == "" || q.LevelID == scope.LevelID) &&
			(scope.TopicID == "" || q.TopicID == scope.TopicID)
	}), nil
}

// AddQuestion validates the form at write time: the correct answer must be
// one of the options and the topic must sit under the given subject and level.
func (s *AdminService) AddQuestion(ctx context.Context, in QuestionInput) (domain.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.Question{}, fmt.Errorf("%w: question text is required", domain.ErrInvalidInput)
	}
	if len(in.Options) != QuestionOptionCount {
		return domain.Question{}, fmt.Errorf("%w: exactly %d options are required", domain.ErrInvalidInput, QuestionOptionCount)
	}
	for _, opt := range in.Options {
		if strings.TrimSpace(opt) == "" {
			return domain.Question{}, fmt.Errorf("%w: options must not be empty", domain.ErrInvalidInput)
		}
	}
	if strings.TrimSpace(in.CorrectAnswer) == "" {
		return domain.Question{}, fmt.Errorf("%w: correct answer is required", domain.ErrInvalidInput)
	}
	listed := false
	for _, opt := range in.Options {
		if domain.SameAnswer(opt, in.CorrectAnswer) {
			listed = true
			break
		}
	}
	if !listed {
		return domain.Question{}, fmt.Errorf("%w: correct answer %q is not one of the options", domain.ErrInvalidInput, in.CorrectAnswer)
	}

	topics, err := s.content.Topics(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	topic, ok := findByID(topics, in.TopicID, func(v domain.Topic) string { return v.ID })
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: topic %q", domain.ErrNotFound, in.TopicID)
	}
	if topic.SubjectID != in.SubjectID || topic.LevelID != in.LevelID {
		return domain.Question{}, fmt.Errorf("%w: topic %q belongs to %s/%s", domain.ErrInconsistentScope, topic.ID, topic.SubjectID, topic.LevelID)
	}

	options := make([]string, len(in.Options))
	copy(options, in.Options)
	question := domain.Question{
		ID:            fmt.Sprintf("%s-%d", topic.ID, s.clock.Now().UnixMilli()),
		SubjectID:     topic.SubjectID,
		LevelID:       topic.LevelID,
		TopicID:       topic.ID,
		Text:          text,
		Options:       options,
		CorrectAnswer: in.CorrectAnswer,
	}
	err = s.content.UpdateQuestions(ctx, func(questions []domain.Question) ([]domain.Question, error) {
		if containsID(questions, question.ID, func(v domain.Question) string { return v.ID }) {
			return nil, fmt.Errorf("%w: question %q", domain.ErrAlreadyExists, question.ID)
		}
		return append(questions, question), nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *AdminService) DeleteQuestion(ctx context.Context, id string) error {
	return s.content.UpdateQuestions(ctx, func(questions []domain.Question) ([]domain.Question, error) {
		kept, ok := removeByID(questions, id, func(v domain.Question) string { return v.ID })
		if !ok {
			return nil, fmt.Errorf("%w: question %q", domain.ErrNotFound, id)
		}
		return kept, nil
	})
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func findByID[T any](items []T, id string, key func(T) string) (T, bool) {
	for _, item := range items {
		if key(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func containsID[T any](items []T, id string, key func(T) string) bool {
	_, ok := findByID(items, id, key)
	return ok
}

func removeByID[T any](items []T, id string, key func(T) string) ([]T, bool) {
	kept := make([]T, 0, len(items))
	removed := false
	for _, item := range items {
		if key(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}
