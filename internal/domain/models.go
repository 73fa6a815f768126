package domain

import (
	"strings"
	"time"
)

// Keys under which the content store keeps each collection.
const (
	KeySubjects   = "subjects"
	KeyLevels     = "levels"
	KeyTopics     = "topics"
	KeyQuestions  = "questions"
	KeyResults    = "results"
	KeyPlayerName = "playerName"
	KeyUser       = "user"
)

// RoleAdmin is stored under KeyUser after a successful login.
const RoleAdmin = "admin"

// Subject is the root of the content hierarchy.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Level belongs to exactly one subject.
type Level struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SubjectID string `json:"subjectId"`
}

// Topic belongs to a (subject, level) pair.
type Topic struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SubjectID string `json:"subjectId"`
	LevelID   string `json:"levelId"`
}

// Question models a multiple-choice question. CorrectAnswer holds the text of
// one of Options; the number of options is not fixed.
type Question struct {
	ID            string   `json:"id"`
	SubjectID     string   `json:"subjectId"`
	LevelID       string   `json:"levelId"`
	TopicID       string   `json:"topicId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// IsCorrect reports whether answer matches the stored correct answer,
// ignoring case and surrounding whitespace.
func (q Question) IsCorrect(answer string) bool {
	return SameAnswer(q.CorrectAnswer, answer)
}

// Result is an immutable record of one completed quiz session.
type Result struct {
	SubjectID  string    `json:"subjectId"`
	LevelID    string    `json:"levelId"`
	TopicID    string    `json:"topicId"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Date       time.Time `json:"date"`
	PlayerName string    `json:"playerName,omitempty"`
}

// User is the cosmetic login marker.
type User struct {
	Role string `json:"role"`
}

// SessionDescriptor selects which questions a quiz run draws from.
type SessionDescriptor struct {
	SubjectID string `json:"subjectId"`
	LevelID   string `json:"levelId"`
	TopicID   string `json:"topicId"`
}

// Complete reports whether every field of the descriptor is set.
func (d SessionDescriptor) Complete() bool {
	return d.SubjectID != "" && d.LevelID != "" && d.TopicID != ""
}

// Matches reports whether q belongs exactly to the descriptor's scope.
func (d SessionDescriptor) Matches(q Question) bool {
	return q.SubjectID == d.SubjectID && q.LevelID == d.LevelID && q.TopicID == d.TopicID
}

// SameAnswer compares two answers case-insensitively after trimming
// leading and trailing whitespace.
func SameAnswer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
