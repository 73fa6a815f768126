package domain

import "errors"

var (
	// ErrKeyNotFound is returned by content stores when a key has never been written.
	ErrKeyNotFound = errors.New("key not found")
	// ErrSessionNotFound is returned when a quiz session id is unknown or already closed.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrMissingScope is returned when a session descriptor lacks a subject, level or topic.
	ErrMissingScope = errors.New("session scope incomplete")
	// ErrNoPlayer is returned when setup is attempted before a player name is registered.
	ErrNoPlayer = errors.New("player name not set")
	// ErrSessionNotActive is returned when a selection arrives outside of question presentation.
	ErrSessionNotActive = errors.New("quiz session is not presenting a question")
	// ErrQuestionLocked is returned when the current question already has a graded selection.
	ErrQuestionLocked = errors.New("question already answered")
	// ErrOptionNotFound indicates a selected option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNotFound indicates an editor operation referenced an unknown id.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates an editor operation would create a duplicate id.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput indicates an editor or setup form failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInconsistentScope indicates a parent reference does not belong to the stated subject or level.
	ErrInconsistentScope = errors.New("inconsistent subject/level/topic reference")
	// ErrInvalidCredentials is returned by the login gate.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized is returned when editor access is attempted without an admin login.
	ErrUnauthorized = errors.New("admin login required")
)
