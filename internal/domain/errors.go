package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuiz is returned when a question set holds no usable questions.
	ErrEmptyQuiz = errors.New("no questions found")
	// ErrNoActiveQuiz is returned when a quiz action arrives without a running session.
	ErrNoActiveQuiz = errors.New("no active quiz")
	// ErrOptionNotFound indicates a selected option index is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrQuestionUnanswered is returned when advancing past an unanswered question.
	ErrQuestionUnanswered = errors.New("current question not answered")
	// ErrQuizFinished is returned when acting on a session with no questions left.
	ErrQuizFinished = errors.New("quiz already finished")
	// ErrLoginInProgress is returned while a verification request is in flight.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrNotLoggedIn is returned when a quiz is started without a stored identity.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrQuizNotFound indicates a manifest id or question-set reference is unknown.
	ErrQuizNotFound = errors.New("quiz not found")
)

// ValidationError reports missing required input. No request is made.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// AuthenticationError is a rejection reported by the auth endpoint.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// NetworkError wraps a transport or decoding failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// CatalogError means the quiz manifest could not be loaded.
type CatalogError struct {
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("load manifest: %v", e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }
