package domain

import "errors"

var (
	// ErrInvalidPhase is returned when an input arrives in a phase that does not accept it.
	ErrInvalidPhase = errors.New("action not allowed in current phase")
	// ErrOptionNotFound indicates a selected option key is not part of the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrQuestionNotFound indicates a submitted question ID is unknown to the bank.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoQuestions is returned when the question source yields an empty set.
	ErrNoQuestions = errors.New("no questions available")
	// ErrSessionClosed is returned once a session has been closed.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrManualNextDisabled indicates the active policy only advances automatically.
	ErrManualNextDisabled = errors.New("manual next disabled by policy")
)
