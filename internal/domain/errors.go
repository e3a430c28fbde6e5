package domain

import "errors"

var (
	// ErrGenerationUnavailable indicates the external generation service failed;
	// the controller may recover by synthesizing placeholder questions.
	ErrGenerationUnavailable = errors.New("question generation unavailable")
	// ErrNoActiveSession is returned when an operation requires a running session.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrSessionComplete is returned when a mutation is attempted on a finished session.
	ErrSessionComplete = errors.New("quiz session already complete")
	// ErrSessionNotComplete is returned when retry or export is requested mid-session.
	ErrSessionNotComplete = errors.New("quiz session not complete")
	// ErrNoSelection is returned when the current question is submitted without a chosen option.
	ErrNoSelection = errors.New("no option selected for current question")
	// ErrRecordNotFound indicates a history record ID does not exist.
	ErrRecordNotFound = errors.New("history record not found")
	// ErrMalformedRecord indicates a history record is missing question data; retakes degrade to synthesized questions.
	ErrMalformedRecord = errors.New("malformed history record")
)
