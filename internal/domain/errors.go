package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionCompleted is returned for engine calls after the last question.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrQuestionPending is returned when advancing before the current question is resolved.
	ErrQuestionPending = errors.New("current question not answered or timed out")
	// ErrEmptyPool indicates no questions matched the requested difficulty and area.
	ErrEmptyPool = errors.New("question pool is empty")
	// ErrInvalidQuestion indicates a question violating the option/correct invariants.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrRepositoryUnavailable wraps question repository failures at session start.
	ErrRepositoryUnavailable = errors.New("question repository unavailable")
	// ErrSubmissionFailed wraps leaderboard write failures.
	ErrSubmissionFailed = errors.New("score submission failed")
	// ErrLeaderboardFetchFailed wraps leaderboard read failures.
	ErrLeaderboardFetchFailed = errors.New("leaderboard fetch failed")
	// ErrGuestResult is returned when a guest result reaches the leaderboard client.
	ErrGuestResult = errors.New("guest results are not submitted")
	// ErrAuthFailed wraps authentication provider failures.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrAccountExists is returned when registering an email twice.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when no account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrProfileNotFound is returned when a participant has no profile record.
	ErrProfileNotFound = errors.New("profile not found")
)
