package app

import (
	"time"

	"quiznufi-service/internal/domain"
)

// Metrics receives quiz-level measurements. internal/metrics implements it
// with Prometheus collectors.
type Metrics interface {
	SessionStarted(area string)
	SessionCompleted(percentage float64)
	AnswerRecorded(kind domain.OutcomeKind)
	PoolFetched(d time.Duration, err error)
	SubmissionFailed()
	LeaderboardFetchFailed()
}

// NopMetrics records nothing.
type NopMetrics struct{}

func (NopMetrics) SessionStarted(string)             {}
func (NopMetrics) SessionCompleted(float64)          {}
func (NopMetrics) AnswerRecorded(domain.OutcomeKind) {}
func (NopMetrics) PoolFetched(time.Duration, error)  {}
func (NopMetrics) SubmissionFailed()                 {}
func (NopMetrics) LeaderboardFetchFailed()           {}
