package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiznufi-service/internal/app"
	"quiznufi-service/internal/domain"
)

func TestRunnerTimesOutAndAutoAdvances(t *testing.T) {
	questions := pool()[2:] // one question, one second
	session, _, err := app.Start(questions, domain.SessionConfig{QuestionCount: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	presenter := &recordingPresenter{}
	completed := make(chan domain.Result, 1)
	runner := app.NewRunner(session, presenter, func(_ context.Context, result domain.Result) domain.Summary {
		completed <- result
		return domain.Summary{Result: result}
	}, app.RunnerOptions{TickInterval: 10 * time.Millisecond, AutoAdvanceDelay: 20 * time.Millisecond})

	runner.Begin(context.Background())

	select {
	case <-runner.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not complete on its own")
	}
	result := <-completed
	if result.Score != 0 || result.TotalQuestions != 1 || result.Percentage != 0 {
		t.Fatalf("expected 0/1, got %+v", result)
	}

	presenter.mu.Lock()
	defer presenter.mu.Unlock()
	if presenter.renders != 1 {
		t.Fatalf("expected one render, got %d", presenter.renders)
	}
	if len(presenter.outcomes) != 1 || presenter.outcomes[0].Kind != domain.OutcomeTimedOut {
		t.Fatalf("expected a single timeout outcome, got %+v", presenter.outcomes)
	}
	if len(presenter.ticks) == 0 || presenter.ticks[len(presenter.ticks)-1] != 0 {
		t.Fatalf("expected countdown to reach zero, got %v", presenter.ticks)
	}
	if presenter.finished == nil {
		t.Fatalf("expected finished summary")
	}
	if state := runner.State(); state.Summary == nil || state.Status != domain.StatusCompleted {
		t.Fatalf("expected summary in state, got %+v", state)
	}
}

func TestRunnerAnswerStopsCountdown(t *testing.T) {
	session, _, err := app.Start(pool()[2:], domain.SessionConfig{QuestionCount: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	presenter := &recordingPresenter{}
	runner := app.NewRunner(session, presenter, nil, app.RunnerOptions{TickInterval: 50 * time.Millisecond, AutoAdvanceDelay: 10 * time.Millisecond})
	runner.Begin(context.Background())

	outcome, err := runner.Answer("Zēn")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if outcome.Kind != domain.OutcomeCorrect {
		t.Fatalf("expected correct, got %+v", outcome)
	}

	// Several tick intervals pass without a timeout.
	time.Sleep(200 * time.Millisecond)
	presenter.mu.Lock()
	outcomes := len(presenter.outcomes)
	presenter.mu.Unlock()
	if outcomes != 1 {
		t.Fatalf("expected only the answer outcome, got %d", outcomes)
	}
	select {
	case <-runner.Done():
		t.Fatalf("answered question must not auto-advance")
	default:
	}

	state, err := runner.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if state.Summary == nil || state.Summary.Result.Score != 1 {
		t.Fatalf("expected summary with score 1, got %+v", state.Summary)
	}
	if _, err := runner.Next(); err != domain.ErrSessionCompleted {
		t.Fatalf("expected completed error, got %v", err)
	}
}

func TestRunnerStopCancelsTimers(t *testing.T) {
	session, _, err := app.Start(pool()[2:], domain.SessionConfig{QuestionCount: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	runner := app.NewRunner(session, nil, nil, app.RunnerOptions{TickInterval: 50 * time.Millisecond})
	runner.Begin(context.Background())
	runner.Stop()

	time.Sleep(150 * time.Millisecond)
	if state := runner.State(); state.Phase != domain.PhaseUnanswered || state.Remaining != 1 {
		t.Fatalf("expected countdown frozen, got %+v", state)
	}
}

func TestRunnerNextBeforeResolutionFails(t *testing.T) {
	session, _, err := app.Start(pool(), domain.SessionConfig{QuestionCount: 2})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	runner := app.NewRunner(session, nil, nil, app.RunnerOptions{})
	runner.Begin(context.Background())
	defer runner.Stop()

	if _, err := runner.Next(); err != domain.ErrQuestionPending {
		t.Fatalf("expected pending error, got %v", err)
	}
}

type recordingPresenter struct {
	mu       sync.Mutex
	renders  int
	ticks    []int
	outcomes []domain.AnswerOutcome
	finished *domain.Summary
}

func (p *recordingPresenter) Render(domain.SessionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renders++
}

func (p *recordingPresenter) OnTimerTick(remaining int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks = append(p.ticks, remaining)
}

func (p *recordingPresenter) OnOutcome(outcome domain.AnswerOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, outcome)
}

func (p *recordingPresenter) OnFinished(summary domain.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = &summary
}
