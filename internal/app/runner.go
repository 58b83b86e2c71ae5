package app

import (
	"context"
	"sync"
	"time"

	"quiznufi-service/internal/domain"
)

const (
	DefaultTickInterval     = time.Second
	DefaultAutoAdvanceDelay = 5 * time.Second
)

// Presenter receives the state transitions of a running session. Calls are
// made while the runner holds its lock, so implementations must not call
// back into the runner synchronously.
type Presenter interface {
	Render(state domain.SessionState)
	OnTimerTick(remaining int)
	OnOutcome(outcome domain.AnswerOutcome)
	OnFinished(summary domain.Summary)
}

// NopPresenter discards every event. REST sessions use it and poll State.
type NopPresenter struct{}

func (NopPresenter) Render(domain.SessionState)     {}
func (NopPresenter) OnTimerTick(int)                {}
func (NopPresenter) OnOutcome(domain.AnswerOutcome) {}
func (NopPresenter) OnFinished(domain.Summary)      {}

// CompletionFunc turns a final result into the summary shown to the player.
type CompletionFunc func(ctx context.Context, result domain.Result) domain.Summary

// RunnerOptions tune the countdown.
type RunnerOptions struct {
	TickInterval     time.Duration
	AutoAdvanceDelay time.Duration
	Metrics          Metrics
}

// Runner drives a Session in real time: one countdown per question, an
// auto-advance after a timeout and the completion hook after the last
// question. At most one countdown and one pending auto-advance exist at a
// time; a generation counter makes stale timer callbacks no-ops.
type Runner struct {
	ctx        context.Context
	session    *Session
	presenter  Presenter
	onComplete CompletionFunc
	tick       time.Duration
	grace      time.Duration
	metrics    Metrics

	mu          sync.Mutex
	generation  uint64
	stopTimer   context.CancelFunc
	autoAdvance *time.Timer
	stopped     bool
	summary     *domain.Summary
	done        chan struct{}
	doneOnce    sync.Once
}

func NewRunner(session *Session, presenter Presenter, onComplete CompletionFunc, opts RunnerOptions) *Runner {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.AutoAdvanceDelay <= 0 {
		opts.AutoAdvanceDelay = DefaultAutoAdvanceDelay
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	return &Runner{
		ctx:        context.Background(),
		session:    session,
		presenter:  presenter,
		onComplete: onComplete,
		tick:       opts.TickInterval,
		grace:      opts.AutoAdvanceDelay,
		metrics:    opts.Metrics,
		done:       make(chan struct{}),
	}
}

func (r *Runner) ID() string { return r.session.ID() }

// Identity is the participant the session was started for.
func (r *Runner) Identity() domain.Identity { return r.session.Identity() }

// Done is closed once the session has completed and its summary is ready.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Begin presents the first question and arms its countdown. Timers stop
// when ctx is cancelled; the completion hook also runs with ctx.
func (r *Runner) Begin(ctx context.Context) domain.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
	if r.session.Status() == domain.StatusCompleted {
		return r.session.State()
	}
	r.presentLocked()
	return r.session.State()
}

// Answer submits the player's choice for the current question and stops
// its countdown.
func (r *Runner) Answer(value string) (domain.AnswerOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome, err := r.session.Answer(value)
	if err != nil {
		return outcome, err
	}
	if outcome.Kind != domain.OutcomeAlreadyAnswered {
		r.cancelTimersLocked()
		r.metrics.AnswerRecorded(outcome.Kind)
		r.presenter.OnOutcome(outcome)
	}
	return outcome, nil
}

// Next advances past a resolved question. It cancels a pending
// auto-advance. When the session completes, Next returns after the
// completion hook has produced the summary.
func (r *Runner) Next() (domain.SessionState, error) {
	r.mu.Lock()
	state, result, err := r.advanceLocked()
	r.mu.Unlock()
	if err != nil {
		return state, err
	}
	if result != nil {
		summary := r.finish(*result)
		state.Summary = &summary
	}
	return state, nil
}

// State snapshots the session, including the summary once available.
func (r *Runner) State() domain.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.session.State()
	if r.summary != nil {
		summary := *r.summary
		state.Summary = &summary
	}
	return state
}

// Stop cancels all timers. The session keeps its state.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.cancelTimersLocked()
}

func (r *Runner) presentLocked() {
	r.cancelTimersLocked()
	r.generation++
	if _, err := r.session.CurrentQuestion(); err != nil {
		return
	}
	r.presenter.Render(r.session.State())

	ctx, cancel := context.WithCancel(r.ctx)
	r.stopTimer = cancel
	go r.countdown(ctx, r.generation)
}

func (r *Runner) countdown(ctx context.Context, generation uint64) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.stopped || generation != r.generation {
				r.mu.Unlock()
				return
			}
			remaining, outcome, err := r.session.Tick()
			if err != nil {
				r.mu.Unlock()
				return
			}
			r.presenter.OnTimerTick(remaining)
			if outcome != nil {
				r.metrics.AnswerRecorded(outcome.Kind)
				r.presenter.OnOutcome(*outcome)
				r.autoAdvance = time.AfterFunc(r.grace, func() { r.autoNext(generation) })
				r.mu.Unlock()
				return
			}
			r.mu.Unlock()
		}
	}
}

func (r *Runner) autoNext(generation uint64) {
	r.mu.Lock()
	if r.stopped || generation != r.generation || r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	_, result, err := r.advanceLocked()
	r.mu.Unlock()
	if err == nil && result != nil {
		r.finish(*result)
	}
}

// advanceLocked returns the result when this call completed the session.
func (r *Runner) advanceLocked() (domain.SessionState, *domain.Result, error) {
	state, err := r.session.Advance()
	if err != nil {
		return state, nil, err
	}
	if state.Status == domain.StatusCompleted {
		r.cancelTimersLocked()
		r.generation++
		result := *state.Result
		return state, &result, nil
	}
	r.presentLocked()
	return r.session.State(), nil, nil
}

func (r *Runner) finish(result domain.Result) domain.Summary {
	summary := domain.Summary{Result: result}
	if r.onComplete != nil {
		summary = r.onComplete(r.ctx, result)
	}

	r.mu.Lock()
	r.summary = &summary
	r.presenter.OnFinished(summary)
	r.mu.Unlock()

	r.doneOnce.Do(func() { close(r.done) })
	return summary
}

func (r *Runner) cancelTimersLocked() {
	if r.stopTimer != nil {
		r.stopTimer()
		r.stopTimer = nil
	}
	if r.autoAdvance != nil {
		r.autoAdvance.Stop()
		r.autoAdvance = nil
	}
}
