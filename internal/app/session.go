package app

import (
	"fmt"
	"time"

	"quiznufi-service/internal/domain"

	"github.com/google/uuid"
)

// Session is the state of one quiz attempt: the selected questions, the
// current index, the score and the countdown of the current question.
// A Session is not safe for concurrent use; Runner serializes access when
// timers are involved.
type Session struct {
	id        string
	identity  domain.Identity
	questions []domain.Question
	index     int
	score     int
	remaining int
	phase     domain.Phase
	status    domain.Status
	presented *domain.QuestionView
	result    *domain.Result
	rnd       Rand
	now       func() time.Time
}

// StartOption customizes a session at start.
type StartOption func(*Session)

// WithRand sets the shuffle source; tests use it for deterministic order.
func WithRand(rnd Rand) StartOption {
	return func(s *Session) { s.rnd = rnd }
}

// WithClock sets the clock used for the completion timestamp.
func WithClock(now func() time.Time) StartOption {
	return func(s *Session) { s.now = now }
}

// WithIdentity attaches the participant to the session.
func WithIdentity(identity domain.Identity) StartOption {
	return func(s *Session) { s.identity = identity }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) StartOption {
	return func(s *Session) { s.id = id }
}

// ValidQuestions splits pool into the questions that pass Validate and the
// validation errors of the rest.
func ValidQuestions(pool []domain.Question) ([]domain.Question, []error) {
	valid := make([]domain.Question, 0, len(pool))
	var invalid []error
	for _, q := range pool {
		if err := q.Validate(); err != nil {
			invalid = append(invalid, err)
			continue
		}
		valid = append(valid, q)
	}
	return valid, invalid
}

// Start validates cfg against the pool and returns a session positioned at
// the first question with a score of zero. Malformed questions are left out;
// the pool only fails when none is playable. A question count that is not
// positive or exceeds the pool is clamped to the pool size and reported
// through a ConfigAdjusted notice.
func Start(pool []domain.Question, cfg domain.SessionConfig, opts ...StartOption) (*Session, *domain.Notice, error) {
	if len(pool) == 0 {
		return nil, nil, domain.ErrEmptyPool
	}
	pool, invalid := ValidQuestions(pool)
	if len(pool) == 0 {
		return nil, nil, invalid[0]
	}

	s := &Session{
		id:       uuid.NewString(),
		identity: domain.GuestIdentity(),
		status:   domain.StatusInProgress,
		phase:    domain.PhaseUnanswered,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = newLockedRand()
	}

	var notice *domain.Notice
	count := cfg.QuestionCount
	if count <= 0 || count > len(pool) {
		notice = &domain.Notice{
			Kind:    domain.NoticeConfigAdjusted,
			Message: fmt.Sprintf("requested %d questions, starting with all %d available", cfg.QuestionCount, len(pool)),
		}
		count = len(pool)
	}

	// One pass over a copy of the pool; the first count entries are then a
	// uniformly random subset in uniformly random order.
	selected := make([]domain.Question, len(pool))
	copy(selected, pool)
	shuffle(s.rnd, selected)
	s.questions = selected[:count:count]
	s.remaining = s.questions[0].Time
	return s, notice, nil
}

func (s *Session) ID() string                { return s.id }
func (s *Session) Identity() domain.Identity { return s.identity }
func (s *Session) Score() int                { return s.score }
func (s *Session) Total() int                { return len(s.questions) }
func (s *Session) Status() domain.Status     { return s.status }
func (s *Session) Phase() domain.Phase       { return s.phase }
func (s *Session) Remaining() int            { return s.remaining }

// Questions returns the selected questions in play order.
func (s *Session) Questions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// CurrentQuestion presents the current question with its options freshly
// shuffled. Every call reshuffles.
func (s *Session) CurrentQuestion() (domain.QuestionView, error) {
	if s.status == domain.StatusCompleted {
		return domain.QuestionView{}, domain.ErrSessionCompleted
	}
	q := s.questions[s.index]
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	shuffle(s.rnd, options)

	view := domain.QuestionView{
		Index:   s.index,
		Total:   len(s.questions),
		Prompt:  q.Prompt,
		Options: options,
		Time:    q.Time,
	}
	s.presented = &view
	return view, nil
}

// Answer evaluates chosen against the current question by exact string
// equality. A second call for the same question is a no-op that reports
// AlreadyAnswered; so is an answer after the question timed out.
func (s *Session) Answer(chosen string) (domain.AnswerOutcome, error) {
	if s.status == domain.StatusCompleted {
		return domain.AnswerOutcome{}, domain.ErrSessionCompleted
	}
	if s.phase != domain.PhaseUnanswered {
		return domain.AnswerOutcome{Kind: domain.OutcomeAlreadyAnswered, Chosen: chosen, Score: s.score}, nil
	}

	q := s.questions[s.index]
	s.phase = domain.PhaseAnswered
	if chosen == q.Correct {
		s.score++
		return domain.AnswerOutcome{Kind: domain.OutcomeCorrect, Chosen: chosen, CorrectValue: q.Correct, Score: s.score}, nil
	}
	return domain.AnswerOutcome{Kind: domain.OutcomeIncorrect, Chosen: chosen, CorrectValue: q.Correct, Score: s.score}, nil
}

// Timeout resolves the current question as timed out. Score is unchanged.
func (s *Session) Timeout() (domain.AnswerOutcome, error) {
	if s.status == domain.StatusCompleted {
		return domain.AnswerOutcome{}, domain.ErrSessionCompleted
	}
	if s.phase != domain.PhaseUnanswered {
		return domain.AnswerOutcome{Kind: domain.OutcomeAlreadyAnswered, Score: s.score}, nil
	}
	s.phase = domain.PhaseTimedOut
	s.remaining = 0
	return domain.AnswerOutcome{
		Kind:         domain.OutcomeTimedOut,
		CorrectValue: s.questions[s.index].Correct,
		Score:        s.score,
	}, nil
}

// Tick counts one elapsed second off the current question. When the
// countdown reaches zero the question times out and the outcome is returned.
// Ticks on a resolved question leave the countdown where it stopped.
func (s *Session) Tick() (int, *domain.AnswerOutcome, error) {
	if s.status == domain.StatusCompleted {
		return 0, nil, domain.ErrSessionCompleted
	}
	if s.phase != domain.PhaseUnanswered {
		return s.remaining, nil, nil
	}
	s.remaining--
	if s.remaining > 0 {
		return s.remaining, nil, nil
	}
	outcome, err := s.Timeout()
	if err != nil {
		return 0, nil, err
	}
	return 0, &outcome, nil
}

// Advance moves to the next question, or freezes the session into a Result
// after the last one. Advancing an unresolved question is a caller error.
func (s *Session) Advance() (domain.SessionState, error) {
	if s.status == domain.StatusCompleted {
		return s.State(), domain.ErrSessionCompleted
	}
	if s.phase == domain.PhaseUnanswered {
		return s.State(), domain.ErrQuestionPending
	}

	s.presented = nil
	if s.index+1 < len(s.questions) {
		s.index++
		s.phase = domain.PhaseUnanswered
		s.remaining = s.questions[s.index].Time
		return s.State(), nil
	}

	s.status = domain.StatusCompleted
	s.remaining = 0
	s.result = &domain.Result{
		SessionID:      s.id,
		Participant:    s.identity,
		Score:          s.score,
		TotalQuestions: len(s.questions),
		Percentage:     domain.Percentage(s.score, len(s.questions)),
		CompletedAt:    s.now().UTC(),
	}
	return s.State(), nil
}

// Result returns the frozen result once the session has completed.
func (s *Session) Result() (domain.Result, bool) {
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

// State snapshots the session. The question view is the last one presented
// for the current index, if any.
func (s *Session) State() domain.SessionState {
	state := domain.SessionState{
		SessionID: s.id,
		Status:    s.status,
		Index:     s.index,
		Total:     len(s.questions),
		Score:     s.score,
		Remaining: s.remaining,
	}
	if s.status == domain.StatusCompleted {
		result := *s.result
		state.Result = &result
		return state
	}
	state.Phase = s.phase
	if s.presented != nil {
		view := *s.presented
		state.Question = &view
	}
	return state
}
