package domain

import (
	"fmt"
	"math"
	"time"
)

// Question models a timed multiple-choice question. The correct answer is
// identified by value, not by position, because options are reshuffled every
// time the question is shown.
type Question struct {
	ID         string   `json:"id,omitempty"`
	Prompt     string   `json:"question" yaml:"question"`
	Options    []string `json:"options" yaml:"options"`
	Correct    string   `json:"correct" yaml:"correct"`
	Time       int      `json:"time" yaml:"time"` // seconds
	Difficulty int      `json:"difficulty_level,omitempty" yaml:"difficulty_level"`
	Area       string   `json:"quiz_area,omitempty" yaml:"quiz_area"`
}

const (
	MinOptions = 2
	MaxOptions = 4
)

// Validate checks the question invariants: 2-4 options, a positive time
// allotment and a correct value that is one of the options.
func (q Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return fmt.Errorf("%w: %q has %d options", ErrInvalidQuestion, q.Prompt, len(q.Options))
	}
	if q.Time <= 0 {
		return fmt.Errorf("%w: %q has no time allotment", ErrInvalidQuestion, q.Prompt)
	}
	for _, opt := range q.Options {
		if opt == q.Correct {
			return nil
		}
	}
	return fmt.Errorf("%w: %q correct value not among options", ErrInvalidQuestion, q.Prompt)
}

// QuestionFilter selects a question pool by the two repository tags.
type QuestionFilter struct {
	Difficulty int    `json:"difficulty_level"`
	Area       string `json:"quiz_area"`
}

func (f QuestionFilter) String() string {
	return fmt.Sprintf("%s/%d", f.Area, f.Difficulty)
}

// SessionConfig is what the player asks for when starting a quiz.
type SessionConfig struct {
	QuestionCount int    `json:"count"`
	Difficulty    int    `json:"difficulty"`
	Area          string `json:"area"`
}

func (c SessionConfig) Filter() QuestionFilter {
	return QuestionFilter{Difficulty: c.Difficulty, Area: c.Area}
}

// Identity is the participant running a session. Guests carry no user id.
type Identity struct {
	UserID      string `json:"uid,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	Guest       bool   `json:"guest"`
}

// GuestIdentity is the marker used for sessions run without an account.
func GuestIdentity() Identity {
	return Identity{Guest: true, DisplayName: "Guest"}
}

// Account is a registered user as seen by the authentication provider.
type Account struct {
	ID       string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Identity converts a signed-in account to a session participant.
func (a Account) Identity() Identity {
	return Identity{UserID: a.ID, DisplayName: a.Username, Email: a.Email}
}

// Profile is the user profile record consulted for display names.
type Profile struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Result is the frozen outcome of a completed session.
type Result struct {
	SessionID      string    `json:"sessionId"`
	Participant    Identity  `json:"participant"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     float64   `json:"percentage"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Eligible reports whether the result may be written to the leaderboard.
func (r Result) Eligible() bool {
	return !r.Participant.Guest && r.Participant.UserID != ""
}

// Percentage returns score/total*100 rounded to two decimals; zero when total is zero.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*100*100) / 100
}

// LeaderboardEntry is a stored result plus store-assigned metadata.
type LeaderboardEntry struct {
	ID             string    `json:"id"`
	Rank           int       `json:"rank,omitempty"`
	UserID         string    `json:"uid"`
	Username       string    `json:"username,omitempty"`
	Email          string    `json:"email,omitempty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     float64   `json:"percentage"`
	Timestamp      time.Time `json:"timestamp"`
}

// AnonymousName is shown when an entry carries neither username nor email.
const AnonymousName = "Anonymous"

// Name returns the label to display for the entry.
func (e LeaderboardEntry) Name() string {
	switch {
	case e.Username != "":
		return e.Username
	case e.Email != "":
		return e.Email
	default:
		return AnonymousName
	}
}

func (e LeaderboardEntry) String() string {
	return fmt.Sprintf("%s: %.2f%% (%d/%d)", e.Name(), Percentage(e.Score, e.TotalQuestions), e.Score, e.TotalQuestions)
}

// Ranks reports whether e ranks above other: higher percentage first, then
// the earlier submission.
func (e LeaderboardEntry) Ranks(other LeaderboardEntry) bool {
	if e.Percentage != other.Percentage {
		return e.Percentage > other.Percentage
	}
	return e.Timestamp.Before(other.Timestamp)
}

// OutcomeKind classifies what happened to the current question.
type OutcomeKind string

const (
	OutcomeCorrect         OutcomeKind = "correct"
	OutcomeIncorrect       OutcomeKind = "incorrect"
	OutcomeTimedOut        OutcomeKind = "timed_out"
	OutcomeAlreadyAnswered OutcomeKind = "already_answered"
)

// AnswerOutcome is returned by answer and timeout. CorrectValue is surfaced
// whenever the caller should reveal the right option.
type AnswerOutcome struct {
	Kind         OutcomeKind `json:"kind"`
	Chosen       string      `json:"chosen,omitempty"`
	CorrectValue string      `json:"correct,omitempty"`
	Score        int         `json:"score"`
}

// Status is the top-level session state.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Phase is the per-question sub-state while a session is in progress.
type Phase string

const (
	PhaseUnanswered Phase = "unanswered"
	PhaseAnswered   Phase = "answered"
	PhaseTimedOut   Phase = "timed_out"
)

// QuestionView is a question as presented to a player: options in display
// order and no correct value.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Time    int      `json:"time"`
}

// SessionState is a snapshot of a session for presenters and transports.
type SessionState struct {
	SessionID string        `json:"sessionId"`
	Status    Status        `json:"status"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Score     int           `json:"score"`
	Remaining int           `json:"remaining"`
	Phase     Phase         `json:"phase,omitempty"`
	Question  *QuestionView `json:"question,omitempty"`
	Result    *Result       `json:"result,omitempty"`
	Summary   *Summary      `json:"summary,omitempty"`
}

// NoticeKind names a non-fatal condition surfaced to the player.
type NoticeKind string

const (
	NoticeConfigAdjusted         NoticeKind = "config_adjusted"
	NoticeSubmissionFailed       NoticeKind = "submission_failed"
	NoticeLeaderboardFetchFailed NoticeKind = "leaderboard_fetch_failed"
)

// Notice is an informational message; it never aborts the flow that raised it.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Summary is what a finished session shows: the local result, the
// leaderboard snapshot (nil when it could not be fetched) and notices.
type Summary struct {
	Result      Result             `json:"result"`
	Submitted   bool               `json:"submitted"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
	Notices     []Notice           `json:"notices,omitempty"`
}
