package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"quiznufi-service/internal/auth"
	"quiznufi-service/internal/domain"

	"github.com/spf13/cobra"
)

// NewPlayCmd runs one quiz session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		cfgFlags        domain.SessionConfig
		email, password string
		username        string
		register        bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal (guest unless --email is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			quiz, authService := b.services(cfg, nil)
			out := cmd.OutOrStdout()

			tracker := auth.NewTracker(authService)
			switch {
			case email == "":
				tracker.ContinueAsGuest()
			case register:
				if _, err := tracker.Register(ctx, email, password, username); err != nil {
					return err
				}
			default:
				if _, err := tracker.Login(ctx, email, password); err != nil {
					return err
				}
			}
			identity := tracker.Identity()
			if identity.Guest {
				fmt.Fprintln(out, "Playing as guest; your score will not be saved.")
			} else {
				fmt.Fprintf(out, "Signed in as %s.\n", identity.DisplayName)
			}

			sessionCfg := defaultSessionConfig(cfg)
			if cfgFlags.Area != "" {
				sessionCfg.Area = cfgFlags.Area
			}
			if cfgFlags.Difficulty > 0 {
				sessionCfg.Difficulty = cfgFlags.Difficulty
			}
			if cmd.Flags().Changed("count") {
				sessionCfg.QuestionCount = cfgFlags.QuestionCount
			}

			presenter := &terminalPresenter{out: out}
			runner, notice, err := quiz.StartSession(ctx, identity, sessionCfg, presenter)
			if err != nil {
				return err
			}
			defer quiz.EndSession(runner.ID())
			if notice != nil {
				fmt.Fprintln(out, notice.Message)
			}
			fmt.Fprintln(out, "Type an option number to answer, n for the next question, q to quit.")
			runner.Begin(ctx)

			lines := readLines(ctx, cmd.InOrStdin())
			for {
				select {
				case <-runner.Done():
					return nil
				case <-ctx.Done():
					return ctx.Err()
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					switch line = strings.TrimSpace(line); line {
					case "":
					case "q":
						return nil
					case "n":
						if _, err := runner.Next(); err != nil {
							fmt.Fprintln(out, err)
						}
					default:
						value, ok := presenter.option(line)
						if !ok {
							fmt.Fprintln(out, "unknown option:", line)
							continue
						}
						if outcome, err := runner.Answer(value); err != nil {
							fmt.Fprintln(out, err)
						} else if outcome.Kind == domain.OutcomeAlreadyAnswered {
							fmt.Fprintln(out, "already answered; type n to continue")
						}
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&cfgFlags.Area, "area", "", "quiz area (defaults to quiz.default_area)")
	cmd.Flags().IntVar(&cfgFlags.Difficulty, "difficulty", 0, "difficulty level (defaults to quiz.default_difficulty)")
	cmd.Flags().IntVar(&cfgFlags.QuestionCount, "count", 0, "number of questions (defaults to quiz.default_count)")
	cmd.Flags().StringVar(&email, "email", "", "sign in with this account")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&username, "username", "", "display name when registering")
	cmd.Flags().BoolVar(&register, "register", false, "create the account before playing")
	return cmd
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// terminalPresenter prints runner events and remembers the options on
// screen so typed numbers map back to values.
type terminalPresenter struct {
	out io.Writer

	mu      sync.Mutex
	options []string
}

func (p *terminalPresenter) option(input string) (string, bool) {
	n, err := strconv.Atoi(input)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil || n < 1 || n > len(p.options) {
		return "", false
	}
	return p.options[n-1], true
}

func (p *terminalPresenter) Render(state domain.SessionState) {
	q := state.Question
	if q == nil {
		return
	}
	p.mu.Lock()
	p.options = append([]string(nil), q.Options...)
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\nQuestion %d/%d (%ds): %s\n", q.Index+1, q.Total, q.Time, q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
}

func (p *terminalPresenter) OnTimerTick(remaining int) {
	if remaining <= 5 || remaining%10 == 0 {
		fmt.Fprintf(p.out, "  %ds left\n", remaining)
	}
}

func (p *terminalPresenter) OnOutcome(outcome domain.AnswerOutcome) {
	switch outcome.Kind {
	case domain.OutcomeCorrect:
		fmt.Fprintf(p.out, "Correct! Score: %d\n", outcome.Score)
	case domain.OutcomeIncorrect:
		fmt.Fprintf(p.out, "Wrong, the answer was %q. Score: %d\n", outcome.CorrectValue, outcome.Score)
	case domain.OutcomeTimedOut:
		fmt.Fprintf(p.out, "Time's up! The answer was %q.\n", outcome.CorrectValue)
	}
}

func (p *terminalPresenter) OnFinished(summary domain.Summary) {
	r := summary.Result
	fmt.Fprintf(p.out, "\nQuiz complete: %d/%d (%.2f%%)\n", r.Score, r.TotalQuestions, r.Percentage)
	for _, n := range summary.Notices {
		fmt.Fprintf(p.out, "note: %s\n", n.Message)
	}
	if len(summary.Leaderboard) > 0 {
		fmt.Fprintln(p.out, "Leaderboard:")
		for _, e := range summary.Leaderboard {
			fmt.Fprintf(p.out, "  %d. %s\n", e.Rank, e)
		}
	}
}
