package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"quiznufi-service/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewQuestionBank(sampleQuestions()...)}
	repo := NewQuestionRepository(loader, time.Minute)
	filter := domain.QuestionFilter{Difficulty: 1, Area: "Yahlēh"}

	pool, err := repo.Questions(context.Background(), filter)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(pool))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.Questions(context.Background(), filter); err != nil {
		t.Fatalf("get pool 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewQuestionBank(sampleQuestions()...)}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }
	filter := domain.QuestionFilter{Difficulty: 1, Area: "Yahlēh"}

	_, _ = repo.Questions(context.Background(), filter)
	now = now.Add(2 * time.Minute)
	_, _ = repo.Questions(context.Background(), filter)
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryPropagatesLoaderErrors(t *testing.T) {
	boom := errors.New("firestore down")
	repo := NewQuestionRepository(failingLoader{err: boom}, time.Minute)

	if _, err := repo.Questions(context.Background(), domain.QuestionFilter{Difficulty: 1, Area: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, err := repo.DifficultyLevels(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestQuestionBankDifficultyLevels(t *testing.T) {
	bank := NewQuestionBank(sampleQuestions()...)
	levels, err := bank.LoadDifficultyLevels(context.Background(), "Yahlēh")
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if !reflect.DeepEqual(levels, []int{1, 2}) {
		t.Fatalf("expected [1 2], got %v", levels)
	}
}

func TestQuestionBankUpsertByPrompt(t *testing.T) {
	bank := NewQuestionBank(sampleQuestions()...)
	q := sampleQuestions()[0]
	q.Time = 90

	inserted, err := bank.UpsertQuestion(context.Background(), q)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if inserted {
		t.Fatalf("expected update of existing prompt")
	}
	if bank.Len() != 3 {
		t.Fatalf("expected 3 questions, got %d", bank.Len())
	}

	q.Prompt = "brand new"
	if inserted, _ := bank.UpsertQuestion(context.Background(), q); !inserted {
		t.Fatalf("expected insert for a new prompt")
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, filter)
}

type failingLoader struct{ err error }

func (l failingLoader) LoadQuestions(context.Context, domain.QuestionFilter) ([]domain.Question, error) {
	return nil, l.err
}

func (l failingLoader) LoadDifficultyLevels(context.Context, string) ([]int, error) {
	return nil, l.err
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "Comment appelle-t-on la cuillère ?", Options: []string{"Mfɑ̀'", "Wúzɑ̄", "Lū'"}, Correct: "Lū'", Time: 30, Difficulty: 1, Area: "Yahlēh"},
		{ID: "q2", Prompt: "Pó ncēh wú ntám ...", Options: []string{"Kā'", "Cak", "Pú'ŋwɑ'ni"}, Correct: "Pú'ŋwɑ'ni", Time: 45, Difficulty: 1, Area: "Yahlēh"},
		{ID: "q3", Prompt: "Wū yi pó ndáh ncēh", Options: []string{"Mvī", "Zēn", "Ndhī", "Nū"}, Correct: "Zēn", Time: 60, Difficulty: 2, Area: "Yahlēh"},
	}
}
