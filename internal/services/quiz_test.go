package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/iof-learning/internal/data/repos/testutil"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
)

func newQuizForTest(env *testEnv) QuizService {
	return NewQuizService(env.db, env.log, env.users, env.quizzes, env.questions, env.attempts, env.leaderboard)
}

func seedQuestions(t *testing.T, env *testEnv, n int) []*types.Question {
	t.Helper()
	bank := NewQuestionBankService(env.db, env.log, env.questions, env.imports)
	out := make([]*types.Question, 0, n)
	for i := 0; i < n; i++ {
		q, err := bank.Create(context.Background(), validRecord(i, "easy"))
		if err != nil {
			t.Fatalf("seed question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func TestQuizSubmitScoresAndRanks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := asAdmin(ctx, testutil.SeedUser(t, ctx, env.db, "admin@example.com"))
	ada := testutil.SeedUser(t, ctx, env.db, "ada@example.com")
	bob := testutil.SeedUser(t, ctx, env.db, "bob@example.com")
	questions := seedQuestions(t, env, 3)
	svc := newQuizForTest(env)

	quiz, err := svc.Create(admin, QuizInput{
		Title:       "Bonds basics",
		Published:   true,
		QuestionIDs: []uuid.UUID{questions[0].ID, questions[1].ID, questions[2].ID, questions[0].ID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n := len(quiz.QuestionIDs.Data()); n != 3 {
		t.Fatalf("duplicate ids kept: %d", n)
	}

	view, err := svc.Get(ctx, quiz.ID)
	if err != nil || len(view.Questions) != 3 || view.Questions[0].ID != questions[0].ID {
		t.Fatalf("Get: err=%v view=%+v", err, view)
	}

	answers := map[string]string{
		questions[0].ID.String(): "b",
		questions[1].ID.String(): "a",
		questions[2].ID.String(): "b",
		uuid.NewString():         "b",
	}
	res, err := svc.Submit(asUser(ctx, ada), quiz.ID, answers)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Points != 2 || res.Attempt.MaxScore != 3 || len(res.Attempt.Answers.Data()) != 3 || len(res.Correct) != 3 {
		t.Fatalf("result: points=%d attempt=%+v", res.Points, res.Attempt)
	}
	if _, err := svc.Submit(asUser(ctx, ada), quiz.ID, answers); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if _, err := svc.Submit(asUser(ctx, bob), quiz.ID, map[string]string{questions[0].ID.String(): "b"}); err != nil {
		t.Fatalf("bob Submit: %v", err)
	}

	board := NewLeaderboardService(env.log, env.leaderboard)
	top, err := board.Top(ctx, 0)
	if err != nil || len(top) != 2 {
		t.Fatalf("Top: err=%v n=%d", err, len(top))
	}
	if top[0].UserID != ada.ID || top[0].Points != 4 || top[0].QuizzesTaken != 2 || top[1].Points != 1 {
		t.Fatalf("ranking: %+v %+v", top[0], top[1])
	}

	attempts, err := svc.ListMyAttempts(asUser(ctx, ada), 0)
	if err != nil || len(attempts) != 2 {
		t.Fatalf("ListMyAttempts: err=%v n=%d", err, len(attempts))
	}

	carol := testutil.SeedUser(t, ctx, env.db, "carol@example.com")
	mine, err := board.Mine(asUser(ctx, carol))
	if err != nil || mine.Points != 0 || mine.UserID != carol.ID {
		t.Fatalf("Mine for newcomer: err=%v entry=%+v", err, mine)
	}
}

func TestQuizRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := asAdmin(ctx, testutil.SeedUser(t, ctx, env.db, "admin@example.com"))
	ada := testutil.SeedUser(t, ctx, env.db, "ada@example.com")
	seedQuestions(t, env, 2)
	svc := newQuizForTest(env)

	var ae *apierr.Error
	if _, err := svc.Create(admin, QuizInput{Title: "Too many", QuestionCount: 5}); !errors.As(err, &ae) || ae.Code != "invalid_quiz" {
		t.Fatalf("over-draw: want invalid_quiz, got %v", err)
	}
	if _, err := svc.Create(admin, QuizInput{Title: "Bad ids", QuestionIDs: []uuid.UUID{uuid.New()}}); !errors.As(err, &ae) || ae.Code != "invalid_quiz" {
		t.Fatalf("unknown id: want invalid_quiz, got %v", err)
	}
	drawn, err := svc.Create(admin, QuizInput{Title: "Drawn", QuestionCount: 2, Difficulty: "EASY", Published: true})
	if err != nil || len(drawn.QuestionIDs.Data()) != 2 {
		t.Fatalf("auto-pick: err=%v quiz=%+v", err, drawn)
	}

	empty, err := svc.Create(admin, QuizInput{Title: "Empty", Published: true})
	if err != nil {
		t.Fatalf("Create empty: %v", err)
	}
	if _, err := svc.Submit(asUser(ctx, ada), empty.ID, nil); !errors.As(err, &ae) || ae.Code != "quiz_empty" {
		t.Fatalf("empty quiz: want quiz_empty, got %v", err)
	}

	draft, err := svc.Create(admin, QuizInput{Title: "Draft"})
	if err != nil {
		t.Fatalf("Create draft: %v", err)
	}
	if _, err := svc.Get(asUser(ctx, ada), draft.ID); !errors.As(err, &ae) || ae.Status != http.StatusNotFound {
		t.Fatalf("draft visible to learner: %v", err)
	}
	if _, err := svc.Submit(ctx, drawn.ID, nil); !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
		t.Fatalf("anonymous submit: want 401, got %v", err)
	}
	if err := svc.Delete(admin, draft.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(admin, draft.ID); !errors.As(err, &ae) || ae.Status != http.StatusNotFound {
		t.Fatalf("second Delete: want 404, got %v", err)
	}
}
