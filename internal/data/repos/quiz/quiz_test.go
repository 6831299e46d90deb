package quiz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/iof-learning/internal/data/repos/testutil"
	types "github.com/yungbote/iof-learning/internal/domain"
	domainquiz "github.com/yungbote/iof-learning/internal/domain/quiz"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
)

func newQuestion(d types.Difficulty, subject, topic string) *types.Question {
	return &types.Question{
		Question:      "What is 2+2?",
		Options:       datatypes.NewJSONType([]string{"3", "4"}),
		CorrectAnswer: "4",
		Difficulty:    d,
		Subject:       subject,
		Topic:         topic,
	}
}

func TestQuestionRepoFiltersAndDelete(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewQuestionRepo(db, testutil.Logger(t))

	batch := []*types.Question{
		newQuestion(domainquiz.DifficultyEasy, "math", "arithmetic"),
		newQuestion(domainquiz.DifficultyHard, "math", "algebra"),
		newQuestion(domainquiz.DifficultyEasy, "finance", "budgeting"),
	}
	created, err := repo.CreateBatch(dbc, batch)
	if err != nil || len(created) != 3 {
		t.Fatalf("CreateBatch: err=%v len=%d", err, len(created))
	}

	easy, err := repo.List(dbc, QuestionFilter{Difficulty: domainquiz.DifficultyEasy})
	if err != nil || len(easy) != 2 {
		t.Fatalf("List easy: err=%v len=%d", err, len(easy))
	}
	if n, err := repo.Count(dbc, QuestionFilter{Subject: "math"}); err != nil || n != 2 {
		t.Fatalf("Count math: err=%v n=%d", err, n)
	}
	if got, _ := repo.List(dbc, QuestionFilter{Topic: "budgeting"}); len(got) != 1 || got[0].Options.Data()[1] != "4" {
		t.Fatalf("List topic: got=%v", got)
	}

	n, err := repo.DeleteByIDs(dbc, []uuid.UUID{created[0].ID, created[1].ID})
	if err != nil || n != 2 {
		t.Fatalf("DeleteByIDs: err=%v n=%d", err, n)
	}
	if rest, _ := repo.List(dbc, QuestionFilter{}); len(rest) != 1 {
		t.Fatalf("after delete: want=1 got=%d", len(rest))
	}
}

func TestLeaderboardAddPointsAccumulates(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewLeaderboardRepo(db, testutil.Logger(t))
	a := testutil.SeedUser(t, ctx, db, "a@example.com")
	b := testutil.SeedUser(t, ctx, db, "b@example.com")

	if err := repo.AddPoints(dbc, a.ID, "A", 5); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}
	if err := repo.AddPoints(dbc, a.ID, "A", 3); err != nil {
		t.Fatalf("AddPoints again: %v", err)
	}
	if err := repo.AddPoints(dbc, b.ID, "B", 7); err != nil {
		t.Fatalf("AddPoints b: %v", err)
	}

	got, err := repo.Get(dbc, a.ID)
	if err != nil || got == nil || got.Points != 8 || got.QuizzesTaken != 2 {
		t.Fatalf("entry a: err=%v got=%+v", err, got)
	}
	top, err := repo.Top(dbc, 10)
	if err != nil || len(top) != 2 || top[0].UserID != a.ID {
		t.Fatalf("Top: err=%v top=%+v", err, top)
	}
}

func TestQuizRepoPublishedFilter(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewQuizRepo(db, testutil.Logger(t))

	if _, err := repo.Create(dbc, &types.Quiz{Title: "Live", Published: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(dbc, &types.Quiz{Title: "Draft"}); err != nil {
		t.Fatalf("Create draft: %v", err)
	}
	if list, _ := repo.List(dbc, true); len(list) != 1 {
		t.Fatalf("published only: want=1 got=%d", len(list))
	}
	if list, _ := repo.List(dbc, false); len(list) != 2 {
		t.Fatalf("all: want=2 got=%d", len(list))
	}
}
