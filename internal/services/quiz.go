package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/domain/quiz"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type QuizInput struct {
	Title            string      `json:"title" validate:"required,max=200"`
	Description      string      `json:"description"`
	Subject          string      `json:"subject"`
	Topic            string      `json:"topic"`
	Difficulty       string      `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	TimeLimitSeconds int         `json:"time_limit_seconds" validate:"gte=0"`
	Published        bool        `json:"published"`
	QuestionIDs      []uuid.UUID `json:"question_ids"`
	// QuestionCount draws that many bank questions matching subject, topic and
	// difficulty when QuestionIDs is empty.
	QuestionCount    int         `json:"question_count" validate:"gte=0,lte=200"`
}

// PublicQuestion is a question as shown to a learner: no answer, no explanation.
type PublicQuestion struct {
	ID         uuid.UUID       `json:"id"`
	Question   string          `json:"question"`
	Options    []string        `json:"options"`
	Difficulty quiz.Difficulty `json:"difficulty"`
}

type QuizView struct {
	*types.Quiz
	Questions []PublicQuestion `json:"questions"`
}

type AttemptResult struct {
	Attempt *types.QuizAttempt `json:"attempt"`
	Correct map[string]string  `json:"correct"`
	Points  int                `json:"points"`
}

type QuizService interface {
	List(ctx context.Context, publishedOnly bool) ([]*types.Quiz, error)
	Get(ctx context.Context, id uuid.UUID) (*QuizView, error)
	Create(ctx context.Context, in QuizInput) (*types.Quiz, error)
	Update(ctx context.Context, id uuid.UUID, in QuizInput) (*types.Quiz, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Submit(ctx context.Context, quizID uuid.UUID, answers map[string]string) (*AttemptResult, error)
	ListMyAttempts(ctx context.Context, limit int) ([]*types.QuizAttempt, error)
}

type quizService struct {
	db              *gorm.DB
	log             *logger.Logger
	userRepo        repos.UserRepo
	quizRepo        repos.QuizRepo
	questionRepo    repos.QuestionRepo
	attemptRepo     repos.QuizAttemptRepo
	leaderboardRepo repos.LeaderboardRepo
	validate        *validator.Validate
}

func NewQuizService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	quizRepo repos.QuizRepo,
	questionRepo repos.QuestionRepo,
	attemptRepo repos.QuizAttemptRepo,
	leaderboardRepo repos.LeaderboardRepo,
) QuizService {
	return &quizService{
		db:              db,
		log:             log.With("service", "QuizService"),
		userRepo:        userRepo,
		quizRepo:        quizRepo,
		questionRepo:    questionRepo,
		attemptRepo:     attemptRepo,
		leaderboardRepo: leaderboardRepo,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *quizService) List(ctx context.Context, publishedOnly bool) ([]*types.Quiz, error) {
	out, err := s.quizRepo.List(dbcOf(ctx), publishedOnly)
	if err != nil {
		return nil, apierr.From(err, "list_quizzes_failed")
	}
	return out, nil
}

func (s *quizService) loadVisible(ctx context.Context, id uuid.UUID) (*types.Quiz, error) {
	q, err := s.quizRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "get_quiz_failed")
	}
	if q == nil || (!q.Published && !isAdmin(ctx)) {
		return nil, notFound("quiz_not_found", "quiz")
	}
	return q, nil
}

// orderedQuestions returns the quiz's questions in quiz order, skipping deleted ones.
func (s *quizService) orderedQuestions(dbc dbctx.Context, q *types.Quiz) ([]*types.Question, error) {
	ids := q.QuestionIDs.Data()
	found, err := s.questionRepo.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Question, len(found))
	for _, qq := range found {
		byID[qq.ID] = qq
	}
	out := make([]*types.Question, 0, len(ids))
	for _, id := range ids {
		if qq := byID[id]; qq != nil {
			out = append(out, qq)
		}
	}
	return out, nil
}

func (s *quizService) Get(ctx context.Context, id uuid.UUID) (*QuizView, error) {
	q, err := s.loadVisible(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.orderedQuestions(dbcOf(ctx), q)
	if err != nil {
		return nil, apierr.From(err, "get_quiz_failed")
	}
	view := &QuizView{Quiz: q, Questions: make([]PublicQuestion, 0, len(questions))}
	for _, qq := range questions {
		view.Questions = append(view.Questions, PublicQuestion{
			ID:         qq.ID,
			Question:   qq.Question,
			Options:    qq.Options.Data(),
			Difficulty: qq.Difficulty,
		})
	}
	return view, nil
}

func (s *quizService) resolveQuestions(ctx context.Context, in QuizInput) ([]uuid.UUID, error) {
	if len(in.QuestionIDs) > 0 {
		found, err := s.questionRepo.GetByIDs(dbcOf(ctx), in.QuestionIDs)
		if err != nil {
			return nil, err
		}
		have := make(map[uuid.UUID]bool, len(found))
		for _, q := range found {
			have[q.ID] = true
		}
		seen := make(map[uuid.UUID]bool, len(in.QuestionIDs))
		out := make([]uuid.UUID, 0, len(in.QuestionIDs))
		for i, id := range in.QuestionIDs {
			if !have[id] {
				return nil, apierr.Invalid("invalid_quiz", apierr.FieldError{Index: i, Field: "question_ids", Message: "unknown question"})
			}
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
		return out, nil
	}
	if in.QuestionCount == 0 {
		return []uuid.UUID{}, nil
	}
	picked, err := s.questionRepo.List(dbcOf(ctx), repos.QuestionFilter{
		Difficulty: quiz.Difficulty(in.Difficulty),
		Subject:    in.Subject,
		Topic:      in.Topic,
		Limit:      in.QuestionCount,
	})
	if err != nil {
		return nil, err
	}
	if len(picked) < in.QuestionCount {
		return nil, apierr.Invalid("invalid_quiz", apierr.FieldError{
			Index:   -1,
			Field:   "question_count",
			Message: fmt.Sprintf("only %d matching questions available", len(picked)),
		})
	}
	out := make([]uuid.UUID, 0, len(picked))
	for _, q := range picked {
		out = append(out, q.ID)
	}
	return out, nil
}

func (s *quizService) apply(ctx context.Context, q *types.Quiz, in QuizInput) error {
	in.Difficulty = strings.ToLower(strings.TrimSpace(in.Difficulty))
	if err := s.validate.Struct(in); err != nil {
		return invalidFromValidator("invalid_quiz", -1, err)
	}
	ids, err := s.resolveQuestions(ctx, in)
	if err != nil {
		return err
	}
	q.Title = strings.TrimSpace(in.Title)
	q.Description = strings.TrimSpace(in.Description)
	q.Subject = strings.TrimSpace(in.Subject)
	q.Topic = strings.TrimSpace(in.Topic)
	q.Difficulty = quiz.Difficulty(in.Difficulty)
	q.TimeLimit = in.TimeLimitSeconds
	q.Published = in.Published
	q.QuestionIDs = datatypes.NewJSONType(ids)
	return nil
}

func (s *quizService) Create(ctx context.Context, in QuizInput) (*types.Quiz, error) {
	q := &types.Quiz{}
	if err := s.apply(ctx, q, in); err != nil {
		return nil, apierr.From(err, "create_quiz_failed")
	}
	if _, err := s.quizRepo.Create(dbcOf(ctx), q); err != nil {
		return nil, apierr.From(err, "create_quiz_failed")
	}
	return q, nil
}

func (s *quizService) Update(ctx context.Context, id uuid.UUID, in QuizInput) (*types.Quiz, error) {
	q, err := s.quizRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "update_quiz_failed")
	}
	if q == nil {
		return nil, notFound("quiz_not_found", "quiz")
	}
	if err := s.apply(ctx, q, in); err != nil {
		return nil, apierr.From(err, "update_quiz_failed")
	}
	if err := s.quizRepo.Save(dbcOf(ctx), q); err != nil {
		return nil, apierr.From(err, "update_quiz_failed")
	}
	return q, nil
}

func (s *quizService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.quizRepo.Delete(dbcOf(ctx), id)
	if err != nil {
		return apierr.From(err, "delete_quiz_failed")
	}
	if !ok {
		return notFound("quiz_not_found", "quiz")
	}
	return nil
}

// Submit scores answers keyed by question id. The attempt and the leaderboard
// update commit together.
func (s *quizService) Submit(ctx context.Context, quizID uuid.UUID, answers map[string]string) (*AttemptResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.loadVisible(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.orderedQuestions(dbcOf(ctx), q)
	if err != nil {
		return nil, apierr.From(err, "submit_quiz_failed")
	}
	if len(questions) == 0 {
		return nil, apierr.New(http.StatusConflict, "quiz_empty", fmt.Errorf("quiz has no questions: %w", perr.ErrConflict))
	}
	u, err := s.userRepo.GetByID(dbcOf(ctx), userID)
	if err != nil {
		return nil, apierr.From(err, "submit_quiz_failed")
	}
	if u == nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", perr.ErrUnauthorized)
	}

	score := 0
	kept := make(map[string]string, len(questions))
	correct := make(map[string]string, len(questions))
	for _, qq := range questions {
		key := qq.ID.String()
		correct[key] = qq.CorrectAnswer
		given, ok := answers[key]
		if !ok {
			continue
		}
		kept[key] = given
		if strings.TrimSpace(given) == qq.CorrectAnswer {
			score++
		}
	}
	attempt := &types.QuizAttempt{
		UserID:   userID,
		QuizID:   q.ID,
		Score:    score,
		MaxScore: len(questions),
		Answers:  datatypes.NewJSONType(kept),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.attemptRepo.Create(dbc, attempt); err != nil {
			return err
		}
		return s.leaderboardRepo.AddPoints(dbc, userID, u.DisplayName, score)
	})
	if err != nil {
		s.log.Error("submit quiz failed", "error", err, "user_id", userID, "quiz_id", q.ID)
		return nil, apierr.From(err, "submit_quiz_failed")
	}
	return &AttemptResult{Attempt: attempt, Correct: correct, Points: score}, nil
}

func (s *quizService) ListMyAttempts(ctx context.Context, limit int) ([]*types.QuizAttempt, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	out, err := s.attemptRepo.ListByUser(dbcOf(ctx), userID, limit)
	if err != nil {
		return nil, apierr.From(err, "list_attempts_failed")
	}
	return out, nil
}
