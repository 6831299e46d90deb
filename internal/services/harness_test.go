package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos"
	"github.com/yungbote/iof-learning/internal/data/repos/testutil"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type testEnv struct {
	db  *gorm.DB
	log *logger.Logger

	users       repos.UserRepo
	tokens      repos.UserTokenRepo
	resets      repos.PasswordResetRepo
	courses     repos.CourseRepo
	completions repos.CompletionRepo
	progress    repos.ProgressRepo
	certs       repos.CertificateRepo
	questions   repos.QuestionRepo
	imports     repos.QuestionImportRepo
	quizzes     repos.QuizRepo
	attempts    repos.QuizAttemptRepo
	leaderboard repos.LeaderboardRepo
	posts       repos.BlogPostRepo
	comments    repos.BlogCommentRepo
	notices     repos.AnnouncementRepo
	consents    repos.CookieConsentRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &testEnv{
		db:          db,
		log:         log,
		users:       repos.NewUserRepo(db, log),
		tokens:      repos.NewUserTokenRepo(db, log),
		resets:      repos.NewPasswordResetRepo(db, log),
		courses:     repos.NewCourseRepo(db, log),
		completions: repos.NewCompletionRepo(db, log),
		progress:    repos.NewProgressRepo(db, log),
		certs:       repos.NewCertificateRepo(db, log),
		questions:   repos.NewQuestionRepo(db, log),
		imports:     repos.NewQuestionImportRepo(db, log),
		quizzes:     repos.NewQuizRepo(db, log),
		attempts:    repos.NewQuizAttemptRepo(db, log),
		leaderboard: repos.NewLeaderboardRepo(db, log),
		posts:       repos.NewBlogPostRepo(db, log),
		comments:    repos.NewBlogCommentRepo(db, log),
		notices:     repos.NewAnnouncementRepo(db, log),
		consents:    repos.NewCookieConsentRepo(db, log),
	}
}

func (e *testEnv) progressService() ProgressService {
	return NewProgressService(e.log, e.courses, e.completions, e.progress)
}

func (e *testEnv) enrollmentService() EnrollmentService {
	return NewEnrollmentService(e.db, e.log, e.courses, e.completions, e.progress)
}

func (e *testEnv) certificateService() CertificateService {
	return NewCertificateService(e.db, e.log, e.users, e.courses, e.completions, e.certs, nil, nil, "IOF Learning")
}

// asUser attaches u as the authenticated caller.
func asUser(ctx context.Context, u *types.User) context.Context {
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		TokenString: "test-token",
	})
}

func asAdmin(ctx context.Context, u *types.User) context.Context {
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        "admin",
	})
}

// completeAll marks every unit of c for the caller in ctx.
func completeAll(t *testing.T, ctx context.Context, ps ProgressService, c *types.Course) *ProgressView {
	t.Helper()
	var last *ProgressView
	for _, m := range c.Modules.Data() {
		for _, s := range m.SubCourses {
			v, err := ps.MarkSubCourseComplete(ctx, c.ID, m.ID, s.ID)
			if err != nil {
				t.Fatalf("MarkSubCourseComplete %s_%s: %v", m.ID, s.ID, err)
			}
			last = v
		}
	}
	return last
}
