package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	PasswordReset repos.PasswordResetRepo

	Course      repos.CourseRepo
	Completion  repos.CompletionRepo
	Progress    repos.ProgressRepo
	Certificate repos.CertificateRepo

	Question       repos.QuestionRepo
	QuestionImport repos.QuestionImportRepo
	Quiz           repos.QuizRepo
	QuizAttempt    repos.QuizAttemptRepo
	Leaderboard    repos.LeaderboardRepo

	BlogPost     repos.BlogPostRepo
	BlogComment  repos.BlogCommentRepo
	Announcement repos.AnnouncementRepo

	CookieConsent repos.CookieConsentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		PasswordReset: repos.NewPasswordResetRepo(db, log),

		Course:      repos.NewCourseRepo(db, log),
		Completion:  repos.NewCompletionRepo(db, log),
		Progress:    repos.NewProgressRepo(db, log),
		Certificate: repos.NewCertificateRepo(db, log),

		Question:       repos.NewQuestionRepo(db, log),
		QuestionImport: repos.NewQuestionImportRepo(db, log),
		Quiz:           repos.NewQuizRepo(db, log),
		QuizAttempt:    repos.NewQuizAttemptRepo(db, log),
		Leaderboard:    repos.NewLeaderboardRepo(db, log),

		BlogPost:     repos.NewBlogPostRepo(db, log),
		BlogComment:  repos.NewBlogCommentRepo(db, log),
		Announcement: repos.NewAnnouncementRepo(db, log),

		CookieConsent: repos.NewCookieConsentRepo(db, log),
	}
}
