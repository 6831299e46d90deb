package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos/auth"
	"github.com/yungbote/iof-learning/internal/data/repos/consent"
	"github.com/yungbote/iof-learning/internal/data/repos/content"
	"github.com/yungbote/iof-learning/internal/data/repos/learning"
	"github.com/yungbote/iof-learning/internal/data/repos/quiz"
	"github.com/yungbote/iof-learning/internal/data/repos/user"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo
type PasswordResetRepo = auth.PasswordResetRepo

type CourseRepo = learning.CourseRepo
type CompletionRepo = learning.CompletionRepo
type ProgressRepo = learning.ProgressRepo
type CertificateRepo = learning.CertificateRepo

type QuestionRepo = quiz.QuestionRepo
type QuestionFilter = quiz.QuestionFilter
type QuestionImportRepo = quiz.QuestionImportRepo
type QuizRepo = quiz.QuizRepo
type QuizAttemptRepo = quiz.QuizAttemptRepo
type LeaderboardRepo = quiz.LeaderboardRepo

type BlogPostRepo = content.BlogPostRepo
type BlogCommentRepo = content.BlogCommentRepo
type AnnouncementRepo = content.AnnouncementRepo

type CookieConsentRepo = consent.CookieConsentRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}
func NewPasswordResetRepo(db *gorm.DB, log *logger.Logger) PasswordResetRepo {
	return auth.NewPasswordResetRepo(db, log)
}

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo { return learning.NewCourseRepo(db, log) }
func NewCompletionRepo(db *gorm.DB, log *logger.Logger) CompletionRepo {
	return learning.NewCompletionRepo(db, log)
}
func NewProgressRepo(db *gorm.DB, log *logger.Logger) ProgressRepo {
	return learning.NewProgressRepo(db, log)
}
func NewCertificateRepo(db *gorm.DB, log *logger.Logger) CertificateRepo {
	return learning.NewCertificateRepo(db, log)
}

func NewQuestionRepo(db *gorm.DB, log *logger.Logger) QuestionRepo { return quiz.NewQuestionRepo(db, log) }
func NewQuestionImportRepo(db *gorm.DB, log *logger.Logger) QuestionImportRepo {
	return quiz.NewQuestionImportRepo(db, log)
}
func NewQuizRepo(db *gorm.DB, log *logger.Logger) QuizRepo { return quiz.NewQuizRepo(db, log) }
func NewQuizAttemptRepo(db *gorm.DB, log *logger.Logger) QuizAttemptRepo {
	return quiz.NewQuizAttemptRepo(db, log)
}
func NewLeaderboardRepo(db *gorm.DB, log *logger.Logger) LeaderboardRepo {
	return quiz.NewLeaderboardRepo(db, log)
}

func NewBlogPostRepo(db *gorm.DB, log *logger.Logger) BlogPostRepo {
	return content.NewBlogPostRepo(db, log)
}
func NewBlogCommentRepo(db *gorm.DB, log *logger.Logger) BlogCommentRepo {
	return content.NewBlogCommentRepo(db, log)
}
func NewAnnouncementRepo(db *gorm.DB, log *logger.Logger) AnnouncementRepo {
	return content.NewAnnouncementRepo(db, log)
}

func NewCookieConsentRepo(db *gorm.DB, log *logger.Logger) CookieConsentRepo {
	return consent.NewCookieConsentRepo(db, log)
}
