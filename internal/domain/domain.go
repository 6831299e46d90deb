package domain

import (
	"github.com/yungbote/iof-learning/internal/domain/consent"
	"github.com/yungbote/iof-learning/internal/domain/content"
	"github.com/yungbote/iof-learning/internal/domain/learning"
	"github.com/yungbote/iof-learning/internal/domain/quiz"
	"github.com/yungbote/iof-learning/internal/domain/user"
)

type (
	User          = user.User
	UserToken     = user.UserToken
	PasswordReset = user.PasswordReset

	Course             = learning.Course
	CourseModule       = learning.CourseModule
	SubCourse          = learning.SubCourse
	CompletionMap      = learning.CompletionMap
	EnrollmentProgress = learning.EnrollmentProgress
	Certificate        = learning.Certificate

	Quiz             = quiz.Quiz
	Question         = quiz.Question
	QuestionImport   = quiz.QuestionImport
	QuizAttempt      = quiz.QuizAttempt
	LeaderboardEntry = quiz.LeaderboardEntry
	Difficulty       = quiz.Difficulty

	BlogPost     = content.BlogPost
	BlogComment  = content.BlogComment
	Announcement = content.Announcement

	CookieConsent = consent.CookieConsent
)

// UnitKeyFor is learning.UnitKey re-exported for callers holding domain aliases.
func UnitKeyFor(moduleID, subCourseID string) string { return learning.UnitKey(moduleID, subCourseID) }

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},
		&PasswordReset{},

		&Course{},
		&CompletionMap{},
		&EnrollmentProgress{},
		&Certificate{},

		&Question{},
		&QuestionImport{},
		&Quiz{},
		&QuizAttempt{},
		&LeaderboardEntry{},

		&BlogPost{},
		&BlogComment{},
		&Announcement{},

		&CookieConsent{},
	}
}
