package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/platform/logger"
	"github.com/yungbote/iof-learning/internal/services"
)

type Services struct {
	Auth services.AuthService

	Catalog     services.CatalogService
	Enrollment  services.EnrollmentService
	Progress    services.ProgressService
	Certificate services.CertificateService

	QuestionBank services.QuestionBankService
	Quiz         services.QuizService
	Leaderboard  services.LeaderboardService

	Blog         services.BlogService
	Announcement services.AnnouncementService
	News         services.NewsService
	Consent      services.ConsentService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	authService := services.NewAuthService(
		db, log,
		repos.User,
		repos.UserToken,
		repos.PasswordReset,
		clients.Mailer,
		clients.Google,
		services.AuthConfig{
			JWTSecretKey:     cfg.JWTSecretKey,
			AccessTTL:        cfg.AccessTokenTTL,
			RefreshTTL:       cfg.RefreshTokenTTL,
			PasswordResetTTL: cfg.PasswordResetTTL,
			PasswordResetURL: cfg.PasswordResetURL,
			MailFromEmail:    cfg.SendGridFromEmail,
			MailFromName:     cfg.SendGridFromName,
		},
	)

	return Services{
		Auth: authService,

		Catalog:    services.NewCatalogService(log, repos.Course, repos.Progress, clients.Bucket),
		Enrollment: services.NewEnrollmentService(db, log, repos.Course, repos.Completion, repos.Progress),
		Progress:   services.NewProgressService(log, repos.Course, repos.Completion, repos.Progress),
		Certificate: services.NewCertificateService(
			db, log,
			repos.User,
			repos.Course,
			repos.Completion,
			repos.Certificate,
			clients.Renderer,
			clients.Bucket,
			cfg.CertificateIssuer,
		),

		QuestionBank: services.NewQuestionBankService(db, log, repos.Question, repos.QuestionImport),
		Quiz:         services.NewQuizService(db, log, repos.User, repos.Quiz, repos.Question, repos.QuizAttempt, repos.Leaderboard),
		Leaderboard:  services.NewLeaderboardService(log, repos.Leaderboard),

		Blog:         services.NewBlogService(db, log, repos.BlogPost, repos.BlogComment, clients.Markdown, clients.Bucket),
		Announcement: services.NewAnnouncementService(log, repos.Announcement),
		News:         services.NewNewsService(log, clients.News, clients.Cache, cfg.NewsCacheTTL),
		Consent:      services.NewConsentService(log, repos.CookieConsent),
	}
}
