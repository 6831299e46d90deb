package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/http"
	httpH "github.com/yungbote/iof-learning/internal/http/handlers"
	httpMW "github.com/yungbote/iof-learning/internal/http/middleware"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type Middleware struct {
	Auth    *httpMW.AuthMiddleware
	Consent *httpMW.ConsentMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	Course       *httpH.CourseHandler
	Certificate  *httpH.CertificateHandler
	Question     *httpH.QuestionHandler
	Quiz         *httpH.QuizHandler
	Blog         *httpH.BlogHandler
	Announcement *httpH.AnnouncementHandler
	News         *httpH.NewsHandler
	Consent      *httpH.ConsentHandler
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
		Consent: httpMW.NewConsentMiddleware(log, services.Consent, httpMW.ConsentConfig{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
		}),
	}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, middleware Middleware) (Handlers, error) {
	log.Info("Wiring handlers...")
	sqlDB, err := db.DB()
	if err != nil {
		return Handlers{}, err
	}
	return Handlers{
		Health:       httpH.NewHealthHandler(sqlDB),
		Auth:         httpH.NewAuthHandler(services.Auth),
		Course:       httpH.NewCourseHandler(services.Catalog, services.Enrollment, services.Progress),
		Certificate:  httpH.NewCertificateHandler(services.Certificate),
		Question:     httpH.NewQuestionHandler(services.QuestionBank),
		Quiz:         httpH.NewQuizHandler(services.Quiz, services.Leaderboard),
		Blog:         httpH.NewBlogHandler(services.Blog),
		Announcement: httpH.NewAnnouncementHandler(services.Announcement),
		News:         httpH.NewNewsHandler(services.News),
		Consent:      httpH.NewConsentHandler(services.Consent, middleware.Consent),
	}, nil
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *http.Server {
	routerCfg := http.RouterConfig{
		Log:                 log,
		CORSOrigins:         cfg.CORSAllowedOrigins,
		AuthMiddleware:      middleware.Auth,
		ConsentMiddleware:   middleware.Consent,
		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		CourseHandler:       handlers.Course,
		CertificateHandler:  handlers.Certificate,
		QuestionHandler:     handlers.Question,
		QuizHandler:         handlers.Quiz,
		BlogHandler:         handlers.Blog,
		AnnouncementHandler: handlers.Announcement,
		NewsHandler:         handlers.News,
		ConsentHandler:      handlers.Consent,
	}
	if cfg.OtelEnabled {
		routerCfg.TracingService = cfg.ServiceName
	}
	return http.NewServer(routerCfg)
}
