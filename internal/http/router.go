package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/iof-learning/internal/http/handlers"
	httpMW "github.com/yungbote/iof-learning/internal/http/middleware"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	CORSOrigins []string
	// TracingService enables otelgin spans under this service name when set.
	TracingService string

	AuthMiddleware    *httpMW.AuthMiddleware
	ConsentMiddleware *httpMW.ConsentMiddleware

	HealthHandler       *httpH.HealthHandler
	AuthHandler         *httpH.AuthHandler
	CourseHandler       *httpH.CourseHandler
	CertificateHandler  *httpH.CertificateHandler
	QuestionHandler     *httpH.QuestionHandler
	QuizHandler         *httpH.QuizHandler
	BlogHandler         *httpH.BlogHandler
	AnnouncementHandler *httpH.AnnouncementHandler
	NewsHandler         *httpH.NewsHandler
	ConsentHandler      *httpH.ConsentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	if cfg.ConsentMiddleware != nil {
		api.Use(cfg.ConsentMiddleware.Attach())
	}
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.OptionalAuth())
	}

	// Public
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
			api.POST("/auth/google", cfg.AuthHandler.Google)
			api.POST("/password/forgot", cfg.AuthHandler.ForgotPassword)
			api.POST("/password/reset", cfg.AuthHandler.ResetPassword)
		}
		if cfg.CourseHandler != nil {
			api.GET("/courses", cfg.CourseHandler.ListCatalog)
			api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
		}
		if cfg.CertificateHandler != nil {
			api.GET("/certificates/:id", cfg.CertificateHandler.Verify)
			api.GET("/certificates/:id/download", cfg.CertificateHandler.Download)
		}
		if cfg.QuizHandler != nil {
			api.GET("/quizzes", cfg.QuizHandler.List)
			api.GET("/quizzes/:id", cfg.QuizHandler.Get)
			api.GET("/leaderboard", cfg.QuizHandler.Leaderboard)
		}
		if cfg.BlogHandler != nil {
			api.GET("/blog/posts", cfg.BlogHandler.ListPublished)
			api.GET("/blog/posts/:slug", cfg.BlogHandler.GetBySlug)
		}
		if cfg.AnnouncementHandler != nil {
			api.GET("/announcements", cfg.AnnouncementHandler.ListActive)
		}
		if cfg.NewsHandler != nil {
			api.GET("/news", cfg.NewsHandler.Search)
		}
		if cfg.ConsentHandler != nil {
			api.GET("/consent", cfg.ConsentHandler.Get)
			api.PUT("/consent", cfg.ConsentHandler.Update)
		}
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
			protected.GET("/me", cfg.AuthHandler.Me)
		}
		if cfg.CourseHandler != nil {
			protected.POST("/courses/:id/enroll", cfg.CourseHandler.Enroll)
			protected.GET("/me/enrollments", cfg.CourseHandler.ListMyEnrollments)
			protected.GET("/courses/:id/progress", cfg.CourseHandler.GetProgress)
			protected.POST("/courses/:id/progress", cfg.CourseHandler.MarkComplete)
		}
		if cfg.CertificateHandler != nil {
			protected.GET("/courses/:id/certificate", cfg.CertificateHandler.State)
			protected.POST("/courses/:id/certificate", cfg.CertificateHandler.Issue)
			protected.GET("/me/certificates", cfg.CertificateHandler.ListMine)
		}
		if cfg.QuizHandler != nil {
			protected.POST("/quizzes/:id/attempts", cfg.QuizHandler.Submit)
			protected.GET("/me/attempts", cfg.QuizHandler.ListMyAttempts)
			protected.GET("/leaderboard/me", cfg.QuizHandler.MyRank)
		}
		if cfg.BlogHandler != nil {
			protected.POST("/blog/posts/:id/comments", cfg.BlogHandler.AddComment)
			protected.DELETE("/blog/comments/:id", cfg.BlogHandler.DeleteComment)
		}
	}

	admin := protected.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	{
		if cfg.CourseHandler != nil {
			admin.GET("/courses", cfg.CourseHandler.AdminList)
			admin.POST("/courses", cfg.CourseHandler.AdminCreate)
			admin.PUT("/courses/:id", cfg.CourseHandler.AdminUpdate)
			admin.DELETE("/courses/:id", cfg.CourseHandler.AdminDelete)
			admin.POST("/courses/:id/cover", cfg.CourseHandler.AdminUploadCover)
		}
		if cfg.QuestionHandler != nil {
			admin.GET("/questions", cfg.QuestionHandler.List)
			admin.POST("/questions", cfg.QuestionHandler.Create)
			admin.PUT("/questions/:id", cfg.QuestionHandler.Update)
			admin.POST("/questions/import", cfg.QuestionHandler.Import)
			admin.GET("/questions/export", cfg.QuestionHandler.Export)
			admin.POST("/questions/bulk-delete", cfg.QuestionHandler.BulkDelete)
			admin.GET("/questions/imports", cfg.QuestionHandler.ListImports)
		}
		if cfg.QuizHandler != nil {
			admin.GET("/quizzes", cfg.QuizHandler.AdminList)
			admin.POST("/quizzes", cfg.QuizHandler.AdminCreate)
			admin.PUT("/quizzes/:id", cfg.QuizHandler.AdminUpdate)
			admin.DELETE("/quizzes/:id", cfg.QuizHandler.AdminDelete)
		}
		if cfg.BlogHandler != nil {
			admin.GET("/blog/posts", cfg.BlogHandler.AdminList)
			admin.POST("/blog/posts", cfg.BlogHandler.AdminCreate)
			admin.PUT("/blog/posts/:id", cfg.BlogHandler.AdminUpdate)
			admin.DELETE("/blog/posts/:id", cfg.BlogHandler.AdminDelete)
			admin.POST("/blog/posts/:id/cover", cfg.BlogHandler.AdminUploadCover)
		}
		if cfg.AnnouncementHandler != nil {
			admin.GET("/announcements", cfg.AnnouncementHandler.AdminList)
			admin.POST("/announcements", cfg.AnnouncementHandler.AdminCreate)
			admin.PUT("/announcements/:id", cfg.AnnouncementHandler.AdminUpdate)
			admin.DELETE("/announcements/:id", cfg.AnnouncementHandler.AdminDelete)
		}
	}

	return r
}
