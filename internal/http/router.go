package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-companion/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-companion/internal/http/middleware"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	Origins     []string

	AuthHandler      *httpH.AuthHandler
	AuthMiddleware   *httpMW.AuthMiddleware
	MaterialHandler  *httpH.MaterialHandler
	QuizHandler      *httpH.QuizHandler
	FlashcardHandler *httpH.FlashcardHandler
	ChatHandler      *httpH.ChatHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.Origins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Session (public)
		if cfg.AuthHandler != nil {
			api.GET("/session", cfg.AuthHandler.Session)
			api.POST("/session/register", cfg.AuthHandler.Register)
			api.POST("/session/login", cfg.AuthHandler.Login)
			api.POST("/session/logout", cfg.AuthHandler.Logout)
		}
		// Navigation resolves to the login view while signed out.
		if cfg.MaterialHandler != nil {
			api.POST("/navigate", cfg.MaterialHandler.Navigate)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Materials
		if cfg.MaterialHandler != nil {
			protected.GET("/dashboard", cfg.MaterialHandler.Dashboard)
			protected.GET("/materials", cfg.MaterialHandler.List)
			protected.POST("/materials/upload", cfg.MaterialHandler.Upload)
			protected.GET("/materials/:id", cfg.MaterialHandler.Get)
		}

		// Quiz
		if cfg.QuizHandler != nil {
			protected.GET("/materials/:id/quiz", cfg.QuizHandler.Get)
			protected.POST("/materials/:id/quiz", cfg.QuizHandler.Generate)
			protected.POST("/materials/:id/quiz/answer", cfg.QuizHandler.Answer)
			protected.POST("/materials/:id/quiz/navigate", cfg.QuizHandler.Navigate)
			protected.POST("/materials/:id/quiz/submit", cfg.QuizHandler.Submit)
			protected.POST("/materials/:id/quiz/reset", cfg.QuizHandler.Reset)
		}

		// Flashcards
		if cfg.FlashcardHandler != nil {
			protected.GET("/materials/:id/flashcards", cfg.FlashcardHandler.Get)
			protected.POST("/materials/:id/flashcards/fetch", cfg.FlashcardHandler.Fetch)
			protected.POST("/materials/:id/flashcards/generate", cfg.FlashcardHandler.Generate)
			protected.POST("/materials/:id/flashcards/reveal", cfg.FlashcardHandler.Reveal)
			protected.POST("/materials/:id/flashcards/navigate", cfg.FlashcardHandler.Navigate)
		}

		// Chat
		if cfg.ChatHandler != nil {
			protected.GET("/materials/:id/chat", cfg.ChatHandler.Transcript)
			protected.POST("/materials/:id/chat", cfg.ChatHandler.Ask)
			protected.PUT("/materials/:id/chat/input", cfg.ChatHandler.Draft)
		}
	}

	return r
}
