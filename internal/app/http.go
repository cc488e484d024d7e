package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-companion/internal/http"
	httpH "github.com/yungbote/neurobridge-companion/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-companion/internal/http/middleware"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	Material   *httpH.MaterialHandler
	Quiz       *httpH.QuizHandler
	Flashcards *httpH.FlashcardHandler
	Chat       *httpH.ChatHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Auth:       httpH.NewAuthHandler(services.Identity, services.Workspace),
		Material:   httpH.NewMaterialHandler(log, services.Library, services.Workspace),
		Quiz:       httpH.NewQuizHandler(services.Workspace),
		Flashcards: httpH.NewFlashcardHandler(services.Workspace),
		Chat:       httpH.NewChatHandler(services.Workspace),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	serviceName := ""
	if cfg.Tracing().Enabled {
		serviceName = ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		ServiceName:      serviceName,
		Origins:          cfg.HTTP.Origins,
		HealthHandler:    handlers.Health,
		AuthHandler:      handlers.Auth,
		AuthMiddleware:   middleware.Auth,
		MaterialHandler:  handlers.Material,
		QuizHandler:      handlers.Quiz,
		FlashcardHandler: handlers.Flashcards,
		ChatHandler:      handlers.Chat,
	})
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Identity),
	}
}
