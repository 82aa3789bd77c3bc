package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/JovenGabriel/users-api/internal/config"
	"github.com/JovenGabriel/users-api/internal/http/handler"
	httpmiddleware "github.com/JovenGabriel/users-api/internal/http/middleware"
	"github.com/JovenGabriel/users-api/internal/middleware"
)

// NewRouter wires Gin routes and middleware. Registration and login are
// public; every other user route requires an authenticated identity.
func NewRouter(cfg config.Config, userHandler *handler.UserHandler, auth *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(auth.Authenticate)

	users := r.Group("/api/v1/users")
	{
		users.POST("", userHandler.Create)
		users.POST("/login", userHandler.Login)
		users.GET("", auth.RequireAuth, userHandler.List)
		users.GET("/me", auth.RequireAuth, userHandler.Me)
		users.GET("/:id", auth.RequireAuth, userHandler.GetByID)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
