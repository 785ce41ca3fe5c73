package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"classcribe/internal/handler/api"
	"classcribe/internal/handler/middleware"
	"classcribe/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Auth          *api.AuthHandler
	Lessons       *api.LessonHandler
	Credits       *api.CreditHandler
	Notifications *api.NotificationHandler
	Webhooks      *api.WebhookHandler
	Events        *api.EventsHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, handlers Handlers, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, handlers, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/signup", Handler: h.Auth.Signup},
				{Method: http.MethodPost, Path: "/login", Handler: h.Auth.Login},
				{Method: http.MethodPost, Path: "/logout", Handler: h.Auth.Logout},
			})
		}

		users := apiGroup.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			addRoutes(users, []route{
				{Method: http.MethodGet, Path: "/me", Handler: h.Auth.Me},
				{Method: http.MethodGet, Path: "/me/events", Handler: h.Events.UserEvents},
			})
		}

		lessons := apiGroup.Group("/lessons")
		lessons.Use(authMiddleware.RequireAuth())
		{
			addRoutes(lessons, []route{
				{Method: http.MethodPost, Path: "", Handler: h.Lessons.Create},
				{Method: http.MethodGet, Path: "", Handler: h.Lessons.List},
				{Method: http.MethodGet, Path: "/:id", Handler: h.Lessons.Get},
				{Method: http.MethodDelete, Path: "/:id", Handler: h.Lessons.Delete},
				{Method: http.MethodPost, Path: "/:id/analyze", Handler: h.Lessons.Analyze},
				{Method: http.MethodPost, Path: "/:id/reprocess", Handler: h.Lessons.Reprocess},
				{Method: http.MethodGet, Path: "/:id/events", Handler: h.Events.LessonEvents},
			})
		}

		credits := apiGroup.Group("/credits")
		credits.Use(authMiddleware.RequireAuth())
		{
			addRoutes(credits, []route{
				{Method: http.MethodGet, Path: "/balance", Handler: h.Credits.Balance},
				{Method: http.MethodGet, Path: "/transactions", Handler: h.Credits.Transactions},
			})
		}

		notifications := apiGroup.Group("/notifications")
		notifications.Use(authMiddleware.RequireAuth())
		{
			addRoutes(notifications, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Notifications.List},
				{Method: http.MethodPost, Path: "/:id/read", Handler: h.Notifications.MarkRead},
			})
		}

		// Authenticated by signature, not by session.
		webhooks := apiGroup.Group("/webhooks")
		{
			addRoutes(webhooks, []route{
				{Method: http.MethodPost, Path: "/payment", Handler: h.Webhooks.HandlePaymentEvent},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
