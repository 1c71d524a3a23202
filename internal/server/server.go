package server

import (
	"context"
	"net/http"
	"time"

	"miny/internal/auth"
	"miny/internal/claim"
	"miny/internal/config"
	"miny/internal/email"
	"miny/internal/events"
	"miny/internal/slot"
	"miny/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service, publisher events.Publisher) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware())

	userRepo := user.NewRepository(db)
	slotRepo := slot.NewRepository(db)

	claimService := claim.NewService(slotRepo, userRepo, emailService, publisher)

	userHandler := user.NewHandler(user.NewService(userRepo, cfg.JWTSecret), cfg.PublicLink)
	slotHandler := slot.NewHandler(slot.NewService(slotRepo), claimService)
	claimHandler := claim.NewHandler(claimService)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	router.GET("/u/:slug", claimHandler.GetPage)
	router.POST("/u/:slug/claim", RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst), claimHandler.Claim)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.POST("/me/actions", userHandler.Act)

		protected.POST("/slots", slotHandler.CreateSlots)
		protected.GET("/slots", slotHandler.ListSlots)
		protected.GET("/slots/:id", slotHandler.GetSlot)
		protected.POST("/slots/:id/actions", slotHandler.Act)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/stats", userHandler.Stats)
		admin.GET("/users", userHandler.ListUsers)
		admin.GET("/test-email", TestEmail(emailService))
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops; after Shutdown it returns http.ErrServerClosed.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown may run before Start; Start then returns at once.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
