// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/analysis"
	"github.com/romeirofernandes/vhack-sub000/internal/cache"
	"github.com/romeirofernandes/vhack-sub000/internal/config"
	"github.com/romeirofernandes/vhack-sub000/internal/database"
	"github.com/romeirofernandes/vhack-sub000/internal/imaging"
	"github.com/romeirofernandes/vhack-sub000/internal/middleware"
	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/notifications"
	"github.com/romeirofernandes/vhack-sub000/internal/repository"
	"github.com/romeirofernandes/vhack-sub000/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	jwtIssuer   = "vhack-api"
	jwtAudience = "vhack-client"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo        repository.UserRepository
	hackRepo        repository.HackathonRepository
	teamRepo        repository.TeamRepository
	projectRepo     repository.ProjectRepository
	chatRepo        repository.ChatRepository
	achievementRepo repository.AchievementRepository

	notifier *notifications.Notifier
	roomHub  *notifications.RoomHub
	hubs     []wireableHub // all hubs for wiring/shutdown iteration

	userService        *service.UserService
	hackathonService   *service.HackathonService
	teamService        *service.TeamService
	projectService     *service.ProjectService
	resultsService     *service.ResultsService
	chatService        *service.ChatService
	achievementService *service.AchievementService
	analysisService    *service.AnalysisService
	imagingService     *imaging.Service
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	hackRepo := repository.NewHackathonRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	chatRepo := repository.NewChatRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)

	prom := middleware.InitMetrics("vhack-api")

	server := &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  prom,
		userRepo:        userRepo,
		hackRepo:        hackRepo,
		teamRepo:        teamRepo,
		projectRepo:     projectRepo,
		chatRepo:        chatRepo,
		achievementRepo: achievementRepo,
	}

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.roomHub = notifications.NewRoomHub()
		server.hubs = []wireableHub{server.roomHub}
	}

	server.userService = service.NewUserService(userRepo, teamRepo, projectRepo, hackRepo)
	server.hackathonService = service.NewHackathonService(hackRepo, userRepo, server.notifier)
	server.teamService = service.NewTeamService(teamRepo, hackRepo)
	server.projectService = service.NewProjectService(projectRepo, teamRepo, hackRepo)
	server.resultsService = service.NewResultsService(projectRepo, hackRepo)
	server.chatService = service.NewChatService(chatRepo, teamRepo, hackRepo, userRepo, server.notifier)
	server.achievementService = service.NewAchievementService(achievementRepo, server.userService, server.notifier)
	server.imagingService = imaging.NewService(cfg)

	if cfg.CompletionAPIBase != "" && cfg.CompletionAPIKey != "" {
		forge := analysis.NewForgeClient(cfg.ForgeAPIBase, cfg.ForgeToken, 10*time.Second)
		completion := analysis.NewCompletionClient(cfg.CompletionAPIBase, cfg.CompletionAPIKey, cfg.CompletionModel, 30*time.Second)
		analyzer := analysis.NewAnalyzer(forge, completion)
		server.analysisService = service.NewAnalysisService(projectRepo, teamRepo, analyzer)
	} else {
		server.analysisService = service.NewAnalysisService(projectRepo, teamRepo, nil)
	}

	return server, nil
}

// LoadAchievementCatalog loads the achievement definitions from the YAML
// catalog and syncs them to the database.
func (s *Server) LoadAchievementCatalog(ctx context.Context, path string) error {
	return s.achievementService.LoadCatalog(ctx, path)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "vhack Backend Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public hackathon browse routes
	publicHacks := api.Group("/hackathons")
	publicHacks.Get("/", s.ListHackathons)
	publicHacks.Get("/:id/results", s.GetResults)
	publicHacks.Get("/:id", s.GetHackathon)

	// Media serving
	app.Get("/media/i/:hash/:file", s.ServeImage)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/role", s.SelectRole)
	users.Get("/me/dashboard", s.GetDashboard)
	users.Get("/me/achievements", s.GetMyAchievements)
	users.Get("/", s.GetAllUsers)
	users.Get("/:id", s.GetUserProfile)

	// Organizer hackathon management
	hacks := protected.Group("/hackathons")
	hacks.Post("/", s.OrganizerRequired(), s.CreateHackathon)
	hacks.Get("/mine", s.OrganizerRequired(), s.GetMyHackathons)
	hacks.Get("/pending", s.OrganizerRequired(), s.ListPendingHackathons)
	// Specific /:id/:resource routes BEFORE generic /:id routes
	hacks.Post("/:id/judges", s.OrganizerRequired(), s.InviteJudge)
	hacks.Post("/:id/invite/respond", s.RespondToInvite)
	hacks.Post("/:id/approve", s.OrganizerRequired(), s.ApproveHackathon)
	hacks.Post("/:id/reject", s.OrganizerRequired(), s.RejectHackathon)
	hacks.Post("/:id/publish-results", s.OrganizerRequired(), s.PublishResults)
	hacks.Post("/:id/announcements", s.OrganizerRequired(), s.PostAnnouncement)
	hacks.Get("/:id/teams", s.ListHackathonTeams)
	hacks.Get("/:id/projects", s.ListHackathonProjects)
	hacks.Get("/:id/judging-queue", s.GetJudgingQueue)
	hacks.Get("/:id/messages", s.GetChatHistory)
	hacks.Post("/:id/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_chat"), s.SendChatMessage)
	hacks.Put("/:id", s.OrganizerRequired(), s.UpdateHackathon)
	hacks.Delete("/:id", s.OrganizerRequired(), s.DeleteHackathon)

	// Judge invites
	protected.Get("/invites", s.GetMyInvites)

	// Team routes
	teams := protected.Group("/teams")
	teams.Post("/", s.CreateTeam)
	teams.Post("/join", s.JoinTeam)
	teams.Get("/mine", s.GetMyTeams)
	teams.Post("/:id/leave", s.LeaveTeam)
	teams.Delete("/:id/members/:memberId", s.RemoveTeamMember)
	teams.Get("/:id", s.GetTeam)
	teams.Delete("/:id", s.DeleteTeam)

	// Project routes
	projects := protected.Group("/projects")
	projects.Post("/", s.CreateProject)
	projects.Get("/mine", s.GetMyProjects)
	projects.Post("/:id/submit", s.SubmitProject)
	projects.Post("/:id/score", s.JudgeRequired(), s.SubmitScore)
	projects.Post("/:id/analyze", s.AnalyzeProject)
	projects.Get("/:id", s.GetProject)
	projects.Put("/:id", s.UpdateProject)
	projects.Delete("/:id", s.DeleteProject)

	// Upload routes
	uploads := protected.Group("/uploads")
	uploads.Post("/image", middleware.RateLimit(
		s.redis, 10, time.Minute, "upload_image"), s.UploadImage)

	// Websocket endpoint - protected by AuthRequired
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebSocketRoomHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is considered required for full readiness in this app
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// RoleRequired returns middleware that rejects users without the given role.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) RoleRequired(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		userRole, err := s.roleOf(c.Context(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if userRole != role {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError(fmt.Sprintf("%s role required", role)))
		}

		return c.Next()
	}
}

// OrganizerRequired gates routes to organizer accounts.
func (s *Server) OrganizerRequired() fiber.Handler {
	return s.RoleRequired(models.RoleOrganizer)
}

// JudgeRequired gates routes to judge accounts.
func (s *Server) JudgeRequired() fiber.Handler {
	return s.RoleRequired(models.RoleJudge)
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && s.redis != nil {
			key := fmt.Sprintf("ws_ticket:%s", ticket)
			userIDStr, err := s.redis.Get(c.Context(), key).Result()
			if err == nil {
				userID, parseErr := strconv.ParseUint(userIDStr, 10, 32)
				if parseErr == nil {
					// Delete ticket immediately (single-use)
					s.redis.Del(c.Context(), key)

					c.Locals("userID", uint(userID))
					ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
					c.SetUserContext(ctx)
					return c.Next()
				}
			}
			// If ticket was provided but invalid/expired, we fail if it's a WS path
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT (Bearer token)
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Reject token in query param for WS routes (must use ticket)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != jwtIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != jwtAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		c.Locals("userID", uint(userID))
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Hackathon Platform API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire all hubs to Redis subscriber if available
	if s.notifier != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					log.Printf("failed to start %s wiring: %v", h.Name(), err)
				}
			}()
		}
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", h.Name(), err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
