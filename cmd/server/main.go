package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/mosaicpm/mosaic/backend/config"
	"github.com/mosaicpm/mosaic/backend/internal/database"
	"github.com/mosaicpm/mosaic/backend/internal/database/repository"
	"github.com/mosaicpm/mosaic/backend/internal/handlers"
	"github.com/mosaicpm/mosaic/backend/internal/middleware"
	"github.com/mosaicpm/mosaic/backend/internal/realtime"
	"github.com/mosaicpm/mosaic/backend/internal/services"
	"github.com/mosaicpm/mosaic/backend/pkg/migration"
)

func main() {
	// Load configuration
	configPath := filepath.Join(".", "config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	migrationsPath := filepath.Join(".", "migrations")
	if err := migration.RunMigrations(db, migrationsPath); err != nil {
		log.Printf("Warning: Failed to run migrations: %v", err)
	}

	// Create app
	app := NewApp(db, cfg)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = fmt.Sprintf("%d", cfg.Port)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: app.Router,
	}

	// Start the server in a goroutine
	go func() {
		log.Printf("Server starting on port %s in %s mode", port, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// App represents the application
type App struct {
	Router       *gin.Engine
	Config       *config.Config
	DB           *sqlx.DB
	Hub          *realtime.Hub
	Repositories *Repositories
	Services     *Services
	Handlers     *Handlers
}

// NewApp creates a new application instance
func NewApp(db *sqlx.DB, cfg *config.Config) *App {
	app := &App{
		DB:     db,
		Config: cfg,
		Hub:    realtime.NewHub(),
	}

	// Initialize components
	app.initRepositories()
	app.initServices()
	app.initHandlers()
	app.setupRouter()

	return app
}

// Repositories holds all repository instances
type Repositories struct {
	User         repository.UserRepository
	Organization repository.OrganizationRepository
	Board        repository.BoardRepository
	Column       repository.ColumnRepository
	Task         repository.TaskRepository
	Note         repository.NoteRepository
	Thread       repository.ThreadRepository
	Invitation   repository.InvitationRepository
}

// Services holds all service instances
type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Organization services.OrganizationService
	Board        services.BoardService
	Column       services.ColumnService
	Task         services.TaskService
	Note         services.NoteService
	Messaging    services.MessagingService
	Invitation   services.InvitationService
	Storage      services.StorageService
}

// Handlers holds all handler instances
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Organization *handlers.OrganizationHandler
	Board        *handlers.BoardHandler
	Column       *handlers.ColumnHandler
	Task         *handlers.TaskHandler
	Note         *handlers.NoteHandler
	Messaging    *handlers.MessagingHandler
	Invitation   *handlers.InvitationHandler
	Socket       *handlers.SocketHandler
}

// initRepositories initializes all repositories
func (a *App) initRepositories() {
	a.Repositories = &Repositories{
		User:         repository.NewUserRepository(a.DB),
		Organization: repository.NewOrganizationRepository(a.DB),
		Board:        repository.NewBoardRepository(a.DB),
		Column:       repository.NewColumnRepository(a.DB),
		Task:         repository.NewTaskRepository(a.DB),
		Note:         repository.NewNoteRepository(a.DB),
		Thread:       repository.NewThreadRepository(a.DB),
		Invitation:   repository.NewInvitationRepository(a.DB),
	}
}

// initServices initializes all services
func (a *App) initServices() {
	// JWT settings
	jwtSecret := a.Config.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "default-secret-change-in-production" // Default for development
		if a.Config.Environment == "production" {
			log.Fatal("JWT secret must be set in production")
		}
	}

	a.Services = &Services{}

	// Initialize services in the correct order to handle dependencies
	a.Services.User = services.NewUserService(a.Repositories.User)
	a.Services.Auth = services.NewAuthService(a.Repositories.User, jwtSecret, a.Config.AccessTokenDuration, a.Config.RefreshTokenDuration)
	a.Services.Organization = services.NewOrganizationService(a.Repositories.Organization, a.Repositories.User)
	a.Services.Board = services.NewBoardService(a.Repositories.Board, a.Repositories.Organization, a.Repositories.Thread)
	a.Services.Column = services.NewColumnService(a.Repositories.Column, a.Services.Board)
	a.Services.Task = services.NewTaskService(a.Repositories.Task, a.Repositories.Column, a.Services.Board)
	a.Services.Note = services.NewNoteService(a.Repositories.Note, a.Services.Board)

	resolver := services.NewMentionResolver(a.Repositories.Board)
	a.Services.Messaging = services.NewMessagingService(a.Repositories.Thread, a.Repositories.Board, a.Repositories.User, resolver, a.Hub)

	// TODO: swap the log mailer for an SMTP transport once mail settings
	// land in config
	a.Services.Invitation = services.NewInvitationService(a.Repositories.Invitation, a.Repositories.Organization, a.Repositories.User, services.NewLogMailer(), jwtSecret)

	storage, err := services.NewStorageService(a.Config)
	if err != nil {
		log.Printf("Warning: media storage unavailable, avatar uploads disabled: %v", err)
	} else {
		a.Services.Storage = storage
	}
}

// initHandlers initializes all handlers
func (a *App) initHandlers() {
	a.Handlers = &Handlers{
		Auth:         handlers.NewAuthHandler(a.Services.Auth),
		User:         handlers.NewUserHandler(a.Services.User, a.Services.Storage),
		Organization: handlers.NewOrganizationHandler(a.Services.Organization),
		Board:        handlers.NewBoardHandler(a.Services.Board),
		Column:       handlers.NewColumnHandler(a.Services.Column),
		Task:         handlers.NewTaskHandler(a.Services.Task),
		Note:         handlers.NewNoteHandler(a.Services.Note),
		Messaging:    handlers.NewMessagingHandler(a.Services.Messaging, a.Services.Board),
		Invitation:   handlers.NewInvitationHandler(a.Services.Invitation),
		Socket:       handlers.NewSocketHandler(a.Hub, a.Repositories.Board, a.Config.AllowedOrigins),
	}
}

// setupRouter configures the HTTP router
func (a *App) setupRouter() {
	router := gin.Default()

	// Set up CORS
	router.Use(middleware.CORS(a.Config.AllowedOrigins))

	// Set up middleware
	authMiddleware := middleware.AuthMiddleware(a.Services.Auth)

	// Configure rate limits from config
	rateLimit := a.Config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 100 // Default to 100 requests per minute
	}
	globalRateLimiter := middleware.GlobalRateLimiter(rateLimit)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"version":   a.Config.Version,
			"timestamp": time.Now().UTC(),
		})
	})

	// Websocket endpoint (outside the rate-limited API group; one
	// connection carries many events)
	a.Handlers.Socket.RegisterRoutes(&router.RouterGroup, authMiddleware)

	// API routes
	api := router.Group("/api/v1")
	api.Use(globalRateLimiter)

	// Register routes
	a.Handlers.Auth.RegisterRoutes(api)
	a.Handlers.User.RegisterRoutes(api, authMiddleware)
	a.Handlers.Organization.RegisterRoutes(api, authMiddleware)
	a.Handlers.Board.RegisterRoutes(api, authMiddleware)
	a.Handlers.Column.RegisterRoutes(api, authMiddleware)
	a.Handlers.Task.RegisterRoutes(api, authMiddleware)
	a.Handlers.Note.RegisterRoutes(api, authMiddleware)
	a.Handlers.Messaging.RegisterRoutes(api, authMiddleware)
	a.Handlers.Invitation.RegisterRoutes(api, authMiddleware)

	a.Router = router
}
