package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/config"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/events"
	"github.com/yukikurage/kanban-board-api/internal/handlers"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: 2,            // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Event hub is the single publisher handle, injected into the services
	// that broadcast; its lifecycle is owned here
	hub := events.NewHub()
	go hub.Run()

	// Initialize repositories and services
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	locks := services.NewBoardLocker()
	authService := services.NewAuthService(userRepo)
	boardService := services.NewBoardService(boardRepo, taskRepo, hub, locks)
	taskService := services.NewTaskService(taskRepo, boardRepo, hub, locks)
	dependencyService := services.NewDependencyService(taskRepo, hub, locks)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	boardHandler := handlers.NewBoardHandler(boardService)
	taskHandler := handlers.NewTaskHandler(boardService, taskService)
	dependencyHandler := handlers.NewDependencyHandler(dependencyService)
	eventsHandler := handlers.NewEventsHandler(hub)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Kanban Board API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Board routes (protected)
		boards := api.Group("/boards")
		boards.Use(middleware.RequireAuth())
		{
			boards.GET("", boardHandler.ListBoards)
			boards.POST("", boardHandler.CreateBoard)
			boards.POST("/join", boardHandler.JoinBoard)
			boards.GET("/:id", middleware.RequireBoardAccess(), boardHandler.GetBoard)
			boards.PATCH("/:id", middleware.RequireBoardAccess(), middleware.RequireBoardRole(models.RoleEditor), boardHandler.UpdateBoard)
			boards.PUT("/:id/settings", middleware.RequireBoardAccess(), middleware.RequireBoardRole(models.RoleAdmin), boardHandler.UpdateSettings)
			boards.DELETE("/:id", middleware.RequireBoardAccess(), middleware.RequireBoardRole(models.RoleAdmin), boardHandler.DeleteBoard)
			boards.POST("/:id/columns", middleware.RequireBoardAccess(), middleware.RequireBoardRole(models.RoleEditor), boardHandler.AddColumn)
			boards.POST("/:id/columns/:column_id/archive", middleware.RequireBoardAccess(), middleware.RequireBoardRole(models.RoleAdmin), boardHandler.ArchiveColumn)
			boards.POST("/:id/columns/:column_id/tasks", middleware.RequireBoardAccess(), middleware.RequireBoardRole(models.RoleEditor), taskHandler.AddTask)
			boards.POST("/:id/tasks/:task_id/move", middleware.RequireBoardAccess(), middleware.RequireBoardRole(models.RoleEditor), taskHandler.MoveTask)
			boards.GET("/:id/events", middleware.RequireBoardAccess(), eventsHandler.Subscribe)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
			tasks.GET("/:id/comments", middleware.RequireTaskAccess(), taskHandler.ListComments)
			tasks.POST("/:id/comments", middleware.RequireTaskAccess(), taskHandler.AddComment)
			tasks.GET("/:id/dependencies", middleware.RequireTaskAccess(), dependencyHandler.ListDependencies)
			tasks.POST("/:id/dependencies", middleware.RequireTaskAccess(), dependencyHandler.AddDependency)
			tasks.DELETE("/:id/dependencies/:target_id", middleware.RequireTaskAccess(), dependencyHandler.RemoveDependency)
		}
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ServerAddr)
	if err := r.Run(cfg.ServerAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
