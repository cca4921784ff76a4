package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Logger *zap.Logger
}

func Init(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Setup GORM. TranslateError lets the repositories detect unique
	// violations as gorm.ErrDuplicatedKey.
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	logger.Info("Connected to database",
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
	)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.ProjectMembership{},
		&model.Board{},
		&model.Task{},
		&model.Notification{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Setup Gin
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.Default())

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	boardRepo := repository.NewBoardRepository(db, logger)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo)
	projectHandler := handler.NewProjectHandler(projectRepo, membershipRepo, userRepo, notificationRepo, logger)
	boardHandler := handler.NewBoardHandler(boardRepo, membershipRepo)
	taskHandler := handler.NewTaskHandler(taskRepo, membershipRepo, notificationRepo, logger)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware())
	{
		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.GetAll)
		authorized.DELETE("/projects/:id", projectHandler.Delete)

		// Membership routes
		authorized.POST("/projects/:id/members", projectHandler.AddMember)
		authorized.GET("/projects/:id/members", projectHandler.GetMembers)
		authorized.DELETE("/projects/:id/members/:user_id", projectHandler.RemoveMember)

		// Board routes
		authorized.GET("/projects/:id/boards", boardHandler.GetAll)
		authorized.POST("/projects/:id/boards", boardHandler.Create)
		authorized.POST("/projects/:id/boards/defaults", boardHandler.EnsureDefaults)
		authorized.PUT("/projects/:id/boards/:board_id", boardHandler.Update)

		// Task routes
		authorized.POST("/projects/:id/tasks", taskHandler.Create)
		authorized.GET("/projects/:id/tasks", taskHandler.GetByProject)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PATCH("/tasks/:id/status", taskHandler.UpdateStatus)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)

		// Notification routes
		authorized.GET("/notifications", notificationHandler.GetAll)
		authorized.GET("/notifications/poll", notificationHandler.Poll)
		authorized.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		authorized.PATCH("/notifications/read-all", notificationHandler.MarkAllRead)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
		Logger: logger,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Logger.Info("Server running", zap.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal("Failed to listen", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	s.Logger.Info("Server exited properly")
}
