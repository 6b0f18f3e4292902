package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"planboard/internal/config"
	"planboard/internal/handler"
	"planboard/internal/logging"
	"planboard/internal/middleware"
	"planboard/internal/repository"
	"planboard/internal/service"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Log    *logrus.Logger
}

func Init(cfg *config.Config) (*Server, error) {
	log := logging.New(cfg.LogFile, cfg.LogLevel)

	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	log.Info("Connected to database")

	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Migrations applied")

	// Setup Gin
	r := gin.Default()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	depRepo := repository.NewDependencyRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	// Initialize schedule services
	hierarchy := service.NewHierarchyValidator(taskRepo)
	rollup := service.NewRollupEngine(taskRepo, projectRepo)
	checker := service.NewDependencyChecker(taskRepo, depRepo)
	importer := service.NewImporter(taskRepo, depRepo, rollup, checker, log)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, cfg.JWTSecret)
	projectHandler := handler.NewProjectHandler(projectRepo, memberRepo, rollup)
	memberHandler := handler.NewMemberHandler(projectRepo, userRepo, memberRepo)
	taskHandler := handler.NewTaskHandler(taskRepo, memberRepo, hierarchy, rollup)
	depHandler := handler.NewDependencyHandler(depRepo, taskRepo, memberRepo, checker)
	resourceHandler := handler.NewResourceHandler(resourceRepo, taskRepo, memberRepo)
	importHandler := handler.NewImportHandler(projectRepo, memberRepo, importer)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.GetAll)
		authorized.GET("/projects/:id", projectHandler.GetByID)
		authorized.PUT("/projects/:id", projectHandler.Update)
		authorized.DELETE("/projects/:id", projectHandler.Delete)
		authorized.POST("/projects/:id/recalculate", projectHandler.Recalculate)

		// Member routes
		authorized.POST("/projects/:id/members", memberHandler.Share)
		authorized.DELETE("/projects/:id/members/:user_id", memberHandler.Remove)
		authorized.GET("/projects/:id/members", memberHandler.GetMembers)
		authorized.GET("/shared-projects", memberHandler.GetSharedProjects)

		// Task routes
		authorized.POST("/projects/:id/tasks", taskHandler.Create)
		authorized.GET("/projects/:id/tasks", taskHandler.GetByProjectID)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)

		// Dependency routes
		authorized.POST("/projects/:id/dependencies", depHandler.Create)
		authorized.GET("/projects/:id/dependencies", depHandler.GetByProject)
		authorized.GET("/tasks/:id/dependencies", depHandler.GetByTask)
		authorized.PUT("/dependencies/:id", depHandler.Update)
		authorized.DELETE("/dependencies/:id", depHandler.Delete)

		// Resource routes
		authorized.POST("/projects/:id/resources", resourceHandler.Create)
		authorized.GET("/projects/:id/resources", resourceHandler.GetByProject)
		authorized.DELETE("/resources/:id", resourceHandler.Delete)
		authorized.POST("/tasks/:id/resources/:resource_id", resourceHandler.Assign)
		authorized.DELETE("/tasks/:id/resources/:resource_id", resourceHandler.Unassign)
		authorized.GET("/tasks/:id/resources", resourceHandler.GetTaskResources)

		// Bulk import
		authorized.POST("/projects/:id/import", importHandler.Import)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
		Log:    log,
	}, nil
}

func runMigrations(cfg *config.Config) error {
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(cfg.DBUser), url.QueryEscape(cfg.DBPassword),
		cfg.DBHost, cfg.DBPort, cfg.DBName,
	)
	m, err := migrate.New(cfg.MigrationsPath, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Log.Infof("Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Log.Fatalf("Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Log.Fatalf("Server forced to shutdown: %s", err)
	}

	s.Log.Info("Server exited properly")
}
