package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/class-unity/classunity-api/api/swagger"
	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/handler"
	"github.com/class-unity/classunity-api/internal/middleware"
	"github.com/class-unity/classunity-api/internal/repository"
	"github.com/class-unity/classunity-api/internal/service"
	"github.com/class-unity/classunity-api/pkg/cache"
	"github.com/class-unity/classunity-api/pkg/config"
	"github.com/class-unity/classunity-api/pkg/database"
	"github.com/class-unity/classunity-api/pkg/identity"
	"github.com/class-unity/classunity-api/pkg/jobs"
	"github.com/class-unity/classunity-api/pkg/logger"
	"github.com/class-unity/classunity-api/pkg/messaging"
	corsmiddleware "github.com/class-unity/classunity-api/pkg/middleware/cors"
	reqidmiddleware "github.com/class-unity/classunity-api/pkg/middleware/requestid"
)

// @title ClassUnity API
// @version 1.0.0
// @description Role-scoped school management API
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}

	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close()
	}

	identityProvider := identity.NewClerkProvider(cfg.Identity.SecretKey)

	var chatClient messaging.Client
	if cfg.Chat.APIKey != "" {
		chatClient, err = messaging.NewStreamClient(cfg.Chat.APIKey, cfg.Chat.APISecret)
		if err != nil {
			logr.Fatal("failed to init chat client", zap.Error(err))
		}
	} else {
		logr.Warn("chat credentials missing, using no-op client")
		chatClient = messaging.NewNoopClient()
	}

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	classRepo := repository.NewClassRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	examRepo := repository.NewExamRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	eventRepo := repository.NewEventRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	ownershipRepo := repository.NewOwnershipRepository(db)

	guard := authz.NewMutationGuard(ownershipRepo)
	validate := validator.New()

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache, logr)

	reconciler := service.NewReconcileService(identityProvider, chatClient, teacherRepo, studentRepo, logr)
	queue := jobs.NewQueue("reconcile", reconciler.Handle, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})

	handlers := handler.Handlers{
		Dashboard:     handler.NewDashboardHandler(service.NewDashboardService(dashboardRepo, cacheSvc, logr)),
		Teachers:      handler.NewTeacherHandler(service.NewTeacherService(teacherRepo, identityProvider, guard, cacheSvc, queue, validate, logr)),
		Students:      handler.NewStudentHandler(service.NewStudentService(studentRepo, identityProvider, guard, cacheSvc, queue, validate, logr)),
		Departments:   handler.NewDepartmentHandler(service.NewDepartmentService(departmentRepo, guard, cacheSvc, validate, logr)),
		Classes:       handler.NewClassHandler(service.NewClassService(classRepo, guard, cacheSvc, validate, logr)),
		Courses:       handler.NewCourseHandler(service.NewCourseService(courseRepo, guard, cacheSvc, validate, logr)),
		Chapters:      handler.NewChapterHandler(service.NewChapterService(chapterRepo, guard, cacheSvc, validate, logr)),
		Exams:         handler.NewExamHandler(service.NewExamService(examRepo, guard, cacheSvc, validate, logr)),
		Assignments:   handler.NewAssignmentHandler(service.NewAssignmentService(assignmentRepo, guard, cacheSvc, validate, logr)),
		Results:       handler.NewResultHandler(service.NewResultService(resultRepo, guard, cacheSvc, validate, logr)),
		Events:        handler.NewEventHandler(service.NewEventService(eventRepo, guard, cacheSvc, validate, logr)),
		Announcements: handler.NewAnnouncementHandler(service.NewAnnouncementService(announcementRepo, guard, cacheSvc, validate, logr)),
		Chat:          handler.NewChatHandler(service.NewChatService(chatClient, teacherRepo, studentRepo, cacheSvc, queue, cfg.Chat, logr)),
		Audit:         handler.NewAuditHandler(service.NewAuditService(auditRepo, logr)),
	}

	routeTable, err := authz.DefaultRouteTable(cfg.APIPrefix)
	if err != nil {
		logr.Fatal("failed to build route table", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, handler.Middleware{
		Session: middleware.Session(cfg.Session),
		Guard:   middleware.RouteGuard(routeTable),
		Audit: func(action, resource string) gin.HandlerFunc {
			return middleware.Audit(auditRepo, action, resource)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
