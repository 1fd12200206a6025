package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/smart-student-api/api/swagger"
	"github.com/noah-isme/smart-student-api/internal/handler"
	"github.com/noah-isme/smart-student-api/internal/middleware"
	"github.com/noah-isme/smart-student-api/internal/repository"
	"github.com/noah-isme/smart-student-api/internal/service"
	"github.com/noah-isme/smart-student-api/pkg/aiclient"
	"github.com/noah-isme/smart-student-api/pkg/config"
	"github.com/noah-isme/smart-student-api/pkg/events"
	"github.com/noah-isme/smart-student-api/pkg/jobs"
	"github.com/noah-isme/smart-student-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/smart-student-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/smart-student-api/pkg/middleware/requestid"
	"github.com/noah-isme/smart-student-api/pkg/storage"
)

// @title Smart Student API
// @version 1.0.0
// @description Task, grading and notification backend for the Smart Student platform
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()

	backend, err := repository.Open(ctx, cfg, logr, metrics)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logr.Warn("failed to close blob store", zap.Error(err))
		}
	}()
	repos := repository.New(backend.Store, cfg.Store.KeyPrefix, logr)

	bus := events.NewBus(logr)
	metrics.Register(bus)
	if cfg.Events.AMQPURL != "" {
		forwarder, closeForwarder, err := service.DialEventForwarder(cfg.Events.AMQPURL, cfg.Events.AMQPExchange, logr)
		if err != nil {
			return err
		}
		defer closeForwarder() //nolint:errcheck
		forwarder.Register(bus)
		logr.Info("event forwarding enabled", zap.String("exchange", cfg.Events.AMQPExchange))
	}

	objects, err := openAttachments(cfg)
	if err != nil {
		return fmt.Errorf("open attachment storage: %w", err)
	}

	validate := validator.New()
	signer := storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL)

	authSvc := service.NewAuthService(repos.Users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(repos.Users, validate, logr)
	notificationSvc := service.NewNotificationService(repos.Notifications, repos.Users, bus, metrics, logr)
	notificationSvc.Register(bus)
	attachmentSvc := service.NewAttachmentService(objects, signer, repos.Comments, cfg.APIPrefix+"/attachments", cfg.Attachments.MaxFileSize, logr)
	taskSvc := service.NewTaskService(repos.Tasks, repos.Comments, repos.Users, attachmentSvc, bus, validate, logr)
	commentSvc := service.NewCommentService(repos.Comments, repos.Tasks, repos.Users, attachmentSvc, bus, validate, logr)
	exportSvc := service.NewExportService(repos.Tasks, repos.Users, repos.Comments, repos.Users, logr)
	courseSvc := service.NewCourseService(repos.Tasks, repos.Users, logr)
	repairSvc := service.NewRepairService(repos, bus, metrics, logr)

	aiSvc := service.NewAIService(repos.Generations, aiclient.New(cfg.AI), validate, metrics, logr, cfg.AI.Timeout)
	aiQueue := jobs.NewQueue("ai", aiSvc.Process, jobs.QueueConfig{
		Workers:    cfg.AI.Workers,
		BufferSize: cfg.AI.QueueBuffer,
		MaxRetries: 0,
		Logger:     logr,
	})
	aiSvc.AttachQueue(aiQueue)
	aiQueue.Start(ctx)
	defer aiQueue.Stop()
	aiSvc.RecoverPending(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
		"store": backend.Ping,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc, userSvc),
		Users:         handler.NewUserHandler(userSvc),
		Tasks:         handler.NewTaskHandler(taskSvc, exportSvc, 8*cfg.Attachments.MaxFileSize),
		Comments:      handler.NewCommentHandler(commentSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		AI:            handler.NewAIHandler(aiSvc),
		Attachments:   handler.NewAttachmentHandler(attachmentSvc),
		Repairs:       handler.NewRepairHandler(repairSvc),
		Metrics:       metricsHandler,
	}, authSvc, logr.Named("audit"))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", backend.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openAttachments(cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Attachments.Driver {
	case "", config.AttachmentsLocal:
		return storage.NewLocalStorage(cfg.Attachments.StorageDir)
	case config.AttachmentsMinIO:
		return storage.NewMinIOStorage(cfg.MinIO)
	}
	return nil, fmt.Errorf("unknown attachments driver %q", cfg.Attachments.Driver)
}
