package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codecrate/internal/api"
	"codecrate/internal/app/service"
	"codecrate/internal/app/worker"
	"codecrate/internal/common/security"
	"codecrate/internal/domain/repository"
	"codecrate/internal/platform/config"
	"codecrate/internal/platform/database"
	"codecrate/internal/platform/logger"
	"codecrate/internal/platform/objectstore"
	"codecrate/internal/platform/queue"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	ctx := context.Background()

	rdb, err := queue.Connect(ctx, cfg)
	if err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()
	log.Info("redis connected")

	blobs, err := objectstore.NewMinio(cfg)
	if err != nil {
		log.Error("object store connect failed", "err", err)
		os.Exit(1)
	}
	for _, bucket := range []string{cfg.TemplateBucket, cfg.AssignmentBucket, cfg.AttemptBucket} {
		if err := blobs.EnsureBucket(ctx, bucket); err != nil {
			log.Error("bucket setup failed", "bucket", bucket, "err", err)
			os.Exit(1)
		}
	}
	log.Info("object store ready")

	tokenAuth := security.NewTokenAuth(cfg.JWTKey)

	// Repositories
	templateRepo := repository.NewPgTemplateRepository(db)
	assignmentRepo := repository.NewPgAssignmentRepository(db)
	attemptRepo := repository.NewPgAttemptRepository(db)

	// Coordinators: one per entity kind, each bound to its bucket and the
	// link columns of its repository.
	templateCoord := service.NewContentCoordinator(blobs, templateRepo, service.KindTemplate, cfg.TemplateBucket, cfg.PresignTTL, log)
	assignmentCoord := service.NewContentCoordinator(blobs, assignmentRepo, service.KindAssignment, cfg.AssignmentBucket, cfg.PresignTTL, log)
	attemptCoord := service.NewContentCoordinator(blobs, attemptRepo, service.KindAttempt, cfg.AttemptBucket, cfg.PresignTTL, log)

	// Services
	repairs := queue.NewRepairQueue(rdb, cfg.RepairQueueName)
	templateService := service.NewTemplateService(templateRepo, templateCoord, repairs, log)
	assignmentService := service.NewAssignmentService(assignmentRepo, templateService, assignmentCoord, repairs, log)
	attemptService := service.NewAttemptService(attemptRepo, assignmentRepo, attemptCoord, repairs, log)

	// Repair worker
	repairWorker := worker.NewRepairWorker(repairs, templateService, assignmentService, attemptService, cfg.RepairTimeout, log)
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	go repairWorker.Start(workerCtx)

	router := api.NewRouter(tokenAuth, templateService, assignmentService, attemptService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen failed", "err", err)
			os.Exit(1)
		}
	}()

	<-stop

	log.Info("shutting down")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
		os.Exit(1)
	}

	log.Info("server and worker stopped")
}
