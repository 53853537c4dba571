package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fikri-aulia/tpq-santri-api/api/swagger"
	"github.com/fikri-aulia/tpq-santri-api/internal/handler"
	"github.com/fikri-aulia/tpq-santri-api/internal/middleware"
	"github.com/fikri-aulia/tpq-santri-api/internal/migrate"
	"github.com/fikri-aulia/tpq-santri-api/internal/repository"
	"github.com/fikri-aulia/tpq-santri-api/internal/service"
	"github.com/fikri-aulia/tpq-santri-api/internal/watch"
	"github.com/fikri-aulia/tpq-santri-api/pkg/config"
	"github.com/fikri-aulia/tpq-santri-api/pkg/database"
	"github.com/fikri-aulia/tpq-santri-api/pkg/export"
	"github.com/fikri-aulia/tpq-santri-api/pkg/logger"
	corsmiddleware "github.com/fikri-aulia/tpq-santri-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fikri-aulia/tpq-santri-api/pkg/middleware/requestid"
	"github.com/fikri-aulia/tpq-santri-api/pkg/storage"
)

// @title TPQ Santri API
// @version 1.0.0
// @description Attendance and Quran reading progress tracker for a TPQ
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

	db, err := database.NewSQLite(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to open database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// The store must be fully migrated before a single request is served.
	migration, err := migrate.New(db, logr).Run(context.Background())
	if err != nil {
		logr.Sugar().Fatalw("schema migration failed", "error", err)
	}
	if migration.OrphansDropped > 0 {
		logr.Sugar().Warnw("orphan attendance rows dropped during migration",
			"count", migration.OrphansDropped)
	}

	store, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare exports directory", "error", err)
	}

	bus := watch.NewBus()
	metricsSvc := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	studentSvc := service.NewStudentService(studentRepo, bus, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, bus, nil, logr)
	reportSvc := service.NewReportService(studentRepo, attendanceRepo, bus, service.ReportConfig{
		WindowDays: cfg.Reports.WindowDays,
		CacheTTL:   cfg.Reports.CacheTTL,
	}, metricsSvc, logr)
	defer reportSvc.Close()
	exportSvc := service.NewExportService(reportSvc, export.NewReportPDF(), store, logr)
	backupSvc := service.NewBackupService(studentRepo, attendanceRepo, bus, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "schema_version": migration.ToVersion})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Students:   handler.NewStudentHandler(studentSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Reports:    handler.NewReportHandler(reportSvc, exportSvc),
		Backups:    handler.NewBackupHandler(backupSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "db", cfg.Database.Path)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
