package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/uwm-api/api/swagger"
	"github.com/noah-isme/uwm-api/internal/handler"
	"github.com/noah-isme/uwm-api/internal/middleware"
	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/repository"
	"github.com/noah-isme/uwm-api/internal/service"
	"github.com/noah-isme/uwm-api/pkg/cache"
	"github.com/noah-isme/uwm-api/pkg/config"
	"github.com/noah-isme/uwm-api/pkg/database"
	"github.com/noah-isme/uwm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uwm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uwm-api/pkg/middleware/requestid"
)

// @title University Wellbeing Monitor API
// @version 1.0.0
// @description Survey-driven stress detection and student wellbeing analytics
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	studentRepo := repository.NewStudentRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	surveyRepo := repository.NewSurveyResponseRepository(db)
	stressEventRepo := repository.NewStressEventRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	enrolmentRepo := repository.NewEnrolmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services. Analytics and dashboard caches share one Redis but carry their
	// own TTLs; writers invalidate through a handle active when either is.
	metricsSvc := service.NewMetricsService()
	analysisCache := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled && redisClient != nil)
	dashboardCache := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled && redisClient != nil)
	writerCache := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, (cfg.Analytics.Enabled || cfg.Dashboard.Enabled) && redisClient != nil)

	detector := service.NewEventDetector(cfg.Detection.StressThreshold)
	surveySvc := service.NewSurveyService(surveyRepo, studentRepo, detector, writerCache, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	moduleSvc := service.NewModuleService(moduleRepo, validate, logr)
	stressEventSvc := service.NewStressEventService(stressEventRepo, validate, logr)
	alertSvc := service.NewAlertService(alertRepo, validate, logr)
	recordSvc := service.NewRecordService(gradeRepo, attendanceRepo, submissionRepo, enrolmentRepo, writerCache, validate, logr)

	bands := make([]service.GradeBand, len(cfg.Grading.Bands))
	for i, b := range cfg.Grading.Bands {
		bands[i] = service.GradeBand{Label: b.Label, Min: b.Min}
	}
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, studentRepo, bands, analysisCache, metricsSvc, logr)
	riskSvc := service.NewRiskService(analyticsRepo, models.RiskThresholds{
		Attendance: cfg.Risk.AttendanceThreshold,
		Grade:      cfg.Risk.GradeThreshold,
		Stress:     cfg.Risk.StressThreshold,
	}, analysisCache, metricsSvc, logr)
	dashboardSvc := service.NewDashboardService(analyticsRepo, dashboardCache, metricsSvc, logr)
	exportSvc := service.NewExportService(riskSvc, cfg.Exports.Enabled, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "uwm-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	moduleHandler := handler.NewModuleHandler(moduleSvc)
	surveyHandler := handler.NewSurveyHandler(surveySvc)
	stressEventHandler := handler.NewStressEventHandler(stressEventSvc)
	alertHandler := handler.NewAlertHandler(alertSvc)
	recordHandler := handler.NewRecordHandler(recordSvc)
	analysisHandler := handler.NewAnalysisHandler(analyticsSvc, riskSvc, dashboardSvc, exportSvc)
	userHandler := handler.NewUserHandler(userSvc)

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
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	staff := api.Group("")
	staff.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStaff, models.RoleAdmin))
	{
		staff.GET("/students", studentHandler.List)
		staff.GET("/students/:id", studentHandler.Get)
		staff.POST("/students", studentHandler.Create)
		staff.PUT("/students/:id", studentHandler.Update)

		staff.GET("/modules", moduleHandler.List)
		staff.GET("/modules/:id", moduleHandler.Get)
		staff.POST("/modules", moduleHandler.Create)
		staff.PUT("/modules/:id", moduleHandler.Update)

		staff.GET("/surveys", surveyHandler.List)
		staff.GET("/surveys/:id", surveyHandler.Get)
		staff.POST("/surveys", surveyHandler.Submit)
		staff.PUT("/surveys/:id", surveyHandler.Update)

		staff.GET("/stress-events", stressEventHandler.List)
		staff.GET("/stress-events/:id", stressEventHandler.Get)
		staff.POST("/stress-events", stressEventHandler.Create)

		staff.GET("/alerts", alertHandler.List)
		staff.GET("/alerts/:id", alertHandler.Get)
		staff.POST("/alerts", alertHandler.Create)
		staff.POST("/alerts/:id/resolve", alertHandler.Resolve)

		staff.GET("/grades", recordHandler.ListGrades)
		staff.GET("/grades/:id", recordHandler.GetGrade)
		staff.POST("/grades", recordHandler.CreateGrade)
		staff.PUT("/grades/:id", recordHandler.UpdateGrade)

		staff.GET("/attendance", recordHandler.ListAttendance)
		staff.GET("/attendance/:id", recordHandler.GetAttendance)
		staff.POST("/attendance", recordHandler.CreateAttendance)
		staff.PUT("/attendance/:id", recordHandler.UpdateAttendance)

		staff.GET("/enrolments", recordHandler.ListEnrolments)
		staff.GET("/enrolments/:id", recordHandler.GetEnrolment)
		staff.POST("/enrolments", recordHandler.CreateEnrolment)

		staff.GET("/submissions", recordHandler.ListSubmissions)
		staff.GET("/submissions/:id", recordHandler.GetSubmission)
		staff.POST("/submissions", recordHandler.CreateSubmission)
		staff.PUT("/submissions/:id", recordHandler.UpdateSubmission)

		staff.GET("/analysis/students/:id/stress-trend", analysisHandler.StressTrend)
		staff.GET("/analysis/students/:id/attendance-trend", analysisHandler.AttendanceTrend)
		staff.GET("/analysis/students/:id/attendance-average", analysisHandler.AttendanceAverage)
		staff.GET("/analysis/grade-distribution", analysisHandler.GradeDistribution)
		staff.GET("/analysis/submission-distribution", analysisHandler.SubmissionDistribution)
		staff.GET("/analysis/attendance-overall", analysisHandler.OverallAttendance)
		staff.GET("/analysis/module-stress", analysisHandler.ModuleStress)
		staff.GET("/analysis/stress-grade-correlation", analysisHandler.Correlation)
		staff.GET("/analysis/risk", analysisHandler.Risk)
		staff.GET("/analysis/risk/export", analysisHandler.RiskExport)
		staff.GET("/analysis/dashboard", analysisHandler.Dashboard)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.DELETE("/students/:id", studentHandler.Delete)
		admin.DELETE("/modules/:id", moduleHandler.Delete)
		admin.DELETE("/surveys/:id", surveyHandler.Delete)
		admin.DELETE("/stress-events/:id", stressEventHandler.Delete)
		admin.DELETE("/alerts/:id", alertHandler.Delete)
		admin.DELETE("/grades/:id", recordHandler.DeleteGrade)
		admin.DELETE("/attendance/:id", recordHandler.DeleteAttendance)
		admin.DELETE("/enrolments/:id", recordHandler.DeleteEnrolment)
		admin.DELETE("/submissions/:id", recordHandler.DeleteSubmission)

		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.POST("/users", userHandler.Create)
		admin.PUT("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "stress_threshold", detector.Threshold())
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
