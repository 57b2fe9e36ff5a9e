package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/scheduling-api/internal/handler"
	"github.com/campushub/scheduling-api/internal/middleware"
	"github.com/campushub/scheduling-api/internal/repository"
	"github.com/campushub/scheduling-api/internal/service"
	"github.com/campushub/scheduling-api/pkg/cache"
	"github.com/campushub/scheduling-api/pkg/config"
	"github.com/campushub/scheduling-api/pkg/database"
	"github.com/campushub/scheduling-api/pkg/jobs"
	"github.com/campushub/scheduling-api/pkg/logger"
	corsmiddleware "github.com/campushub/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/scheduling-api/pkg/middleware/requestid"
	"github.com/campushub/scheduling-api/pkg/storage"
)

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewDownloadSigner(cfg.Export.SignSecret, cfg.Export.ResultTTL)

	timetableRepo := repository.NewTimetableRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	examRepo := repository.NewExamRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	timetableSvc := service.NewTimetableService(timetableRepo, courseRepo, instructorRepo, roomRepo, cacheRepo, metricsSvc, nil, logr, cfg.Solver)
	examSvc := service.NewExamService(examRepo, studentRepo, roomRepo, instructorRepo, metricsSvc, nil, logr, cfg.Exams, cfg.Seating)
	courseSvc := service.NewCourseService(courseRepo, nil, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, nil, logr)
	roomSvc := service.NewRoomService(roomRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, courseRepo, nil, logr)
	rosterSvc := service.NewRosterService(courseRepo, instructorRepo, roomRepo, studentRepo, logr)

	exportSvc := service.NewExportService(timetableRepo, examRepo, studentRepo, exportStore, signer, cfg.APIPrefix, logr)
	exportJobSvc, exportWorker := service.NewExportJobService(nil, exportSvc, metricsSvc, nil, logr, cfg.Export)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers: cfg.Export.Workers,
		Logger:  logr,
	})
	exportJobSvc.SetQueue(exportQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exportQueue.Start(ctx)
	defer exportQueue.Stop()
	exportJobSvc.StartCleanup(ctx, time.Hour)

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	examHandler := handler.NewExamHandler(examSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	importHandler := handler.NewImportHandler(rosterSvc)
	exportHandler := handler.NewExportHandler(exportJobSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		timetables := api.Group("/timetables")
		timetables.GET("", timetableHandler.List)
		timetables.POST("", timetableHandler.Create)
		timetables.GET("/:id", timetableHandler.Get)
		timetables.POST("/:id/solve", timetableHandler.Solve)
		timetables.GET("/:id/conflicts", timetableHandler.Conflicts)
		timetables.GET("/:id/statistics", timetableHandler.Statistics)
		timetables.DELETE("/:id/sessions", timetableHandler.Clear)

		exams := api.Group("/exams")
		exams.POST("/schedule", examHandler.Schedule)
		exams.GET("", examHandler.List)
		exams.GET("/duties", examHandler.Duties)
		exams.DELETE("", examHandler.ClearSchedule)
		exams.POST("/:id/seating", examHandler.AllocateSeating)
		exams.GET("/:id/seating", examHandler.Seating)
		exams.DELETE("/:id/seating", examHandler.ClearSeating)

		courses := api.Group("/courses")
		courses.GET("", courseHandler.List)
		courses.POST("", courseHandler.Create)
		courses.GET("/:id", courseHandler.Get)
		courses.PUT("/:id", courseHandler.Update)
		courses.DELETE("/:id", courseHandler.Delete)
		courses.POST("/:id/enroll", studentHandler.Enroll)
		courses.GET("/:id/students", studentHandler.Enrolled)

		instructors := api.Group("/instructors")
		instructors.GET("", instructorHandler.List)
		instructors.POST("", instructorHandler.Create)
		instructors.GET("/:id", instructorHandler.Get)
		instructors.PUT("/:id/windows", instructorHandler.ReplaceWindows)
		instructors.POST("/:id/unavailable", instructorHandler.AddOverride)
		instructors.DELETE("/:id", instructorHandler.Delete)

		rooms := api.Group("/rooms")
		rooms.GET("", roomHandler.List)
		rooms.POST("", roomHandler.Create)
		rooms.GET("/:id", roomHandler.Get)
		rooms.DELETE("/:id", roomHandler.Delete)

		students := api.Group("/students")
		students.GET("", studentHandler.List)
		students.POST("", studentHandler.Create)
		students.GET("/:id", studentHandler.Get)

		imports := api.Group("/import")
		imports.POST("/courses", importHandler.Courses)
		imports.POST("/instructors", importHandler.Instructors)
		imports.POST("/rooms", importHandler.Rooms)
		imports.POST("/students", importHandler.Students)

		exports := api.Group("/exports")
		exports.POST("", exportHandler.Create)
		exports.GET("/:id", exportHandler.Status)
		exports.GET("/download/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
