package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/linguaflow/linguaflow-api/internal/config"
	"github.com/linguaflow/linguaflow-api/internal/database"
	"github.com/linguaflow/linguaflow-api/internal/handler"
	"github.com/linguaflow/linguaflow-api/internal/middleware"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/repository"
	"github.com/linguaflow/linguaflow-api/internal/router"
	"github.com/linguaflow/linguaflow-api/internal/service"
	"github.com/linguaflow/linguaflow-api/pkg/ai"
	cloud "github.com/linguaflow/linguaflow-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Tutor{},
		&models.Student{},
		&models.Lesson{},
		&models.Exercise{},
		&models.LessonAssignment{},
		&models.LessonAttempt{},
		&models.SubmittedAnswer{},
		&models.ReviewHistory{},
		&models.Message{},
		&models.AvailabilitySlot{},
		&models.Booking{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName:  cfg.CloudinaryCloudName,
		APIKey:     cfg.CloudinaryAPIKey,
		APISecret:  cfg.CloudinaryAPISecret,
		RootFolder: cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var drafter ai.FeedbackDrafter
	if cfg.OpenAIAPIKey != "" {
		openaiDrafter, err := ai.NewOpenAIDrafter(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai drafter: %v", err)
		}
		drafter = openaiDrafter
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	lessonRepo := repository.NewLessonRepository(db)
	tutorRepo := repository.NewTutorRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	rosterService := service.NewRosterService(assignmentRepo, lessonRepo, tutorRepo, redisClient, cfg.RosterCacheTTL, logger)
	lessonService := service.NewLessonService(lessonRepo, assignmentRepo, studentRepo, validate, uploader, logger)
	attemptService := service.NewAttemptService(attemptRepo, assignmentRepo, lessonRepo, rosterService, validate, logger)
	reviewService := service.NewReviewService(attemptRepo, rosterService, drafter, validate, logger)
	messageService := service.NewMessageService(messageRepo, redisClient, cfg.MessageChannelBase, natsConn, validate, logger)
	scheduleService := service.NewScheduleService(scheduleRepo, validate, logger)
	tutorService := service.NewTutorDirectoryService(tutorRepo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messageService.Start(ctx)

	lessonHandler := handler.NewLessonHandler(lessonService, validate, logger)
	attemptHandler := handler.NewAttemptHandler(attemptService, validate, logger)
	rosterHandler := handler.NewRosterHandler(rosterService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, validate, logger)
	messageHandler := handler.NewMessageHandler(messageService, validate, logger)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, validate, logger)
	tutorHandler := handler.NewTutorHandler(tutorService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		LessonHandler:   lessonHandler,
		AttemptHandler:  attemptHandler,
		RosterHandler:   rosterHandler,
		ReviewHandler:   reviewHandler,
		MessageHandler:  messageHandler,
		ScheduleHandler: scheduleHandler,
		TutorHandler:    tutorHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
