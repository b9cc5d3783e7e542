package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/adapters/asr"
	"github.com/be-capable/realdog-server/adapters/llm"
	"github.com/be-capable/realdog-server/adapters/memory"
	mongodb "github.com/be-capable/realdog-server/adapters/mongo"
	"github.com/be-capable/realdog-server/adapters/storage"
	"github.com/be-capable/realdog-server/adapters/synth"
	"github.com/be-capable/realdog-server/adapters/tts"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/api"
	"github.com/be-capable/realdog-server/internal/auth"
	"github.com/be-capable/realdog-server/internal/config"
	"github.com/be-capable/realdog-server/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	stub := cfg.StubActive()
	if stub {
		logger.Warn("stub mode active, model calls will be served offline")
	}

	ctx := context.Background()

	// Speech recognition: vendor websocket, with optional Google fallback
	transcriber := asr.NewVendorTranscriber(cfg.ASR, stub, logger)
	var fallbackSTT repositories.SpeechToText
	if cfg.GoogleSTT {
		fallbackSTT = asr.NewGoogleTranscriber(logger)
	}

	chat := buildChat(ctx, cfg, stub, logger)
	speechSynth := tts.NewVolcengineTTS(cfg.TTS, stub, logger)
	synthesizer := synth.NewSynthesizer(logger)

	pipeline := usecase.NewTranslationPipeline(
		transcriber, fallbackSTT, chat, speechSynth, synthesizer, cfg.OutputMode, logger)

	// Persistence: Mongo when configured, in-memory otherwise
	var (
		taskRepo  repositories.TaskRepository
		eventRepo repositories.EventRepository
		petRepo   repositories.PetRepository
	)
	if cfg.Mongo.URI != "" {
		client, err := mongodb.NewClient(cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("mongo connection failed", zap.Error(err))
		}
		defer client.Close(ctx)
		taskRepo = mongodb.NewTaskRepository(client.Database)
		eventRepo = mongodb.NewEventRepository(client.Database)
		petRepo = mongodb.NewPetRepository(client.Database)
	} else {
		logger.Warn("no MONGODB_URI, using in-memory stores")
		taskRepo = memory.NewTaskRepository()
		eventRepo = memory.NewEventRepository()
		petRepo = memory.NewPetRepository()
	}

	var objectStore repositories.ObjectStorage
	if cfg.Storage.Configured() {
		store, err := storage.NewS3Storage(ctx, cfg.Storage, logger)
		if err != nil {
			logger.Fatal("s3 setup failed", zap.Error(err))
		}
		objectStore = store
	} else {
		logger.Warn("no S3_BUCKET, keeping audio in memory")
		objectStore = memory.NewStorage()
	}

	coordinator := usecase.NewTaskCoordinator(taskRepo, 5*time.Minute, logger)
	service := usecase.NewTranslationService(pipeline, coordinator, petRepo, eventRepo, objectStore, logger)

	authManager := auth.NewManager(cfg.JWTSecret)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, service, authManager, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildChat picks the planning model provider. Stub mode short-circuits to
// the offline chat regardless of provider.
func buildChat(ctx context.Context, cfg config.Config, stub bool, logger *zap.Logger) repositories.ChatCompletion {
	if stub && cfg.LLM.APIKey == "" {
		return llm.NewStubChat(logger)
	}

	switch cfg.LLM.Provider {
	case "gemini":
		chat, err := llm.NewGeminiChat(ctx, cfg.LLM, logger)
		if err == nil {
			return chat
		}
		logger.Warn("gemini setup failed", zap.Error(err))
	default:
		chat, err := llm.NewOpenAIChat(cfg.LLM, logger)
		if err == nil {
			return chat
		}
		logger.Warn("openai setup failed", zap.Error(err))
	}

	// Mirror the legacy behavior: an unusable LLM config degrades to the
	// offline chat instead of taking every translation down.
	logger.Warn("no usable chat provider, degrading planning to offline chat")
	return llm.NewStubChat(logger)
}
