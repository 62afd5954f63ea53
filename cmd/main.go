package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/localspark/marketplace-backend/internal/db"
	"github.com/localspark/marketplace-backend/internal/handlers"
	"github.com/localspark/marketplace-backend/internal/logger"
	"github.com/localspark/marketplace-backend/internal/platform/openai"
	"github.com/localspark/marketplace-backend/internal/repos"
	"github.com/localspark/marketplace-backend/internal/server"
	"github.com/localspark/marketplace-backend/internal/services"
	"github.com/localspark/marketplace-backend/internal/state"
	"github.com/localspark/marketplace-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	port := utils.GetEnv("PORT", "8080", log)
	generationTimeout := utils.GetEnvAsInt("GENERATION_TIMEOUT_SECONDS", 45, log)
	autoFlagConfidence := utils.GetEnvAsFloat("AUTO_FLAG_CONFIDENCE", 0.7, log)
	topPerformers := utils.GetEnvAsInt("TOP_PERFORMERS", 10, log)
	keywordPath := utils.GetEnv("SENTIMENT_KEYWORDS_PATH", "", log)

	// Database
	dbService, err := db.NewService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	profileRepo := repos.NewProfileRepo(gdb, log)
	metricRepo := repos.NewViewMetricRepo(gdb, log)
	sentimentRepo := repos.NewSentimentRecordRepo(gdb, log)
	flagRepo := repos.NewFlagRepo(gdb, log)

	// Shared state
	store := state.NewStore()

	// Generative-text client is optional; without credentials every profile
	// gets the deterministic fallback content.
	var aiClient openai.Client
	if client, err := openai.NewClient(log); err != nil {
		log.Warn("OpenAI client unavailable, using fallback content only", "error", err)
	} else {
		aiClient = client
	}

	// Snapshot mirror is optional too.
	var mirror *services.SnapshotMirror
	if m, err := services.NewSnapshotMirror(log); err != nil {
		log.Warn("Snapshot mirror unavailable", "error", err)
	} else {
		mirror = m
		defer mirror.Close()
	}

	// Services
	log.Info("Setting up services from main...")
	keywords, err := services.LoadKeywordConfig(keywordPath)
	if err != nil {
		log.Error("Could not load sentiment keywords", "error", err)
		os.Exit(1)
	}
	analyzer := services.NewSentimentAnalyzer(log, keywords)
	generator := services.NewContentGenerator(log, aiClient)
	ranking := services.NewRankingEngine(log, services.RankingWeights{
		Views:       utils.GetEnvAsFloat("RANK_WEIGHT_VIEWS", 0.40, log),
		Engagement:  utils.GetEnvAsFloat("RANK_WEIGHT_ENGAGEMENT", 0.25, log),
		Sentiment:   utils.GetEnvAsFloat("RANK_WEIGHT_SENTIMENT", 0.20, log),
		Conversions: utils.GetEnvAsFloat("RANK_WEIGHT_CONVERSIONS", 0.15, log),
	})
	snapshots := services.NewMetricsSnapshotService(log, store, ranking, mirror, topPerformers)
	flagging := services.NewFlaggingEngine(log, store, flagRepo, snapshots, autoFlagConfidence)
	tracker := services.NewViewTracker(log, store, metricRepo, snapshots)
	profiles := services.NewProfileStore(log, store, generator, analyzer, flagging, snapshots, services.ProfileStoreConfig{
		ProfileRepo:       profileRepo,
		MetricRepo:        metricRepo,
		SentimentRepo:     sentimentRepo,
		FlagRepo:          flagRepo,
		GenerationTimeout: time.Duration(generationTimeout) * time.Second,
	})

	hydrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	profiles.Hydrate(hydrateCtx)
	cancel()

	// Handlers
	log.Info("Setting up handlers from main...")
	profileHandler := handlers.NewProfileHandler(profiles)
	viewHandler := handlers.NewViewHandler(tracker)
	moderationHandler := handlers.NewModerationHandler(flagging)
	metricsHandler := handlers.NewMetricsHandler(snapshots)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ProfileHandler:    profileHandler,
		ViewHandler:       viewHandler,
		ModerationHandler: moderationHandler,
		MetricsHandler:    metricsHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
