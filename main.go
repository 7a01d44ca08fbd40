package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"project_partner_backend/internal/checkpoint"
	"project_partner_backend/internal/composio"
	"project_partner_backend/internal/config"
	"project_partner_backend/internal/generation"
	"project_partner_backend/internal/handlers"
	"project_partner_backend/internal/logger"
	"project_partner_backend/internal/server"
	"project_partner_backend/internal/session"
	"project_partner_backend/internal/stages"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, relying on process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Fatal configuration error")
	}

	ctx := context.Background()

	tasks, err := config.LoadTasks(cfg.Workflow.TasksPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error loading task definitions")
	}

	gen, err := generation.NewChatGenerator(ctx, cfg.LLM, tasks)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error creating chat generator")
	}

	docs := composio.NewAPIClient(cfg.Composio)
	if connected, err := docs.ConnectedAccountExists(ctx); err != nil {
		logger.Warn().Err(err).Msg("Could not verify Notion connection")
	} else if !connected {
		logger.Warn().
			Str("user_id", cfg.Composio.UserID).
			Msg("No Notion connection found for this user; run the one-time auth setup before publishing")
	}

	var store session.Store
	if cfg.Redis.URL != "" {
		redisStore, err := session.NewRedisStore(ctx, cfg.Redis.URL, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		if err != nil {
			logger.Fatal().Err(err).Msg("Error connecting to Redis session store")
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info().Msg("Using Redis session store")
	} else {
		store = session.NewMemoryStore()
		logger.Info().Msg("REDIS_URL not set, using in-memory session store")
	}

	marker := checkpoint.New(cfg.Workflow.CheckpointPath)
	sequencer := stages.NewSequencer(gen, docs, marker, cfg.Composio.ParentPageID)
	workflowHandler := handlers.NewWorkflowHandler(sequencer, store)

	router := server.NewRouter(server.RouterConfig{Workflow: workflowHandler})

	logger.Info().Str("port", cfg.Server.Port).Msg("Starting server")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped")
	}
}
