package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AdityaBS04/GrabHackProper-sub000/config"
	"github.com/AdityaBS04/GrabHackProper-sub000/database"
	"github.com/AdityaBS04/GrabHackProper-sub000/gemini"
	"github.com/AdityaBS04/GrabHackProper-sub000/handlers"
	"github.com/AdityaBS04/GrabHackProper-sub000/llm"
	"github.com/AdityaBS04/GrabHackProper-sub000/metrics"
	"github.com/AdityaBS04/GrabHackProper-sub000/openai"
	"github.com/AdityaBS04/GrabHackProper-sub000/rabbitmq"
	"github.com/AdityaBS04/GrabHackProper-sub000/router"
	"github.com/AdityaBS04/GrabHackProper-sub000/scoring"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
	if err := db.MigrateTables(); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	// Select the LLM provider. Extraction degrades to the keyword fallback
	// when no provider is configured, so a missing key is not fatal.
	var llmClient llm.Client
	switch {
	case cfg.LLMProvider == "gemini" && cfg.GeminiAPIKey != "":
		llmClient = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTimeout)
	case cfg.OpenAIAPIKey != "":
		llmClient = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMTimeout)
	default:
		log.Warn("No LLM API key configured; extraction will use the keyword fallback only")
	}
	if llmClient != nil {
		log.Infof("Extraction LLM provider=%s", llmClient.SourceName())
	}

	// Initialize RabbitMQ publisher
	var publisher router.Publisher
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.ResolutionRoutingKey)
		if err != nil {
			log.Warnf("Failed to initialize RabbitMQ publisher: %v", err)
			// Continue without publisher - resolution will still work
		} else {
			publisher = p
			defer p.Close()
		}
	}

	metrics.Register()

	// Initialize the scenario handler and HTTP handlers
	complaintHandler := router.NewHandler(db, llmClient, publisher, cfg)
	scorer := scoring.NewScorer(db, cfg.LookbackDays, cfg.AnonymousActorID)
	httpHandlers := handlers.NewHandlers(db, complaintHandler, scorer)

	// Setup HTTP server
	ginRouter := gin.Default()

	ginRouter.GET("/health", httpHandlers.HealthCheck)
	ginRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := ginRouter.Group("/api/v3")
	{
		api.POST("/complaints", httpHandlers.ResolveComplaint)
		api.GET("/credibility/:role/:id", httpHandlers.GetCredibility)
		api.GET("/resolutions/:id", httpHandlers.GetResolution)
		api.GET("/stats", httpHandlers.GetStats)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: ginRouter,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
