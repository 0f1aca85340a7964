package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/api"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/catalog"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/config"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/core"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/llm"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/logger"
	"github.com/Shashwat-Akhilesh-Shukla/Ecommerce-RAG/internal/store"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	cfg := config.AppConfig

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ingestFlag := flag.String("ingest", "", "Ingest a products.json catalog into the vector index and exit")
	flag.Parse()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbStore.Close()

	ctx := context.Background()

	llmClient, err := llm.NewClient(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.GenerativeModel, log)
	if err != nil {
		log.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	defer llmClient.Close()

	if *ingestFlag != "" {
		ingestor := catalog.NewIngestor(llmClient, dbStore, log)
		count, err := ingestor.IngestFile(ctx, *ingestFlag)
		if err != nil {
			log.Fatal("catalog ingestion failed", zap.Error(err))
		}
		log.Info("catalog ingestion complete", zap.Int("chunks", count))
		return
	}

	vectorIndex, err := store.NewVectorIndex(ctx, dbStore, log)
	if err != nil {
		log.Fatal("failed to load vector index", zap.Error(err))
	}

	// The preference and metrics ports can live in SQLite alongside the
	// index or in Redis.
	var prefs core.PreferenceStore = dbStore
	var metrics core.MetricsStore = dbStore
	if cfg.StoreBackend == "redis" {
		redisStore := store.NewRedisStore(cfg.RedisAddr)
		if err := redisStore.Ping(ctx); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		prefs = redisStore
		metrics = redisStore
	}

	retriever := core.NewRetriever(llmClient, vectorIndex,
		cfg.RetrievalWorkers, time.Duration(cfg.ProbeTimeoutSec)*time.Second, log)
	composer := core.NewComposer(llmClient,
		time.Duration(cfg.GenerationTimeout)*time.Second, log)
	recommendations := core.NewRecommendationService(
		retriever, composer, prefs, metrics, cfg.TopK, cfg.RerankCap, log)

	apiHandler := api.NewAPIHandler(recommendations, metrics, log)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM-backed requests can take a while
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited gracefully")
}
