package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"talentlens.io/resume-chat/internal/api"
	"talentlens.io/resume-chat/internal/config"
	"talentlens.io/resume-chat/internal/core"
	"talentlens.io/resume-chat/internal/extract"
	"talentlens.io/resume-chat/internal/storage"
	"talentlens.io/resume-chat/internal/store"
)

func newLLM(ctx context.Context) (core.LLM, error) {
	cfg := config.AppConfig
	switch cfg.LLMProvider {
	case "openai":
		return core.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel)
	default:
		return core.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ChatModel, cfg.EmbeddingModel)
	}
}

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flags for one-shot document ingestion
	ingestFile := flag.String("ingest", "", "Ingest a local PDF file and exit")
	ingestUser := flag.String("user", "", "User ID to ingest the document under (with -ingest)")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize blob storage
	fileStore, err := storage.NewLocalFileStore(config.AppConfig.StorageDir)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// Initialize LLM provider
	ctx := context.Background()
	llm, err := newLLM(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	defer llm.Close()

	// Initialize services
	ragService := core.NewRAGService(llm, dbStore, config.AppConfig.MatchCount)
	chatService := core.NewChatService(dbStore, ragService, config.AppConfig.DefaultChatTitle)
	ingestService := core.NewIngestService(fileStore, extract.NewPDFExtractor(), llm, dbStore, config.AppConfig.ChunkSize)

	// Handle one-shot ingestion if requested
	if *ingestFile != "" {
		if *ingestUser == "" {
			log.Fatal("-user is required with -ingest")
		}
		log.Printf("Ingesting %s for user %s...", *ingestFile, *ingestUser)

		data, err := os.ReadFile(*ingestFile)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *ingestFile, err)
		}
		fileName := filepath.Base(*ingestFile)
		blobPath := fmt.Sprintf("%s/%s", *ingestUser, fileName)
		if err := fileStore.Upload(blobPath, data); err != nil {
			log.Fatalf("Failed to stage file: %v", err)
		}

		processed, err := ingestService.ProcessDocument(ctx, blobPath, fileName, *ingestUser)
		if err != nil {
			log.Fatalf("Ingestion failed after %d chunks: %v", processed, err)
		}
		log.Printf("Ingestion complete. Stored %d chunks. Exiting.", processed)
		os.Exit(0)
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService, ragService, ingestService, dbStore, dbStore, fileStore)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
