package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/dyamada-jaki/chat-analyzer/internal/config"
	"github.com/dyamada-jaki/chat-analyzer/internal/handler"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/emotion"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/ingest"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/store"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	messageStore := store.New()
	hub := ws.NewHub()

	var chatModel model.ToolCallingChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize gemini model: %v", err)
			log.Println("continuing with keyword-based analysis only - GEMINI_API_KEY を確認してください")
			chatModel = nil
		}
	} else {
		log.Println("GEMINI_API_KEY 未設定のため、キーワード規則のみで感情分析します")
	}

	emotionSvc, err := emotion.NewService(ctx, chatModel, emotion.Config{
		Enabled: chatModel != nil,
		Timeout: cfg.AI.Timeout,
	})
	if err != nil {
		log.Fatalf("failed to initialize emotion service: %v", err)
	}
	if emotionSvc.Enabled() {
		log.Println("Gemini emotion classifier enabled")
	}

	ingestSvc := ingest.NewService(messageStore, emotionSvc, hub)

	router := handler.NewRouter(messageStore, ingestSvc, hub)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Chat Analyzer backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
