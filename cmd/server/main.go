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

	"github.com/redis/go-redis/v9"

	"github.com/JongGun06/dialx-back/internal/ai"
	"github.com/JongGun06/dialx-back/internal/aichar"
	"github.com/JongGun06/dialx-back/internal/auth"
	"github.com/JongGun06/dialx-back/internal/broadcast"
	"github.com/JongGun06/dialx-back/internal/chat"
	"github.com/JongGun06/dialx-back/internal/config"
	"github.com/JongGun06/dialx-back/internal/db"
	"github.com/JongGun06/dialx-back/internal/gateway"
	"github.com/JongGun06/dialx-back/internal/httpapi"
	"github.com/JongGun06/dialx-back/internal/httpapi/handlers"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}
	cancelPing()

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	// Provider registry, routed by AI_PROVIDER.
	reg := ai.NewRegistry()
	reg.Register("gemini", func(ctx context.Context) (ai.Provider, error) {
		return ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel), nil
	})
	reg.Register("ollama", func(ctx context.Context) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := reg.Get(ctx, cfg.AIProvider)
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}

	charSvc := aichar.NewService(aichar.NewRepo(gdb), provider, cfg.AIHistoryWindow, cfg.AITimeout)
	hub := gateway.NewHub(verifier, charSvc)

	// Events flow service -> redis -> every host's hub, so rooms span
	// processes.
	bc := broadcast.NewRedis(rdb)
	go bc.Run(ctx, hub)

	chatSvc := chat.NewService(chat.NewRepo(gdb), bc)

	h := handlers.NewHandler(chatSvc, charSvc)
	router := httpapi.NewRouter(h, hub, verifier)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	go func() {
		log.Printf("server started addr=%s ai_provider=%s", cfg.ServerAddr, cfg.AIProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	_ = rdb.Close()
}
