// Package main our entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/johndosdos/livechat/internal/chat"
	"github.com/johndosdos/livechat/internal/config"
	"github.com/johndosdos/livechat/internal/handler"
	ratelimiter "github.com/johndosdos/livechat/internal/rate_limiter"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// hub.Run is our central dispatcher that is always listening for
	// client related events. It is the only goroutine that touches
	// chat state.
	hub := chat.NewHub(chat.Options{
		HistoryRetain:   cfg.HistoryRetain,
		HistorySnapshot: cfg.HistorySnapshot,
		MessageMaxLen:   cfg.MessageMaxLen,
		TypingTimeout:   cfg.TypingTimeout,
		SendQueue:       cfg.SendQueue,
	})
	go hub.Run(ctx)

	ipLimiter := ratelimiter.NewIPRateLimiter(cfg.IPRate, time.Minute, ratelimiter.CleanupOpts{
		TTL:      10 * time.Minute,
		Interval: time.Minute,
	})
	defer ipLimiter.Cancel()

	limits := handler.RateLimits{
		Messages:     cfg.MessageRate,
		MessageWin:   time.Minute,
		TypingEvents: cfg.TypingRate,
		TypingWin:    time.Minute,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", ipLimiter.Middleware(handler.ServeWs(hub, limits)))
	r.Get("/healthz", handler.Healthz())
	r.Get("/stats", handler.Stats(hub))

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		log.Printf("Server starting at 0.0.0.0:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	log.Println("Server stopped")
}
