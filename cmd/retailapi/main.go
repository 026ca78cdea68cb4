package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retaillab/internal/db"
	"retaillab/internal/server"

	"github.com/gin-gonic/gin"
)

func main() {
	var (
		addr       = flag.String("addr", defaultAddr(), "listen address")
		scriptPath = flag.String("init-script", getEnv("INIT_SCRIPT", "sql/init.sql"), "schema/seed script replayed by /initdb")
		debug      = flag.Bool("debug", false, "run gin in debug mode")
	)
	flag.Parse()

	if !*debug {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := db.FromEnv()
	srv, err := server.New(db.NewProvider(cfg), server.Options{ScriptPath: *scriptPath})
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("retailapi listening on %s (db %s@%s:%s/%s)", *addr, cfg.User, cfg.Host, cfg.Port, cfg.Database)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func defaultAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8000"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
