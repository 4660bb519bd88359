package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MayAshke/JaMoveo-server/internal/auth"
	"github.com/MayAshke/JaMoveo-server/internal/catalog"
	"github.com/MayAshke/JaMoveo-server/internal/config"
	"github.com/MayAshke/JaMoveo-server/internal/session"
	"github.com/MayAshke/JaMoveo-server/internal/storage"
	"github.com/MayAshke/JaMoveo-server/internal/store"
	"github.com/MayAshke/JaMoveo-server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT secret is required (auth.jwt_secret or JAMOVEO_JWT_SECRET)")
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer db.Close()

	songs, err := catalog.New(db)
	if err != nil {
		log.Fatalf("Failed to init song catalog: %v", err)
	}
	st, err := store.New(db)
	if err != nil {
		log.Fatalf("Failed to init rehearsal store: %v", err)
	}

	registry := session.NewRegistry(session.RegistryOptions{
		IdleTimeout:    cfg.Engine.IdleTimeout.Std(),
		EndedRetention: cfg.Engine.EndedRetention.Std(),
	})
	tracker := session.NewTracker()
	gateway := ws.NewGateway(registry, tracker, cfg.Engine.SendBuffer, cfg.Engine.MaxConnections)
	router := ws.NewRouter(registry, tracker, gateway)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.RunSweeper(ctx, cfg.Engine.SweepInterval.Std())

	server := ws.NewServer(registry, gateway, router, verifier, songs, st, cfg.Server.AllowedOrigins)

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		db.Close()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
