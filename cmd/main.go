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

	"wheres-my-table/internal/config"
	"wheres-my-table/internal/logger"
	"wheres-my-table/internal/menu"
	"wheres-my-table/internal/messaging"
	"wheres-my-table/internal/services/dining"
	"wheres-my-table/internal/simulation"
	"wheres-my-table/internal/storage"
)

func main() {
	var (
		mode       = flag.String("mode", "", "Run mode (server, waiters)")
		configPath = flag.String("config", "config.yaml", "Path to YAML config")
		seed       = flag.Int64("seed", 0, "waiters: override simulation random seed")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required (server, waiters)\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "server":
		if err := runServer(ctx, cfg, log); err != nil {
			log.Error("service_failed", "Table service failed", requestID, err, nil)
			os.Exit(1)
		}
	case "waiters":
		if *seed != 0 {
			cfg.Simulation.Seed = *seed
		}
		if cfg.Simulation.Seed == 0 {
			cfg.Simulation.Seed = time.Now().UnixNano()
		}
		if err := runWaiters(ctx, cfg, log); err != nil {
			log.Error("service_failed", "Waiter simulation failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Stopped gracefully", requestID, nil)
}

// runServer runs the table service.
func runServer(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	var events dining.EventPublisher
	if cfg.RabbitMQ.Enabled {
		conn, err := messaging.New(cfg.RabbitMQ, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
		events = messaging.NewPublisher(conn, log)
	}

	service := dining.NewService(menu.Default(), storage.NewTableRegistry(), storage.NewOrderStore(), events, log)
	handler := dining.NewHandler(service, log)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler.Router(),
	}

	go func() {
		log.Info("service_started", fmt.Sprintf("Table service listening on %s", cfg.Server.Addr), requestID, map[string]any{
			"addr": cfg.Server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// runWaiters runs the waiter simulation against a running server.
func runWaiters(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	client := simulation.NewClient(cfg.Simulation.ServerURL)

	sim, err := simulation.New(ctx, simulation.Config{
		Tables:     cfg.Simulation.Tables,
		Waiters:    cfg.Simulation.Waiters,
		Iterations: cfg.Simulation.Iterations,
		Seed:       cfg.Simulation.Seed,
	}, client, log)
	if err != nil {
		return err
	}

	return sim.Run(ctx)
}
