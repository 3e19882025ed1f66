/*
Package main is the entry point for the relay hub.

It is responsible for loading configuration, initializing the global logging
system, starting the hub event loop, the raw TCP listener, and the HTTP
gateway, and gracefully handling operating system interrupt signals (SIGINT,
SIGTERM) to ensure a smooth shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relayhub/internal/app/chat"
	"relayhub/internal/configs"
	"relayhub/internal/handler"
	"relayhub/internal/pkg/logx"
	"relayhub/internal/server"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("tcp_port", cfg.TCPPort).
		Int("http_port", cfg.HTTPPort).
		Int("name_limit", cfg.NameLimit).
		Int("content_limit", cfg.ContentLimit).
		Dur("send_interval", cfg.SendInterval).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the hub event loop
	hub := chat.NewHub(chat.Config{
		NameLimit:    cfg.NameLimit,
		ContentLimit: cfg.ContentLimit,
		SendInterval: cfg.SendInterval,
	})
	go hub.Run()

	// Bind and serve the raw TCP side
	tcpServer := server.New(cfg, hub)
	if err := tcpServer.Listen(); err != nil {
		logx.Fatal(err, "TCP server failed to bind")
	}
	go tcpServer.Serve()

	// Setup the HTTP gateway
	router := handler.Router(hub, cfg)

	gatewayAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	gateway := &http.Server{
		Addr:         gatewayAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Relay hub gateway starting on http://localhost%s", gatewayAddr))
		if err := gateway.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Gateway failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Gateway forced to shutdown")
	}

	tcpServer.Shutdown()

	logx.Info("Server gracefully stopped.")
}
