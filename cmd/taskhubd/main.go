// Package main is the entry point for the taskhubd server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskhub/internal/logger"
	"taskhub/internal/server"
	"taskhub/internal/server/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStderr(logger.ParseLevel(cfg.LogLevel))

	st, err := store.Open(cfg.Database)
	if err != nil {
		log.Error("failed to open database", "path", cfg.Database, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := server.New(cfg, st, log).Run(ctx); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
