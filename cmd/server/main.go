// Package main is the grindboard HTTP server.
//
// main stays small: load config, build the logger and the store, hand
// everything to internal/server and block until shutdown.
//
//	grindboard                       serve
//	grindboard hash-password <pw>    print a bcrypt hash for ADMIN_PASSWORD_HASH
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/grindboard/internal/auth"
	"github.com/sakif/grindboard/internal/config"
	"github.com/sakif/grindboard/internal/server"
)

func main() {
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := auth.NewPasswordService().Hash(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := server.NewLogger(cfg, os.Stdout)

	store, err := server.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	email, whatsapp := server.NewChannels(cfg, logger)
	dispatcher := server.NewDispatchService(cfg, store, email, whatsapp, logger)

	srv, err := server.New(cfg, store, dispatcher, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
