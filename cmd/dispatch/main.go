// Command dispatch runs a single reminder cycle and prints the JSON report
// the cron endpoint would have returned. It is meant for system cron or a
// Kubernetes CronJob where calling the HTTP endpoint is inconvenient.
//
//	dispatch            run now
//	dispatch -at 09:15  run as if the local wall clock read 09:15 today
//
// The exit code is 1 only when the run itself fails; skipped runs exit 0.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sakif/grindboard/internal/config"
	"github.com/sakif/grindboard/internal/handler"
	"github.com/sakif/grindboard/internal/server"
)

func main() {
	at := flag.String("at", "", "pretend local time HH:MM (today)")
	flag.Parse()

	if err := run(*at); err != nil {
		fmt.Fprintln(os.Stderr, "dispatch:", err)
		os.Exit(1)
	}
}

func run(at string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout carries the report; logs go to stderr.
	logger := server.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	email, whatsapp := server.NewChannels(cfg, logger)
	svc := server.NewDispatchService(cfg, store, email, whatsapp, logger)

	if at != "" {
		clock, err := clockAt(at, cfg.Location())
		if err != nil {
			return err
		}
		svc.WithClock(clock)
	}

	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(handler.RunResponse(report))
}

// clockAt returns a clock fixed at hh:mm today in loc.
func clockAt(hhmm string, loc *time.Location) (func() time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return nil, fmt.Errorf("-at must be HH:MM: %w", err)
	}
	now := time.Now().In(loc)
	fixed := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	return func() time.Time { return fixed }, nil
}
