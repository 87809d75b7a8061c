package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"pricewatch/service"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	// The reload interval is validated by loadConfig.
	reloadInterval, _ := time.ParseDuration(cfg.ReloadInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcherCfg := service.WatcherConfig{
		FeedPath:         cfg.FeedPath,
		Timezone:         cfg.Timezone,
		CutoffHour:       cfg.CutoffHour,
		ReloadInterval:   reloadInterval,
		DatabaseEndpoint: cfg.DatabaseEndpoint,
		DatabaseUser:     cfg.DatabaseUser,
		DatabasePass:     cfg.DatabasePass,
		Cancel:           cancel,
	}
	watcher, err := service.NewWatcher(ctx, &watcherCfg)
	if err != nil {
		log.Printf("creating price watcher service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	watcher.Run(ctx)
}
