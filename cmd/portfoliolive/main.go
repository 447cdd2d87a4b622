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

	"github.com/carlmjohnson/versioninfo"
	"github.com/cskr/pubsub/v2"
	"github.com/d-led/portfoliolive"
)

// limits the amount of buffered events per subscriber
const pubSubChannelCapacity = 1024
const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := portfoliolive.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logFile, err := portfoliolive.SetupLogging(cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	if cfg.TranspileOnly {
		if err := portfoliolive.Refresh(); err != nil {
			log.Fatalf("transpile failed: %v", err)
		}
		log.Println("exiting")
		return
	}

	eventPublisher := pubsub.New[string, portfoliolive.Event](pubSubChannelCapacity)
	publisher := portfoliolive.NewPubSubPublisher(eventPublisher)

	if !portfoliolive.DoEmbed {
		if err := portfoliolive.Refresh(); err != nil {
			log.Printf("could not refresh the UI, serving what is in dist: %v", err)
		}
		if watcher, err := portfoliolive.StartWatching(publisher); err != nil {
			log.Printf("not watching the UI sources: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	if !versioninfo.DirtyBuild {
		log.Println("Revision:", versioninfo.Revision)
	}
	log.Printf("Running in region %s as %s", portfoliolive.Region(), portfoliolive.Instance())

	records := portfoliolive.OpenRecordStore(cfg)
	counter := portfoliolive.NewCounterStore(records)
	sessions := portfoliolive.NewSessionRegistry(records, cfg.SessionTTL)
	tracker := portfoliolive.NewVisitTracker(counter, sessions, publisher)
	broadcaster := portfoliolive.NewBroadcaster(counter)

	listener := portfoliolive.NewCountListener(eventPublisher, broadcaster)
	listener.Start()
	sweeper := portfoliolive.NewSessionSweeper(sessions, cfg.SweepInterval, publisher)
	sweeper.Start()

	rate, err := cfg.Rate()
	if err != nil {
		log.Fatalf("Invalid rate limit: %v", err)
	}
	server := portfoliolive.NewServerWithOptions(
		cfg.Port,
		eventPublisher,
		tracker,
		broadcaster,
		portfoliolive.GetFS(),
		rate,
	)
	go func() {
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	sweeper.Stop()
	listener.Stop()
	eventPublisher.Shutdown()
	if err := records.Close(); err != nil {
		log.Printf("Closing storage: %v", err)
	}
	log.Printf("Stopped at visitor count %d", counter.Get())
}
