// Command campusnet runs the campus network client: it wires the remote
// service clients, the state layer, and an interactive shell, optionally
// hosting the embedded development backend first.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"campusnet/internal/app"
	"campusnet/internal/config"
	"campusnet/internal/devserver"
	"campusnet/internal/drafts"
	"campusnet/internal/gen"
	"campusnet/internal/observability"
	"campusnet/internal/remote"
	"campusnet/internal/seed"
	"campusnet/internal/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "campusnet",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TraceExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TraceSample,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	var dev *devserver.Server
	if cfg.DevServer {
		dev, err = devserver.NewServer(cfg)
		if err != nil {
			log.Fatalf("Failed to start dev backend: %v", err)
		}
		if cfg.DevSeed {
			if err := seed.Seed(dev.DB(), cfg.DevSeedFile); err != nil {
				log.Fatalf("Failed to seed dev backend: %v", err)
			}
		}
		go func() {
			if err := dev.Start(); err != nil {
				log.Printf("Dev backend stopped: %v", err)
			}
		}()
	}

	gate := session.NewGate()
	tokenSource := remote.TokenSource(func() string {
		if s := gate.Current(); s != nil {
			return s.AccessToken
		}
		return ""
	})

	data := remote.NewClient(cfg.ServiceURL, cfg.ServiceKey, tokenSource)
	storage := remote.NewStorageClient(cfg.ServiceURL, cfg.ServiceKey, tokenSource)
	auth := remote.NewAuthClient(cfg.ServiceURL, cfg.ServiceKey, tokenSource)

	genCache := gen.NewCache(cfg.RedisURL, time.Duration(cfg.GenCacheTTL)*time.Second)
	defer genCache.Close()
	genService := gen.NewService(gen.NewHTTPGenerator(cfg.ServiceURL, cfg.GenAPIKey), genCache)

	draftStore, err := drafts.Open(cfg.DraftDBPath)
	if err != nil {
		log.Printf("Draft store unavailable: %v (drafts disabled)", err)
		draftStore = nil
	}

	controller := app.NewController(data, storage, gate, app.Options{
		Auth:   auth,
		Gen:    genService,
		Drafts: draftStore,
		Bucket: cfg.MediaBucket,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Realtime subscription starts on the first sign-in and reconnects on its
	// own for the life of the process.
	subscriber := remote.NewSubscriber(cfg.ServiceURL, tokenSource, func(ev remote.ChangeEvent) {
		controller.HandleChange(ctx, ev)
	})
	var subscribeOnce sync.Once
	gate.OnChange(func(s *session.Session) {
		if s != nil {
			subscribeOnce.Do(func() {
				go subscriber.Run(ctx)
			})
		}
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if dev != nil {
			if err := dev.Shutdown(shutdownCtx); err != nil {
				log.Printf("Dev backend shutdown error: %v", err)
			}
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	runShell(ctx, controller)
}
