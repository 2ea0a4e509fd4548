package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend-go/internal/bootstrap"
	"portfolio-backend-go/internal/config"
	"portfolio-backend-go/internal/db"
	httpapi "portfolio-backend-go/internal/http"
	"portfolio-backend-go/internal/logging"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/state"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	closeLogs, err := logging.Setup(cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer closeLogs()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, err := db.OpenDocstore(ctx, cfg.Docstore)
	if err != nil {
		log.Fatalf("docstore: %v", err)
	}
	defer docs.Close()

	portfolio := services.NewPortfolio(docs)
	if err := portfolio.EnsureViewStats(ctx); err != nil {
		log.Fatalf("view stats: %v", err)
	}

	store, err := state.NewStore(state.FileSessionRepository{Path: cfg.SessionFile})
	if err != nil {
		log.Printf("session restore: %v", err)
	}

	hub := services.NewHub()
	go hub.Run(ctx)
	unsubscribe := httpapi.ForwardActions(store, hub)
	defer unsubscribe()

	loader := &bootstrap.Loader{
		Source:        portfolio,
		Store:         store,
		TolerateEmpty: cfg.BootstrapTolerateEmpty,
		Notifier: bootstrap.NotifierFunc(func(err error) {
			log.Printf("bootstrap failed: %v", err)
			hub.Broadcast(services.Event{Type: "bootstrap/error", Payload: err.Error()})
		}),
	}
	go func() {
		if err := loader.Run(ctx); err == nil {
			log.Printf("bootstrap ready")
		}
	}()

	server := httpapi.NewServer(cfg, portfolio, store, loader, newMediaStore(cfg.Media), hub)
	tracker := &services.ViewTracker{Portfolio: portfolio}
	server.Analytics = tracker

	go sampleLoop(ctx, hub, cfg)
	go snapshotLoop(ctx, portfolio, time.Duration(cfg.SnapshotIntervalMinutes)*time.Minute)

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	tracker.Wait()
	log.Printf("shutdown complete")
}

func newMediaStore(cfg config.Media) services.MediaStore {
	if cfg.Driver == "cloudinary" {
		return services.CloudinaryStore{
			CloudName:    cfg.CloudinaryCloudName,
			UploadPreset: cfg.CloudinaryUploadPreset,
		}
	}
	return services.LocalMediaStore{BasePath: cfg.StoragePath, PublicBaseURL: cfg.PublicBaseURL}
}

func sampleLoop(ctx context.Context, hub *services.Hub, cfg config.Config) {
	interval := time.Duration(cfg.MetricsSampleSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if hub.Clients() == 0 {
				continue
			}
			hub.Broadcast(services.Event{Type: "system/sample", Payload: services.CaptureSystemSample(cfg.Media.StoragePath)})
		case <-ctx.Done():
			return
		}
	}
}

// snapshotLoop checks on every tick whether the weekly view snapshot is due.
func snapshotLoop(ctx context.Context, portfolio *services.Portfolio, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	check := func() {
		if _, err := portfolio.SnapshotViews(ctx, time.Now()); err != nil {
			log.Printf("view snapshot: %v", err)
		}
	}
	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
