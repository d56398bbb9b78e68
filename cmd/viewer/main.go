package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quanta.gg/internal/camera"
	"quanta.gg/internal/client"
	"quanta.gg/internal/config"
	"quanta.gg/internal/event"
	"quanta.gg/internal/gpu"
	"quanta.gg/internal/gpu/headless"
	"quanta.gg/internal/persistence/chunkcache"
	"quanta.gg/internal/protocol"
	"quanta.gg/internal/transport/chunkfeed"
	"quanta.gg/internal/world"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to viewer.yaml (optional)")
		server   = flag.String("server", "", "chunk feed ws url (overrides config)")
		cache    = flag.String("cache", "", "chunk cache sqlite path (overrides config)")
		seed     = flag.Int64("seed", 0, "offline world seed (overrides config)")
		duration = flag.Duration("duration", 0, "quit after this long (0 = run until signal)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[viewer] ", log.LstdFlags|log.Lmicroseconds)
	worldLogger := log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*server) != "" {
		cfg.ServerURL = strings.TrimSpace(*server)
	}
	if strings.TrimSpace(*cache) != "" {
		cfg.CachePath = strings.TrimSpace(*cache)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One-time startup resources; any failure here is fatal.
	queue := headless.NewQueue()
	defer queue.Close()
	win := headless.NewWindow(cfg.Window.Width, cfg.Window.Height, queue)
	pipeline := headless.NewPipeline()
	buf := gpu.NewIndexBuffer()
	events := event.NewQueue()
	cam := camera.New(cfg.Camera.Speed, cfg.Camera.Sensitivity)

	var conn world.Connection
	worldSeed := cfg.Seed
	if cfg.ServerURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		feed, err := chunkfeed.Dial(dialCtx, cfg.ServerURL, cfg.ViewerName, world.ChunkSize, worldLogger)
		cancel()
		if err != nil {
			logger.Fatalf("connect chunk feed: %v", err)
		}
		conn = feed
		worldSeed = feed.Seed()
		logger.Printf("chunk feed %s (seed %d)", cfg.ServerURL, worldSeed)
	}

	var cc world.Cache
	if cfg.CachePath != "" {
		store, err := chunkcache.Open(cfg.CachePath, worldSeed)
		if err != nil {
			// The cache only saves refetches; run without it.
			logger.Printf("open chunk cache: %v", err)
		} else {
			defer store.Close()
			cc = store
		}
	}

	renderEnd, workerEnd := protocol.NewLink()
	store := world.NewStore(&world.Generator{Seed: worldSeed}, conn, cc, worldLogger)
	cw := world.New(world.Config{
		Radius:          cfg.ViewRadiusChunks,
		RebuildDistance: cfg.RebuildDistance,
	}, workerEnd, buf, store, worldLogger)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	go func() {
		if err := cw.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			worldLogger.Printf("worker stopped: %v", err)
		}
	}()

	// Headless has no window close button; a signal or the -duration timer
	// feeds the quit event instead.
	go func() {
		<-ctx.Done()
		events.Push(event.Quit{})
	}()
	if *duration > 0 {
		time.AfterFunc(*duration, func() { events.Push(event.Quit{}) })
	}

	client.New(win, pipeline, buf, cam, events, renderEnd, logger).Run()
	cancelWorker()
	logger.Printf("bye")
}
