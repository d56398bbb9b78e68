package world

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"quanta.gg/internal/gpu"
	"quanta.gg/internal/protocol"
)

// State is the worker's rebuild state machine.
type State int

const (
	// Idle: tracking the player, no rebuild in progress.
	Idle State = iota
	// Building: constructing the upload command, origin and root size.
	Building
	// ReadyToSubmit: one Submit staged, waiting to hand it over.
	ReadyToSubmit
)

type Config struct {
	// Radius is the loaded-chunk radius around the player, in chunks.
	Radius int
	// RebuildDistance is how far the player moves, in world units, before
	// the octree is rebuilt around the new position.
	RebuildDistance float32
	// PollInterval paces the state machine when no messages arrive.
	PollInterval time.Duration
}

func (c *Config) normalize() {
	if c.Radius <= 0 {
		c.Radius = 2
	}
	if c.RebuildDistance <= 0 {
		c.RebuildDistance = ChunkSize / 2
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
}

// ClientWorld owns the authoritative spatial state and the network
// connection. It runs on its own goroutine and talks to the render thread
// only through the link.
type ClientWorld struct {
	cfg    Config
	link   *protocol.WorkerEnd
	buf    *gpu.IndexBuffer
	store  *Store
	logger *log.Logger
	fatalf func(string, ...any)

	state     State
	pos       mgl32.Vec3
	haveBuilt bool
	builtAt   mgl32.Vec3
	staged    *protocol.Submit
}

func New(cfg Config, link *protocol.WorkerEnd, buf *gpu.IndexBuffer, store *Store, logger *log.Logger) *ClientWorld {
	cfg.normalize()
	return &ClientWorld{
		cfg:    cfg,
		link:   link,
		buf:    buf,
		store:  store,
		logger: logger,
		fatalf: logger.Fatalf,
	}
}

func (w *ClientWorld) State() State { return w.state }

// Run drives the worker until ctx is cancelled. On return the outbound
// queue is closed, so the render thread's next send fails fast instead of
// feeding a dead peer.
func (w *ClientWorld) Run(ctx context.Context) error {
	defer w.link.Close()
	if w.store.conn != nil {
		defer w.store.conn.Close()
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.link.Ready():
			w.drain()
		case <-ticker.C:
			w.drain()
			w.step(ctx)
		}
	}
}

// drain consumes every queued message. PlayerMove only updates the
// reference position; it never triggers a rebuild by itself.
func (w *ClientWorld) drain() {
	for {
		m, ok := w.link.TryRecv()
		if !ok {
			return
		}
		switch msg := m.(type) {
		case protocol.PlayerMove:
			w.pos = msg.Pos
		default:
			w.fatalf("world: unexpected message %T from render thread", m)
			return
		}
	}
}

// step advances the state machine one transition at most.
func (w *ClientWorld) step(ctx context.Context) {
	switch w.state {
	case Idle:
		// A staged update must be consumed before a new build may begin.
		if w.needsRebuild() && w.link.OutboxDrained() {
			w.state = Building
		}
	case Building:
		if err := w.build(ctx); err != nil {
			w.logger.Printf("world: rebuild: %v", err)
			w.state = Idle
			return
		}
		w.state = ReadyToSubmit
	case ReadyToSubmit:
		if err := w.link.Send(*w.staged); err != nil {
			// Render thread is gone; nothing left to serve.
			w.logger.Printf("world: submit: %v", err)
			return
		}
		w.staged = nil
		w.state = Idle
	}
}

func (w *ClientWorld) needsRebuild() bool {
	if !w.haveBuilt {
		return true
	}
	return w.pos.Sub(w.builtAt).Len() >= w.cfg.RebuildDistance
}

// build loads the chunk neighborhood around the player, encodes it as a
// sparse octree and stages the Submit carrying the upload command, the new
// origin (player position modulo chunk size) and the new root size.
func (w *ClientWorld) build(ctx context.Context) error {
	pos := w.pos
	center := ChunkCoord{
		X: floorDiv(int(math.Floor(float64(pos.X()))), ChunkSize),
		Y: floorDiv(int(math.Floor(float64(pos.Y()))), ChunkSize),
		Z: floorDiv(int(math.Floor(float64(pos.Z()))), ChunkSize),
	}

	side := regionSide(w.cfg.Radius)
	lo := ChunkCoord{center.X - side/2, center.Y - side/2, center.Z - side/2}

	coords := make([]ChunkCoord, 0, side*side*side)
	for y := 0; y < side; y++ {
		for z := 0; z < side; z++ {
			for x := 0; x < side; x++ {
				coords = append(coords, ChunkCoord{lo.X + x, lo.Y + y, lo.Z + z})
			}
		}
	}
	if err := w.store.Ensure(ctx, coords); err != nil {
		return err
	}
	w.store.Evict(center, side)

	sizeVoxels := side * ChunkSize
	ox, oy, oz := lo.X*ChunkSize, lo.Y*ChunkSize, lo.Z*ChunkSize
	words := BuildOctree(func(x, y, z int) uint16 {
		return w.store.Block(ox+x, oy+y, oz+z)
	}, sizeVoxels)

	cmd := gpu.NewCommandBuffer().Upload(w.buf, words)
	w.staged = &protocol.Submit{
		Cmd:      cmd,
		Origin:   modChunk(pos),
		RootSize: float32(sizeVoxels),
	}
	w.haveBuilt = true
	w.builtAt = pos
	return nil
}

// regionSide is the smallest power-of-two chunk count covering the loaded
// radius, so the octree spans a power-of-two voxel cube.
func regionSide(radius int) int {
	side := 1
	for side < 2*radius+1 {
		side *= 2
	}
	return side
}

// modChunk reduces a position modulo the chunk size per component, keeping
// render-space coordinates numerically local.
func modChunk(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Mod(float64(p.X()), ChunkSize)),
		float32(math.Mod(float64(p.Y()), ChunkSize)),
		float32(math.Mod(float64(p.Z()), ChunkSize)),
	}
}
