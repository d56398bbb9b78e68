// Package client is the render-thread side of the viewer: it owns the
// window, pipeline and camera, drives one draw per iteration and applies
// worker updates under the fence barrier.
package client

import (
	"log"
	"math"

	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl32"

	"quanta.gg/internal/camera"
	"quanta.gg/internal/event"
	"quanta.gg/internal/gpu"
	"quanta.gg/internal/protocol"
	"quanta.gg/internal/world"
)

var clearColor = [4]float32{0, 0, 0, 1}

// Draw geometry is implicit: four strip vertices, one instance, the
// fragment shader ray-marches the whole screen.
const (
	drawVertices  = 4
	drawInstances = 1
)

type Client struct {
	win      gpu.Window
	queue    gpu.Queue
	pipeline gpu.RenderPipeline
	buf      *gpu.IndexBuffer
	cam      *camera.Camera
	events   *event.Queue
	link     *protocol.RenderEnd
	logger   *log.Logger
	fatalf   func(string, ...any)
	clk      clock.Clock

	pending  *gpu.PendingWork
	recreate bool
	origin   mgl32.Vec3
	rootSize float32
	done     bool
	iter     int

	fenceWaits uint64
}

func New(win gpu.Window, pipeline gpu.RenderPipeline, buf *gpu.IndexBuffer, cam *camera.Camera, events *event.Queue, link *protocol.RenderEnd, logger *log.Logger) *Client {
	c := &Client{
		win:      win,
		queue:    win.Queue(),
		pipeline: pipeline,
		buf:      buf,
		cam:      cam,
		events:   events,
		link:     link,
		logger:   logger,
		fatalf:   logger.Fatalf,
		clk:      clock.New(),
		pending:  gpu.Now(),
	}
	c.origin = modOrigin(cam.Pos())
	return c
}

// Run drives the frame loop until a quit event or a fatal condition.
func (c *Client) Run() {
	last := c.clk.Now()
	for !c.done {
		now := c.clk.Now()
		delta := now.Sub(last).Seconds()
		last = now
		c.iterate(delta)
	}
	c.link.Close()
}

// iterate is one frame of the loop; the step order is load-bearing, see
// the per-step comments.
func (c *Client) iterate(delta float64) {
	// Throughput diagnostic every 30 frames.
	c.iter = (c.iter + 1) % 30
	if c.iter == 0 {
		w, h := c.win.Size()
		if delta > 0 {
			c.logger.Printf("main loop at %.1f Mpixels/s", float64(w*h)/delta/1e6)
		}
		c.logger.Printf("camera at %v", c.cam.Pos())
	}

	c.pending.ReclaimCompleted()

	if c.recreate {
		if !c.win.Recreate() {
			// Try again next iteration.
			return
		}
		c.recreate = false
	}

	frame, err := c.win.Frame()
	if err != nil {
		switch gpu.AcquireOutcome(err) {
		case gpu.OutcomeSkipRecreate:
			c.recreate = true
		default:
			c.abort("acquire frame: %v", err)
		}
		return
	}

	pc := c.cam.Push(c.origin, c.rootSize)
	cb := gpu.NewCommandBuffer().
		Begin(frame.Target, clearColor).
		Bind(c.pipeline, c.buf).
		Draw(drawVertices, drawInstances, pc).
		End()

	next, err := c.pending.Join(gpu.FromFence(frame.Acquire)).ExecuteThen(c.queue, cb)
	if err == nil {
		err = c.win.Present(frame, next.SignalAndFlush())
	}
	switch gpu.SubmitOutcome(err) {
	case gpu.OutcomeOK:
		c.pending = next
	case gpu.OutcomeSkipRecreate:
		c.recreate = true
		c.pending = gpu.Now()
	case gpu.OutcomeLogReset:
		// Probably not a big deal; drop the frame and keep going.
		c.logger.Printf("frame submit: %v", err)
		c.pending = gpu.Now()
	}

	// Exactly one position report per iteration that gets this far. A send
	// failure means the worker is gone, and that is unrecoverable.
	if err := c.link.Send(protocol.PlayerMove{Pos: c.cam.Pos()}); err != nil {
		c.abort("send player move: %v", err)
		return
	}

	if m, ok := c.link.TryRecv(); ok {
		sub, isSubmit := m.(protocol.Submit)
		if !isSubmit {
			c.abort("unexpected message from world: %T", m)
			return
		}
		c.applySubmit(sub)
	}

	c.win.Update()
	c.cam.Update(delta)
	c.events.Poll(func(ev event.Event) {
		c.cam.Process(ev)
		switch ev.(type) {
		case event.Resize:
			c.recreate = true
		case event.Quit:
			c.done = true
		}
	})
}

// applySubmit runs the two-wait barrier: drain every outstanding draw,
// execute the worker's upload, then drain that too before any later draw
// can sample the buffer. Update frames pay a full pipeline stall for an
// unconditional no-tear guarantee.
func (c *Client) applySubmit(s protocol.Submit) {
	if err := c.pending.Wait(0); err != nil {
		c.logger.Printf("pre-upload flush: %v", err)
	}
	c.fenceWaits++

	upload, err := gpu.Now().ExecuteThen(c.queue, s.Cmd)
	if err != nil {
		// Keep the old index contents; origin and root size stay in
		// lockstep with whatever the buffer actually holds.
		c.logger.Printf("index upload: %v", err)
		c.pending = gpu.Now()
		return
	}
	if err := upload.Wait(0); err != nil {
		c.logger.Printf("post-upload flush: %v", err)
	}
	c.fenceWaits++

	c.origin = s.Origin
	c.rootSize = s.RootSize
	c.pending = gpu.Now()
}

// abort reports a fatal condition. The injected fatalf normally exits the
// process; tests substitute one that records, so the loop flag stops us.
func (c *Client) abort(format string, args ...any) {
	c.done = true
	c.fatalf(format, args...)
}

func modOrigin(p mgl32.Vec3) mgl32.Vec3 {
	mod := func(v float32) float32 {
		return float32(math.Mod(float64(v), world.ChunkSize))
	}
	return mgl32.Vec3{mod(p.X()), mod(p.Y()), mod(p.Z())}
}
