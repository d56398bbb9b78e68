package gpu

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrStaleSurface means the presentable surface no longer matches the
	// window (resize, occlusion). Recoverable: recreate and retry.
	ErrStaleSurface = errors.New("gpu: stale surface")

	ErrFenceTimeout = errors.New("gpu: fence wait timed out")

	ErrQueueClosed = errors.New("gpu: queue closed")
)

// PushConstants is the per-draw parameter block handed to the pipeline.
type PushConstants struct {
	Origin   mgl32.Vec3
	RootSize float32
}

// RenderTarget is an opaque framebuffer handle owned by the backend.
type RenderTarget interface {
	TargetSize() (int, int)
}

// Frame is one acquired presentable image. Acquire signals when the image
// is ready to be rendered to.
type Frame struct {
	Index   int
	Acquire Fence
	Target  RenderTarget
}

// RenderPipeline is the fixed graphics pipeline capability: triangle strip,
// bufferless vertices, one bound storage buffer, one push-constant block.
// Backend generics stay behind this interface.
type RenderPipeline interface {
	Draw(target RenderTarget, storage *IndexBuffer, pc PushConstants, vertices, instances int) error
}

// Queue schedules recorded command buffers on the device. Execute returns a
// fence for the completion of cb; cb runs only after every fence in after
// has signaled. Queues preserve submission order.
type Queue interface {
	Execute(cb *CommandBuffer, after ...Fence) (Fence, error)
}

// Window is the swapchain-owning surface the orchestrator draws to.
// Platform setup lives behind this interface.
type Window interface {
	Size() (int, int)
	Frame() (*Frame, error)
	Present(f *Frame, after Fence) error
	Recreate() bool
	Update()
	Queue() Queue
}
