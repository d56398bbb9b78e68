package gpu

// Op is one recorded command. Backends interpret ops in order.
type Op interface{ isOp() }

type BeginRenderPass struct {
	Target RenderTarget
	Clear  [4]float32
}

type BindPipeline struct {
	Pipeline RenderPipeline
}

type BindStorage struct {
	Buffer *IndexBuffer
}

type DrawOp struct {
	Vertices  int
	Instances int
	Push      PushConstants
}

type EndRenderPass struct{}

// UploadIndex replaces the contents of Dst with Words. Built by the worker,
// executed on the render thread's queue under the two-wait barrier.
type UploadIndex struct {
	Dst   *IndexBuffer
	Words []uint32
}

func (BeginRenderPass) isOp() {}
func (BindPipeline) isOp()    {}
func (BindStorage) isOp()     {}
func (DrawOp) isOp()          {}
func (EndRenderPass) isOp()   {}
func (UploadIndex) isOp()     {}

// CommandBuffer is a one-time-submit recorded command list.
type CommandBuffer struct {
	ops []Op
}

func NewCommandBuffer() *CommandBuffer { return &CommandBuffer{} }

func (c *CommandBuffer) Begin(target RenderTarget, clear [4]float32) *CommandBuffer {
	c.ops = append(c.ops, BeginRenderPass{Target: target, Clear: clear})
	return c
}

func (c *CommandBuffer) Bind(p RenderPipeline, storage *IndexBuffer) *CommandBuffer {
	c.ops = append(c.ops, BindPipeline{Pipeline: p}, BindStorage{Buffer: storage})
	return c
}

func (c *CommandBuffer) Draw(vertices, instances int, pc PushConstants) *CommandBuffer {
	c.ops = append(c.ops, DrawOp{Vertices: vertices, Instances: instances, Push: pc})
	return c
}

func (c *CommandBuffer) End() *CommandBuffer {
	c.ops = append(c.ops, EndRenderPass{})
	return c
}

// Upload records a whole-buffer index upload.
func (c *CommandBuffer) Upload(dst *IndexBuffer, words []uint32) *CommandBuffer {
	c.ops = append(c.ops, UploadIndex{Dst: dst, Words: words})
	return c
}

func (c *CommandBuffer) Ops() []Op { return c.ops }
