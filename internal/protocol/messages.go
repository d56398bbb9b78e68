package protocol

import (
	"github.com/go-gl/mathgl/mgl32"

	"quanta.gg/internal/gpu"
)

// ClientMessage is the tagged union crossing the render/worker boundary.
// Exactly two shapes exist on the wire; anything else is a protocol
// violation and fatal to the receiver.
type ClientMessage interface{ clientMessage() }

// PlayerMove (render -> worker): the camera position sampled this frame.
type PlayerMove struct {
	Pos mgl32.Vec3
}

// Submit (worker -> render): a rebuilt spatial index ready to upload. Cmd
// transfers ownership; the render thread executes it under its fence
// barrier and then adopts Origin and RootSize in lockstep.
type Submit struct {
	Cmd      *gpu.CommandBuffer
	Origin   mgl32.Vec3
	RootSize float32
}

func (PlayerMove) clientMessage() {}
func (Submit) clientMessage()     {}
