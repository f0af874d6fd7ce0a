// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"encoding/binary"
	"math"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/lumen/gfx"
)

// VertexStride is the byte stride of one vertex: a two-component float32
// position.
const VertexStride = 8

// VertexBufferSize is the exact size of the triangle vertex buffer.
const VertexBufferSize = VertexStride * 3

// Triangle is the three vertex positions of the single hard-coded triangle,
// in the vertex shader's input coordinate space.
type Triangle [3]glm.Vec2

// Bytes serializes the vertex positions in buffer layout order:
// x,y per vertex, float32 little-endian.
func (t Triangle) Bytes() []byte {
	buf := make([]byte, 0, VertexBufferSize)
	for _, v := range t {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.X()))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.Y()))
	}
	return buf
}

// FrameInput is what the windowing collaborator delivers once per poll.
type FrameInput struct {
	CloseRequested bool
	ResizedTo      *gfx.Extent
	PointerMovedTo *glm.Vec2
}

// LocalState is the small cross-frame state the render loop carries:
// the last known frame size and pointer position.
type LocalState struct {
	FrameWidth  float32
	FrameHeight float32
	MouseX      float32
	MouseY      float32
}

// Update folds one poll result into the state.
func (s *LocalState) Update(input FrameInput) {
	if input.ResizedTo != nil {
		s.FrameWidth = float32(input.ResizedTo.Width)
		s.FrameHeight = float32(input.ResizedTo.Height)
	}
	if input.PointerMovedTo != nil {
		s.MouseX = input.PointerMovedTo.X()
		s.MouseY = input.PointerMovedTo.Y()
	}
}

// Triangle returns the frame's triangle: two fixed vertices and a third
// that tracks the pointer at its frame-normalized position.
func (s *LocalState) Triangle() Triangle {
	x := s.MouseX / s.FrameWidth
	y := s.MouseY / s.FrameHeight
	return Triangle{
		{-0.5, 0.5},
		{-0.5, -0.5},
		{x, y},
	}
}
