// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"encoding/binary"
	"math"
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/lumen/core"
	"github.com/devblok/lumen/gfx"
)

func TestTriangleBytesLayout(t *testing.T) {
	tri := core.Triangle{{-0.5, 0.5}, {-0.5, -0.5}, {0.25, 0.75}}
	buf := tri.Bytes()
	require.Len(t, buf, core.VertexBufferSize)

	for v := 0; v < 3; v++ {
		x := math.Float32frombits(binary.LittleEndian.Uint32(buf[v*core.VertexStride:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(buf[v*core.VertexStride+4:]))
		assert.Equal(t, tri[v].X(), x)
		assert.Equal(t, tri[v].Y(), y)
	}
}

func TestLocalStateTracksPointer(t *testing.T) {
	state := core.LocalState{FrameWidth: 400, FrameHeight: 300}

	pos := glm.Vec2{200, 150}
	state.Update(core.FrameInput{PointerMovedTo: &pos})

	tri := state.Triangle()
	assert.Equal(t, glm.Vec2{-0.5, 0.5}, tri[0])
	assert.Equal(t, glm.Vec2{-0.5, -0.5}, tri[1])
	assert.Equal(t, glm.Vec2{0.5, 0.5}, tri[2])
}

func TestLocalStateTracksResize(t *testing.T) {
	state := core.LocalState{FrameWidth: 400, FrameHeight: 300}

	pos := glm.Vec2{200, 150}
	size := gfx.Extent{Width: 800, Height: 600}
	state.Update(core.FrameInput{PointerMovedTo: &pos, ResizedTo: &size})

	// Same pointer position in a doubled frame lands at half the
	// normalized coordinate.
	tri := state.Triangle()
	assert.Equal(t, glm.Vec2{0.25, 0.25}, tri[2])
}

func TestLocalStateIgnoresEmptyInput(t *testing.T) {
	state := core.LocalState{FrameWidth: 400, FrameHeight: 300, MouseX: 40, MouseY: 30}
	state.Update(core.FrameInput{})
	assert.Equal(t, float32(40), state.MouseX)
	assert.Equal(t, float32(30), state.MouseY)
}
