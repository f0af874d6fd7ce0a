// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/lumen/asset"
	"github.com/devblok/lumen/core"
)

func writeShader(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func writeCompressedShader(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()

	w := lz4.NewWriter(f)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestLoadShaderDirectory(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "tri.vert.spv", []byte("vertex-binary"))
	writeShader(t, dir, "tri.frag.spv", []byte("fragment-binary"))
	writeShader(t, dir, "notes.txt", []byte("ignored"))

	vert, frag, err := core.LoadShaderDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, []byte("vertex-binary"), vert)
	assert.Equal(t, []byte("fragment-binary"), frag)
}

func TestLoadShaderDirectoryDecompresses(t *testing.T) {
	dir := t.TempDir()
	writeCompressedShader(t, dir, "tri.vert.spv.lz4", []byte("vertex-binary"))
	writeShader(t, dir, "tri.frag.spv", []byte("fragment-binary"))

	vert, frag, err := core.LoadShaderDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, []byte("vertex-binary"), vert)
	assert.Equal(t, []byte("fragment-binary"), frag)
}

func TestLoadShaderDirectoryMissingStage(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "tri.vert.spv", []byte("vertex-binary"))

	_, _, err := core.LoadShaderDirectory(dir)
	require.ErrorIs(t, err, core.ErrShaderNotFound)
}

func TestLoadShaderBundle(t *testing.T) {
	builder := asset.NewBuilder(asset.Index{Author: "devblok"})
	require.NoError(t, builder.Add("tri.vert.spv", []byte("vertex-binary")))
	require.NoError(t, builder.Add("tri.frag.spv", []byte("fragment-binary")))
	require.NoError(t, builder.Add("readme.md", []byte("ignored")))

	path := filepath.Join(t.TempDir(), "shaders.lma")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = builder.WriteTo(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	vert, frag, err := core.LoadShaderBundle(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("vertex-binary"), vert)
	assert.Equal(t, []byte("fragment-binary"), frag)
}

func TestLoadShaderBundleMissingStage(t *testing.T) {
	builder := asset.NewBuilder(asset.Index{Author: "devblok"})
	require.NoError(t, builder.Add("tri.vert.spv", []byte("vertex-binary")))

	path := filepath.Join(t.TempDir(), "shaders.lma")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = builder.WriteTo(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, _, err = core.LoadShaderBundle(path)
	require.ErrorIs(t, err, core.ErrShaderNotFound)
}

func TestSliceUint32(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}
	out := core.SliceUint32(data)
	require.Len(t, out, 2)
	assert.Equal(t, uint32(1), out[0])
	assert.Equal(t, uint32(2), out[1])
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}
