// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/pierrec/lz4"

	"github.com/devblok/lumen/asset"
)

const (
	shaderSuffix     = ".spv"
	compressedSuffix = ".spv.lz4"
)

// ErrShaderNotFound is returned when a directory holds no usable pair of
// compiled shader stages.
var ErrShaderNotFound = errors.New("no compiled vertex/fragment shader pair found")

// LoadShaderDirectory walks dir for the compiled shader pair to feed the
// pipeline builder. File names carry the stage before the extension
// (name.vert.spv, name.frag.spv); binaries may additionally be lz4
// compressed (name.vert.spv.lz4) and are decompressed transparently.
// The first file found per stage wins.
func LoadShaderDirectory(dir string) (vert, frag []byte, err error) {
	err = filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			return nil
		}

		stage, ok := shaderStage(f.Name())
		if !ok {
			return nil
		}
		switch stage {
		case VertexShaderType:
			if vert == nil {
				vert, err = loadShaderFile(path)
			}
		case FragmentShaderType:
			if frag == nil {
				frag, err = loadShaderFile(path)
			}
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if vert == nil || frag == nil {
		return nil, nil, ErrShaderNotFound
	}
	return vert, frag, nil
}

// LoadShaderBundle pulls the compiled shader pair out of an asset bundle.
// Entries follow the same naming convention as LoadShaderDirectory
// (name.vert.spv, name.frag.spv); the bundle handles compression itself.
func LoadShaderBundle(path string) (vert, frag []byte, err error) {
	ar, err := asset.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer ar.Close()

	for _, entry := range ar.Index().Entries {
		stage, ok := shaderStage(entry.Name)
		if !ok {
			continue
		}
		switch stage {
		case VertexShaderType:
			if vert == nil {
				if vert, err = ar.ReadAll(entry.Name); err != nil {
					return nil, nil, err
				}
			}
		case FragmentShaderType:
			if frag == nil {
				if frag, err = ar.ReadAll(entry.Name); err != nil {
					return nil, nil, err
				}
			}
		}
	}
	if vert == nil || frag == nil {
		return nil, nil, ErrShaderNotFound
	}
	return vert, frag, nil
}

// shaderStage resolves a shader file name into its pipeline stage.
func shaderStage(name string) (ShaderType, bool) {
	switch {
	case strings.HasSuffix(name, compressedSuffix):
		name = strings.TrimSuffix(name, compressedSuffix)
	case strings.HasSuffix(name, shaderSuffix):
		name = strings.TrimSuffix(name, shaderSuffix)
	default:
		return UnknownShaderType, false
	}

	nodes := strings.Split(name, ".")
	if len(nodes) != 2 {
		return UnknownShaderType, false
	}
	switch nodes[1] {
	case "vert":
		return VertexShaderType, true
	case "frag":
		return FragmentShaderType, true
	}
	return UnknownShaderType, false
}

func loadShaderFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(path, compressedSuffix) {
		return io.ReadAll(lz4.NewReader(f))
	}
	return io.ReadAll(f)
}

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}

// SliceUint32 reslices bytes into a uint32 slice, that is used
// to submit shader binaries for processing.
func SliceUint32(data []byte) []uint32 {
	const m = 0x7fffffff
	return (*[m / 4]uint32)(unsafe.Pointer((*sliceHeader)(unsafe.Pointer(&data)).Data))[:len(data)/4]
}
