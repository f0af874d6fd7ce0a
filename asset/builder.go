// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"bytes"
	"io"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a Builder. Do not fill Entries in the index, the
// builder computes them itself.
func NewBuilder(index Index) *Builder {
	index.Entries = nil
	index.Version = formatVersion
	return &Builder{index: index}
}

type pendingEntry struct {
	name       string
	size       int64
	compressed []byte
}

// Builder assembles a bundle. Bundles are versioned and cannot be appended
// to after writing; the builder is the only way to create one. Add
// compresses each entry up front, WriteTo lays out the index and the data
// section in one pass.
type Builder struct {
	index Index

	mutex   sync.Mutex
	entries []pendingEntry
}

// Add compresses data and queues it under the given name. Blocks until lz4
// finishes; safe to call from multiple goroutines.
func (b *Builder) Add(name string, data []byte) error {
	var compressed bytes.Buffer
	w := lz4.NewWriter(&compressed)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.entries = append(b.entries, pendingEntry{
		name:       name,
		size:       int64(len(data)),
		compressed: compressed.Bytes(),
	})
	return nil
}

// WriteTo writes the finished bundle. Entry offsets are relative to the end
// of the index, so the index can be encoded before the data section without
// a second pass.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	index := b.index
	var offset int64
	for _, e := range b.entries {
		index.Entries = append(index.Entries, IndexEntry{
			Name:           e.name,
			Offset:         offset,
			Size:           e.size,
			CompressedSize: int64(len(e.compressed)),
		})
		offset += int64(len(e.compressed))
	}

	rawIndex, err := gobEncode(index)
	if err != nil {
		return 0, err
	}

	var written int64
	for _, chunk := range [][]byte{magic[:], int64ToBinary(int64(len(rawIndex))), rawIndex} {
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	for _, e := range b.entries {
		n, err := w.Write(e.compressed)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	b.entries = b.entries[:0]
	return written, nil
}
