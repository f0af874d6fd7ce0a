// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"io"

	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// Open reads the bundle index from r and returns an Archive over it. The
// magic is checked first; anything that is not a bundle fails fast with
// ErrFileFormat.
func Open(r io.ReaderAt) (*Archive, error) {
	head := make([]byte, preambleLength)
	if num, err := r.ReadAt(head, 0); err != nil {
		return nil, err
	} else if num < preambleLength {
		return nil, ErrFileFormat
	}
	for i := range magic {
		if head[i] != magic[i] {
			return nil, ErrFileFormat
		}
	}

	indexSize := binaryToInt64(head[magicLength:])
	if indexSize <= 0 {
		return nil, ErrFileFormat
	}

	indexBytes := make([]byte, indexSize)
	if num, err := r.ReadAt(indexBytes, preambleLength); err != nil {
		return nil, err
	} else if int64(num) < indexSize {
		return nil, ErrFileFormat
	}

	var index Index
	if err := gobDecode(&index, indexBytes); err != nil {
		return nil, ErrFileFormat
	}

	return &Archive{
		reader:   r,
		index:    index,
		dataBase: preambleLength + indexSize,
	}, nil
}

// OpenFile memory maps the bundle at path and opens it. The returned
// Archive must be closed to drop the mapping.
func OpenFile(path string) (*Archive, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ar, err := Open(m)
	if err != nil {
		m.Close()
		return nil, err
	}
	ar.closer = m
	return ar, nil
}

// Archive provides concurrent read access to a bundle's entries.
type Archive struct {
	reader   io.ReaderAt
	index    Index
	dataBase int64
	closer   io.Closer
}

// Index returns the bundle's table of contents.
func (a *Archive) Index() Index {
	return a.index
}

func (a *Archive) entry(name string) (IndexEntry, bool) {
	for _, e := range a.index.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// Open returns a streaming reader over the decompressed contents of the
// named entry.
func (a *Archive) Open(name string) (io.Reader, error) {
	e, ok := a.entry(name)
	if !ok {
		return nil, ErrNotFound
	}
	section := io.NewSectionReader(a.reader, a.dataBase+e.Offset, e.CompressedSize)
	return lz4.NewReader(section), nil
}

// ReadAll returns the entire decompressed contents of the named entry.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Close drops the file mapping when the archive owns one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
