// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package asset implements the lumen asset bundle, an lz4 backed container
// for compiled shaders and other static resources. The bundle itself is not
// compressed; every entry is compressed individually and the index knows
// where each one lives, so entries can be memory mapped and decompressed on
// the fly without scanning the file. Bundles are safe for concurrent reads.
package asset

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a lumen asset bundle")
	ErrNotFound   = errors.New("no entry with that name in the bundle")
)

// Preamble layout: a four byte magic followed by the encoded index length.
const (
	magicLength     = 4
	indexSizeLength = 8
	preambleLength  = magicLength + indexSizeLength
	formatVersion   = 1
)

var magic = [magicLength]byte{'L', 'M', 'A', '\x00'}

// IndexEntry locates one compressed entry in the bundle. Offset is relative
// to the end of the index, so the index encoding never shifts the data it
// points at.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Index is the bundle's table of contents.
type Index struct {
	Author    string
	CreatedAt int64
	Version   int64
	Entries   []IndexEntry
}

func int64ToBinary(num int64) []byte {
	buf := make([]byte, indexSizeLength)
	binary.LittleEndian.PutUint64(buf, uint64(num))
	return buf
}

func binaryToInt64(bts []byte) int64 {
	return int64(binary.LittleEndian.Uint64(bts))
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	return gob.NewDecoder(bytes.NewReader(bts)).Decode(obj)
}
