// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/lumen/asset"
)

var (
	testBlob1 = []byte("idunvovkjnreovmegihjbrqlkmfrjnb")
	testBlob2 = []byte("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb")
)

func buildTestBundle(t *testing.T) []byte {
	t.Helper()
	builder := asset.NewBuilder(asset.Index{
		Author:    "devblok",
		CreatedAt: time.Now().Unix(),
	})
	require.NoError(t, builder.Add("test", testBlob1))
	require.NoError(t, builder.Add("test2", testBlob2))

	var buf bytes.Buffer
	written, err := builder.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), written)
	return buf.Bytes()
}

func TestCreateAndReadAll(t *testing.T) {
	bundle := buildTestBundle(t)

	ar, err := asset.Open(bytes.NewReader(bundle))
	require.NoError(t, err)

	got, err := ar.ReadAll("test")
	require.NoError(t, err)
	assert.Equal(t, testBlob1, got)

	got, err = ar.ReadAll("test2")
	require.NoError(t, err)
	assert.Equal(t, testBlob2, got)
}

func TestCreateAndStream(t *testing.T) {
	bundle := buildTestBundle(t)

	ar, err := asset.Open(bytes.NewReader(bundle))
	require.NoError(t, err)

	r, err := ar.Open("test2")
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, testBlob2, got)
}

func TestMissingEntry(t *testing.T) {
	bundle := buildTestBundle(t)

	ar, err := asset.Open(bytes.NewReader(bundle))
	require.NoError(t, err)

	_, err = ar.ReadAll("nope")
	require.ErrorIs(t, err, asset.ErrNotFound)
}

func TestNotABundle(t *testing.T) {
	_, err := asset.Open(bytes.NewReader([]byte("definitely not a bundle at all")))
	require.ErrorIs(t, err, asset.ErrFileFormat)
}

func TestOpenFileMapsBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lma")
	require.NoError(t, os.WriteFile(path, buildTestBundle(t), 0o644))

	ar, err := asset.OpenFile(path)
	require.NoError(t, err)
	defer ar.Close()

	got, err := ar.ReadAll("test")
	require.NoError(t, err)
	assert.Equal(t, testBlob1, got)
	assert.Len(t, ar.Index().Entries, 2)
}
