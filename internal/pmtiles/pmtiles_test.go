package pmtiles

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileID(t *testing.T) {
	assert.Equal(t, uint64(0), TileID(0, 0, 0))
	assert.Equal(t, uint64(1), TileID(1, 0, 0))
	assert.Equal(t, uint64(2), TileID(1, 0, 1))
	assert.Equal(t, uint64(3), TileID(1, 1, 1))
	assert.Equal(t, uint64(4), TileID(1, 1, 0))
	assert.Equal(t, uint64(5), TileID(2, 0, 0))
}

func TestWriteHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tiles := []Tile{
		{Z: 1, X: 1, Y: 0, Data: []byte("bbbb")},
		{Z: 0, X: 0, Y: 0, Data: []byte("aa")},
	}
	meta := Metadata{Name: "fields", MinZoom: 0, MaxZoom: 1, Bounds: [4]float64{-10, -5, 10, 5}, Layers: []string{"fields"}}
	require.NoError(t, Write(&buf, tiles, meta))

	h, err := ReadHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint64(HeaderLen), h.RootOffset)
	assert.EqualValues(t, 2, h.TileCount)
	assert.Equal(t, uint64(6), h.TileDataLength)
	assert.Equal(t, [4]float64{-10, -5, 10, 5}, h.Bounds)
	assert.Equal(t, [2]float64{0, 0}, h.Center)

	// tiles are clustered by ID, so z0 data comes first
	data := buf.Bytes()[h.TileDataOffset:]
	assert.Equal(t, "aabbbb", string(data))
}

func TestWriteRejectsEmpty(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, nil, Metadata{}))
}

func TestReadHeaderErrors(t *testing.T) {
	_, err := ReadHeader([]byte("short"))
	assert.Error(t, err)
	_, err = ReadHeader(make([]byte, HeaderLen))
	assert.Error(t, err)
}
