// Package pmtiles writes single-directory PMTiles v3 archives of gzipped MVT
// tiles.
//
// Only the writer side of the format is implemented, with no leaf
// directories, which limits an archive to what fits in the root directory.
// Spec: https://github.com/protomaps/PMTiles/blob/main/spec/v3/spec.md
package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// Compression is the compression algorithm applied to tiles and directories.
type Compression uint8

const (
	NoCompression Compression = 1
	Gzip          Compression = 2
)

// TileType is the format of individual tile contents.
type TileType uint8

const Mvt TileType = 1

const (
	// HeaderLen is the fixed size of the binary header.
	HeaderLen = 127
	// maxRootLen is the space the format reserves for header plus root directory.
	maxRootLen = 16384 - HeaderLen
)

// ErrTooManyTiles is returned when the directory does not fit the root.
var ErrTooManyTiles = errors.New("pmtiles: root directory exceeds 16 KiB")

// Tile is one encoded tile at z/x/y.
type Tile struct {
	Z    uint8
	X, Y uint32
	Data []byte
}

// Metadata describes the archive for header and JSON metadata.
type Metadata struct {
	Name             string
	MinZoom, MaxZoom uint8
	// Bounds in degrees: min lng, min lat, max lng, max lat.
	Bounds     [4]float64
	CenterZoom uint8
	Layers     []string
}

// Header is the decoded fixed header of an archive.
type Header struct {
	Version        uint8
	RootOffset     uint64
	RootLength     uint64
	MetadataOffset uint64
	MetadataLength uint64
	TileDataOffset uint64
	TileDataLength uint64
	TileCount      uint64
	Clustered      bool
	TileType       TileType
	MinZoom        uint8
	MaxZoom        uint8
	Bounds         [4]float64
	Center         [2]float64
	CenterZoom     uint8
}

type entry struct {
	id     uint64
	offset uint64
	length uint32
}

// TileID converts z/x/y to the Hilbert tile ID used to cluster archives.
func TileID(z uint8, x, y uint32) uint64 {
	if z == 0 {
		return 0
	}
	acc := (uint64(1)<<(2*uint(z)) - 1) / 3
	for s := uint32(1) << (z - 1); s > 0; s >>= 1 {
		rx := s & x
		ry := s & y
		acc += uint64((3*rx)^ry) * uint64(s)
		if ry == 0 {
			if rx != 0 {
				x = s - 1 - x
				y = s - 1 - y
			}
			x, y = y, x
		}
	}
	return acc
}

// Write encodes tiles into an archive on w. Tiles are sorted by tile ID, so
// the archive is clustered regardless of input order.
func Write(w io.Writer, tiles []Tile, meta Metadata) error {
	if len(tiles) == 0 {
		return errors.New("pmtiles: no tiles to write")
	}

	sorted := make([]Tile, len(tiles))
	copy(sorted, tiles)
	sort.Slice(sorted, func(i, j int) bool {
		return TileID(sorted[i].Z, sorted[i].X, sorted[i].Y) < TileID(sorted[j].Z, sorted[j].X, sorted[j].Y)
	})

	var data bytes.Buffer
	entries := make([]entry, 0, len(sorted))
	for _, t := range sorted {
		entries = append(entries, entry{
			id:     TileID(t.Z, t.X, t.Y),
			offset: uint64(data.Len()),
			length: uint32(len(t.Data)),
		})
		data.Write(t.Data)
	}

	root, err := encodeDirectory(entries)
	if err != nil {
		return err
	}
	if len(root) > maxRootLen {
		return ErrTooManyTiles
	}

	metaJSON, err := json.Marshal(map[string]any{
		"name":           meta.Name,
		"format":         "pbf",
		"compression":    "gzip",
		"minzoom":        meta.MinZoom,
		"maxzoom":        meta.MaxZoom,
		"vector_layers":  vectorLayers(meta.Layers),
		"generator_name": "agromind",
	})
	if err != nil {
		return fmt.Errorf("pmtiles: metadata: %w", err)
	}
	metaGz, err := gzipBytes(metaJSON)
	if err != nil {
		return err
	}

	h := Header{
		Version:        3,
		RootOffset:     HeaderLen,
		RootLength:     uint64(len(root)),
		MetadataOffset: HeaderLen + uint64(len(root)),
		MetadataLength: uint64(len(metaGz)),
		TileCount:      uint64(len(entries)),
		Clustered:      true,
		TileType:       Mvt,
		MinZoom:        meta.MinZoom,
		MaxZoom:        meta.MaxZoom,
		Bounds:         meta.Bounds,
		Center:         [2]float64{(meta.Bounds[0] + meta.Bounds[2]) / 2, (meta.Bounds[1] + meta.Bounds[3]) / 2},
		CenterZoom:     meta.CenterZoom,
	}
	h.TileDataOffset = h.MetadataOffset + h.MetadataLength
	h.TileDataLength = uint64(data.Len())

	for _, part := range [][]byte{encodeHeader(h), root, metaGz, data.Bytes()} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}

func vectorLayers(names []string) []map[string]any {
	out := make([]map[string]any, 0, len(names))
	for _, n := range names {
		out = append(out, map[string]any{"id": n, "fields": map[string]string{}})
	}
	return out
}

func e7(deg float64) uint32 { return uint32(int32(math.Round(deg * 1e7))) }

func encodeHeader(h Header) []byte {
	b := make([]byte, HeaderLen)
	copy(b, "PMTiles")
	b[7] = h.Version
	le := binary.LittleEndian
	for i, v := range []uint64{
		h.RootOffset, h.RootLength,
		h.MetadataOffset, h.MetadataLength,
		0, 0, // leaf directories
		h.TileDataOffset, h.TileDataLength,
		h.TileCount, h.TileCount, h.TileCount,
	} {
		le.PutUint64(b[8+8*i:], v)
	}
	if h.Clustered {
		b[96] = 1
	}
	b[97] = uint8(Gzip)
	b[98] = uint8(Gzip)
	b[99] = uint8(h.TileType)
	b[100] = h.MinZoom
	b[101] = h.MaxZoom
	for i, deg := range h.Bounds {
		le.PutUint32(b[102+4*i:], e7(deg))
	}
	b[118] = h.CenterZoom
	le.PutUint32(b[119:], e7(h.Center[0]))
	le.PutUint32(b[123:], e7(h.Center[1]))
	return b
}

// ReadHeader decodes the fixed header at the start of an archive.
func ReadHeader(d []byte) (Header, error) {
	if len(d) < HeaderLen {
		return Header{}, errors.New("pmtiles: buffer too small for header")
	}
	if string(d[:7]) != "PMTiles" {
		return Header{}, errors.New("pmtiles: magic number not detected")
	}
	le := binary.LittleEndian
	u64 := func(i int) uint64 { return le.Uint64(d[8+8*i:]) }
	deg := func(off int) float64 { return float64(int32(le.Uint32(d[off:]))) / 1e7 }

	h := Header{
		Version:        d[7],
		RootOffset:     u64(0),
		RootLength:     u64(1),
		MetadataOffset: u64(2),
		MetadataLength: u64(3),
		TileDataOffset: u64(6),
		TileDataLength: u64(7),
		TileCount:      u64(8),
		Clustered:      d[96] == 1,
		TileType:       TileType(d[99]),
		MinZoom:        d[100],
		MaxZoom:        d[101],
		CenterZoom:     d[118],
	}
	for i := range h.Bounds {
		h.Bounds[i] = deg(102 + 4*i)
	}
	h.Center = [2]float64{deg(119), deg(123)}
	return h, nil
}

// encodeDirectory writes the columnar varint directory, gzipped.
func encodeDirectory(entries []entry) ([]byte, error) {
	var raw bytes.Buffer
	tmp := make([]byte, binary.MaxVarintLen64)
	put := func(v uint64) {
		n := binary.PutUvarint(tmp, v)
		raw.Write(tmp[:n])
	}

	put(uint64(len(entries)))
	var last uint64
	for _, e := range entries {
		put(e.id - last)
		last = e.id
	}
	for range entries {
		put(1) // run length
	}
	for _, e := range entries {
		put(uint64(e.length))
	}
	for i, e := range entries {
		if i > 0 && e.offset == entries[i-1].offset+uint64(entries[i-1].length) {
			put(0)
		} else {
			put(e.offset + 1)
		}
	}
	return gzipBytes(raw.Bytes())
}

func gzipBytes(b []byte) ([]byte, error) {
	var out bytes.Buffer
	zw, err := gzip.NewWriterLevel(&out, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
