package renderer

import (
	"image"
	"time"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/loaders"
)

// Tile is a rectangular block of the image. Bounds use image coordinates
// with row 0 at the bottom.
type Tile struct {
	ID     int
	Bounds image.Rectangle
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []Tile {
	var tiles []Tile
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)
			tiles = append(tiles, Tile{ID: len(tiles), Bounds: image.Rect(x0, y0, x1, y1)})
		}
	}
	return tiles
}

// tileSeed derives a tile's random stream from the base seed, so a tile
// renders identically whichever worker picks it up
func tileSeed(base int64, tileID int) int64 {
	return base*1000003 + int64(tileID) + 42
}

// TileRenderer renders tiles into a shared image. Tiles never overlap, so
// concurrent RenderTile calls write disjoint pixels.
type TileRenderer struct {
	tracer *RayTracer
	seed   int64
}

// NewTileRenderer creates a tile renderer around a shared tracer
func NewTileRenderer(rt *RayTracer) *TileRenderer {
	return &TileRenderer{tracer: rt, seed: rt.scene.Params.Seed}
}

// RenderTile traces every pixel of tile into img using sampler, reseeded
// for the tile
func (tr *TileRenderer) RenderTile(tile Tile, img *loaders.ImageData, sampler *core.RandomSampler) TileStats {
	start := time.Now()
	sampler.Seed(tileSeed(tr.seed, tile.ID))

	grid := gridSize(tr.tracer.scene.Params.NumAntialiasSamples)
	b := tile.Bounds
	for j := b.Min.Y; j < b.Max.Y; j++ {
		for i := b.Min.X; i < b.Max.X; i++ {
			img.SetLinear(i, j, tr.tracer.RenderPixel(i, j, sampler))
		}
	}

	pixels := b.Dx() * b.Dy()
	return TileStats{
		TileID:   tile.ID,
		Pixels:   pixels,
		Samples:  pixels * grid * grid,
		Duration: time.Since(start),
	}
}
