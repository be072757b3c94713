package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Chunk dimensions. A chunk is a 32^3 cube of voxels; the padded size
	// adds one voxel of neighbor data on each side for meshing.
	ChunkSize   = 32
	ChunkSizeP  = ChunkSize + 2
	ChunkSize2  = ChunkSize * ChunkSize
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// ChunkPos addresses a chunk in chunk coordinates (not block coordinates).
type ChunkPos struct {
	X, Y, Z int
}

// Add returns the component-wise sum of two positions.
func (p ChunkPos) Add(q ChunkPos) ChunkPos {
	return ChunkPos{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// DistSq returns the squared euclidean distance to q, in chunks.
func (p ChunkPos) DistSq(q ChunkPos) int {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// IndexToLocal converts a flat voxel index back to local (x, y, z).
// Layout is x-fastest: i = (z*32 + y)*32 + x.
func IndexToLocal(i int) (x, y, z int) {
	return i % ChunkSize, (i / ChunkSize) % ChunkSize, i / ChunkSize2
}

// LocalToIndex converts local coordinates to a flat voxel index.
// Precondition: 0 <= x, y, z < 32. The y and z terms are not wrapped, so an
// out-of-range component silently indexes a different voxel.
func LocalToIndex(x, y, z int) int {
	return x + y*ChunkSize + z*ChunkSize2
}

// indexToPosBounds decodes a flat index in a bounds^3 cube, x-fastest.
func indexToPosBounds(i, bounds int) ChunkPos {
	return ChunkPos{i % bounds, (i / bounds) % bounds, i / (bounds * bounds)}
}

// WorldToChunk maps a world-space position to the chunk cell containing it.
// The half-chunk bias centers the cell boundaries on chunk centers.
func WorldToChunk(pos mgl32.Vec3) ChunkPos {
	return ChunkPos{
		X: int(math.Floor((float64(pos.X()) - 16.0) / float64(ChunkSize))),
		Y: int(math.Floor((float64(pos.Y()) - 16.0) / float64(ChunkSize))),
		Z: int(math.Floor((float64(pos.Z()) - 16.0) / float64(ChunkSize))),
	}
}

// EdgeNeighbors returns the chunk offsets of every neighbor whose meshing
// padding reads the voxel at local (x, y, z): all non-empty combinations of
// the per-axis edge directions. A face voxel yields 1 offset, an edge voxel
// 3, a corner voxel 7. Interior voxels yield none.
func EdgeNeighbors(x, y, z int) []ChunkPos {
	var dx, dy, dz int
	if x == 0 {
		dx = -1
	} else if x == ChunkSize-1 {
		dx = 1
	}
	if y == 0 {
		dy = -1
	} else if y == ChunkSize-1 {
		dy = 1
	}
	if z == 0 {
		dz = -1
	} else if z == ChunkSize-1 {
		dz = 1
	}
	if dx == 0 && dy == 0 && dz == 0 {
		return nil
	}
	var out []ChunkPos
	for _, ox := range []int{0, dx} {
		for _, oy := range []int{0, dy} {
			for _, oz := range []int{0, dz} {
				if ox == 0 && oy == 0 && oz == 0 {
					continue
				}
				out = append(out, ChunkPos{ox, oy, oz})
			}
		}
	}
	return dedupChunkPos(out)
}

func dedupChunkPos(in []ChunkPos) []ChunkPos {
	seen := make(map[ChunkPos]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
