package world

import (
	"math/rand"

	"voxforge/internal/voxel"
)

// Direction names the six axis-aligned neighbor directions.
type Direction int

const (
	DirLeft    Direction = iota // -x
	DirRight                    // +x
	DirDown                     // -y
	DirUp                       // +y
	DirBack                     // -z
	DirForward                  // +z
)

// Offset returns the unit chunk/voxel offset for the direction.
func (d Direction) Offset() (x, y, z int) {
	switch d {
	case DirLeft:
		return -1, 0, 0
	case DirRight:
		return 1, 0, 0
	case DirDown:
		return 0, -1, 0
	case DirUp:
		return 0, 1, 0
	case DirBack:
		return 0, 0, -1
	default:
		return 0, 0, 1
	}
}

// NeighborOffsets lists the 27 chunk offsets of a Moore neighborhood,
// center included, in the order ChunksRefs stores them.
func NeighborOffsets() [27]ChunkPos {
	var out [27]ChunkPos
	for i := range out {
		p := indexToPosBounds(i, 3)
		out[i] = ChunkPos{p.X - 1, p.Y - 1, p.Z - 1}
	}
	return out
}

// ChunksRefs bundles shared handles to a chunk and its 26 neighbors so a
// mesh job can sample across chunk borders without touching the world map.
// Index (cx + cy*3 + cz*9) holds the neighbor at offset (cx-1, cy-1, cz-1);
// index 13 is the center. ChunksRefs never mutates its chunks.
type ChunksRefs struct {
	Chunks [27]*ChunkData
}

// TryNewChunksRefs gathers the neighborhood around center from worldData.
// It returns false when any required neighbor is missing. On success every
// chunk is pinned; the caller must Release after meshing.
func TryNewChunksRefs(worldData map[ChunkPos]*ChunkData, center ChunkPos) (*ChunksRefs, bool) {
	var r ChunksRefs
	for i, off := range NeighborOffsets() {
		cd, ok := worldData[center.Add(off)]
		if !ok {
			return nil, false
		}
		r.Chunks[i] = cd
	}
	for _, cd := range r.Chunks {
		cd.Retain()
	}
	return &r, true
}

// Release drops the pins taken when the neighborhood was built.
func (r *ChunksRefs) Release() {
	for _, cd := range r.Chunks {
		cd.Release()
	}
}

// IsAllVoxelsSame reports whether all 27 chunks are uniform with the same
// block type. One sample per chunk, so it is effectively free.
func (r *ChunksRefs) IsAllVoxelsSame() bool {
	first, ok := r.Chunks[0].UniformFill()
	if !ok {
		return false
	}
	for _, cd := range r.Chunks[1:] {
		fill, ok := cd.UniformFill()
		if !ok || fill.BlockType != first.BlockType {
			return false
		}
	}
	return true
}

// GetBlock samples a voxel at a position local to the center chunk. The
// position may reach up to one full chunk past the center's bounds in any
// direction; anything further is a caller bug.
func (r *ChunksRefs) GetBlock(x, y, z int) voxel.BlockData {
	cx, lx := splitAxis(x)
	cy, ly := splitAxis(y)
	cz, lz := splitAxis(z)
	cd := r.Chunks[cx+cy*3+cz*9]
	return cd.Get(LocalToIndex(lx, ly, lz))
}

// splitAxis maps one component of a center-local position to a neighbor
// slot and the coordinate inside that neighbor.
func splitAxis(c int) (chunk, local int) {
	switch {
	case c <= -1:
		return 0, ChunkSize + c
	case c >= ChunkSize:
		return 2, c - ChunkSize
	default:
		return 1, c
	}
}

// GetBlockNoNeighbor samples the center chunk directly. Valid only for
// positions inside [0, 32)^3.
func (r *ChunksRefs) GetBlockNoNeighbor(x, y, z int) voxel.BlockData {
	return r.Chunks[13].Get(LocalToIndex(x, y, z))
}

// GetAdjacent returns the voxel at pos together with its back (-z),
// left (-x) and down (-y) neighbors.
func (r *ChunksRefs) GetAdjacent(x, y, z int) (current, back, left, down voxel.BlockData) {
	current = r.GetBlock(x, y, z)
	back = r.GetBlock(x, y, z-1)
	left = r.GetBlock(x-1, y, z)
	down = r.GetBlock(x, y-1, z)
	return
}

// DirectionalBlock pairs a neighbor sample with the direction it came from.
type DirectionalBlock struct {
	Dir   Direction
	Block voxel.BlockData
}

// GetVonNeumann samples the six face-adjacent neighbors of pos.
func (r *ChunksRefs) GetVonNeumann(x, y, z int) [6]DirectionalBlock {
	var out [6]DirectionalBlock
	for i, d := range [6]Direction{DirBack, DirForward, DirDown, DirUp, DirLeft, DirRight} {
		dx, dy, dz := d.Offset()
		out[i] = DirectionalBlock{Dir: d, Block: r.GetBlock(x+dx, y+dy, z+dz)}
	}
	return out
}

// DummyChunksRefs builds a generated neighborhood at a seeded random chunk
// position. Test and benchmark helper.
func DummyChunksRefs(seed int64) *ChunksRefs {
	rng := rand.New(rand.NewSource(seed))
	gen := NewGenerator(seed)
	center := ChunkPos{
		X: rng.Intn(40) - 20,
		Y: rng.Intn(10) - 5,
		Z: rng.Intn(40) - 20,
	}
	var r ChunksRefs
	for i, off := range NeighborOffsets() {
		r.Chunks[i] = gen.Generate(center.Add(off))
	}
	return &r
}
