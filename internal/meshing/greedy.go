package meshing

import (
	"math/bits"
	"sort"

	"voxforge/internal/profiling"
	"voxforge/internal/world"
)

// adjacentAODirs fixes the iteration order of the 3x3 face-plane pattern:
// bit i of an ambient-occlusion key samples offset (a, b) = adjacentAODirs[i]
// in the two in-plane axes.
var adjacentAODirs = [9][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 0}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// BuildGreedyMesh meshes the center chunk of refs with binary greedy
// meshing: solid voxels are packed into 64-bit axis columns, face culling
// happens with two shifts per column, and visible faces are merged into
// maximal rectangles per (direction, block type, ambient occlusion) plane.
// Returns nil when the neighborhood produces no geometry.
func BuildGreedyMesh(refs *world.ChunksRefs, lod LOD) *ChunkMesh {
	defer profiling.Track("meshing.BuildGreedyMesh")()

	// A neighborhood that is one uniform material has no visible faces.
	if refs.IsAllVoxelsSame() {
		return nil
	}

	// Solid bitmask columns for each of the three axes, padded by one
	// voxel of neighbor data on every side.
	var axisCols [3][world.ChunkSizeP][world.ChunkSizeP]uint64

	// Face masks per direction (2*axis + 0 descending, +1 ascending).
	var colFaceMasks [6][world.ChunkSizeP][world.ChunkSizeP]uint64

	addVoxel := func(solid bool, x, y, z int) {
		if !solid {
			return
		}
		axisCols[0][z][x] |= 1 << uint(y)
		axisCols[1][y][z] |= 1 << uint(x)
		axisCols[2][y][x] |= 1 << uint(z)
	}

	center := refs.Chunks[13]
	for z := 0; z < world.ChunkSize; z++ {
		for y := 0; y < world.ChunkSize; y++ {
			for x := 0; x < world.ChunkSize; x++ {
				b := center.Get(world.LocalToIndex(x, y, z))
				addVoxel(b.BlockType.IsSolid(), x+1, y+1, z+1)
			}
		}
	}

	// Boundary planes from the neighbor chunks. A padded cell (x, y, z)
	// always holds the sample at unpadded (x-1, y-1, z-1).
	for a := 0; a < world.ChunkSizeP; a++ {
		for b := 0; b < world.ChunkSizeP; b++ {
			addVoxel(refs.GetBlock(-1, a-1, b-1).BlockType.IsSolid(), 0, a, b)
			addVoxel(refs.GetBlock(world.ChunkSize, a-1, b-1).BlockType.IsSolid(), world.ChunkSizeP-1, a, b)

			addVoxel(refs.GetBlock(a-1, -1, b-1).BlockType.IsSolid(), a, 0, b)
			addVoxel(refs.GetBlock(a-1, world.ChunkSize, b-1).BlockType.IsSolid(), a, world.ChunkSizeP-1, b)

			addVoxel(refs.GetBlock(a-1, b-1, -1).BlockType.IsSolid(), a, b, 0)
			addVoxel(refs.GetBlock(a-1, b-1, world.ChunkSize).BlockType.IsSolid(), a, b, world.ChunkSizeP-1)
		}
	}

	// Face culling: a face exists where a solid cell meets air along the
	// column. Two shifts cull 64 voxels at once.
	for axis := 0; axis < 3; axis++ {
		for a := 0; a < world.ChunkSizeP; a++ {
			for b := 0; b < world.ChunkSizeP; b++ {
				col := axisCols[axis][a][b]
				colFaceMasks[2*axis+0][a][b] = col &^ (col << 1)
				colFaceMasks[2*axis+1][a][b] = col &^ (col >> 1)
			}
		}
	}

	// Bucket visible faces into 32x32 binary planes keyed by
	// (block type << 9 | ao key), then by axis position.
	var data [6]map[uint32]map[uint32]*[world.ChunkSize]uint32
	for axis := range data {
		data[axis] = make(map[uint32]map[uint32]*[world.ChunkSize]uint32)
	}

	for axis := 0; axis < 6; axis++ {
		for z := 0; z < world.ChunkSize; z++ {
			for x := 0; x < world.ChunkSize; x++ {
				col := colFaceMasks[axis][z+1][x+1]
				// Strip the two padding bits; they belong to neighbors.
				col >>= 1
				col &^= 1 << world.ChunkSize

				for col != 0 {
					y := bits.TrailingZeros64(col)
					col &= col - 1

					var vx, vy, vz int
					switch axis {
					case 0, 1: // down, up
						vx, vy, vz = x, y, z
					case 2, 3: // left, right
						vx, vy, vz = y, z, x
					default: // forward, back
						vx, vy, vz = x, z, y
					}

					var aoKey uint32
					for i, off := range adjacentAODirs {
						var sx, sy, sz int
						switch axis {
						case 0:
							sx, sy, sz = off[0], -1, off[1]
						case 1:
							sx, sy, sz = off[0], 1, off[1]
						case 2:
							sx, sy, sz = -1, off[1], off[0]
						case 3:
							sx, sy, sz = 1, off[1], off[0]
						case 4:
							sx, sy, sz = off[0], off[1], -1
						default:
							sx, sy, sz = off[0], off[1], 1
						}
						if refs.GetBlock(vx+sx, vy+sy, vz+sz).BlockType.IsSolid() {
							aoKey |= 1 << uint(i)
						}
					}

					current := refs.GetBlockNoNeighbor(vx, vy, vz)
					// Only identical material with identical ao may merge.
					blockHash := aoKey | uint32(current.BlockType)<<9

					planes := data[axis][blockHash]
					if planes == nil {
						planes = make(map[uint32]*[world.ChunkSize]uint32)
						data[axis][blockHash] = planes
					}
					plane := planes[uint32(y)]
					if plane == nil {
						plane = new([world.ChunkSize]uint32)
						planes[uint32(y)] = plane
					}
					plane[x] |= 1 << uint(z)
				}
			}
		}
	}

	// Sweep every plane. Buckets are visited in sorted key order so the
	// output buffer is reproducible for identical inputs.
	var vertices []uint32
	for axis := 0; axis < 6; axis++ {
		dir := FaceDir(axis)
		for _, blockHash := range sortedKeys(data[axis]) {
			aoKey := blockHash & 0x1FF
			blockType := blockHash >> 9
			planes := data[axis][blockHash]
			for _, axisPos := range sortedKeys(planes) {
				quads := GreedyMeshBinaryPlane(*planes[axisPos], uint32(lod.Size()))
				for _, q := range quads {
					vertices = q.AppendVertices(vertices, dir, int(axisPos), lod, aoKey, blockType)
				}
			}
		}
	}

	if len(vertices) == 0 {
		return nil
	}
	return &ChunkMesh{Vertices: vertices, Indices: GenerateIndices(len(vertices))}
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// GreedyQuad is a maximal rectangle of set bits found in a binary plane.
// X/W span rows, Y/H span bits within a row.
type GreedyQuad struct {
	X, Y, W, H uint32
}

// GreedyMeshBinaryPlane merges the set bits of a 32x32 bit plane into
// maximal rectangles: run-length along each row, then row-wise expansion
// while the next row repeats the exact run.
func GreedyMeshBinaryPlane(data [world.ChunkSize]uint32, lodSize uint32) []GreedyQuad {
	var quads []GreedyQuad
	for row := 0; row < len(data); row++ {
		y := uint32(0)
		for y < lodSize {
			// Skip air until the next run of solid bits.
			y += uint32(bits.TrailingZeros32(data[row] >> y))
			if y >= lodSize {
				continue
			}
			h := uint32(bits.TrailingZeros32(^(data[row] >> y)))
			// Run height as a repeated-ones mask; h == 32 must not overflow.
			var hMask uint32
			if h >= 32 {
				hMask = ^uint32(0)
			} else {
				hMask = 1<<h - 1
			}
			mask := hMask << y

			// Expand across rows while they repeat the exact run, clearing
			// the bits we grow into.
			w := uint32(1)
			for int(w)+row < int(lodSize) {
				next := (data[row+int(w)] >> y) & hMask
				if next != hMask {
					break
				}
				data[row+int(w)] &^= mask
				w++
			}
			quads = append(quads, GreedyQuad{X: uint32(row), Y: y, W: w, H: h})
			y += h
		}
	}
	return quads
}

// AppendVertices packs the quad's four corners into vertices, handling
// per-vertex ambient occlusion, winding and the anisotropy flip.
func (q GreedyQuad) AppendVertices(vertices []uint32, dir FaceDir, axis int, lod LOD, aoKey, blockType uint32) []uint32 {
	aoBit := func(i uint) uint32 { return (aoKey >> i) & 1 }

	// Each vertex sums its two side neighbors plus the shared corner; two
	// solid sides fully occlude the vertex regardless of the corner.
	v1ao := aoLevel(aoBit(1), aoBit(0), aoBit(3))
	v2ao := aoLevel(aoBit(3), aoBit(6), aoBit(7))
	v3ao := aoLevel(aoBit(5), aoBit(8), aoBit(7))
	v4ao := aoLevel(aoBit(1), aoBit(2), aoBit(5))

	jump := lod.JumpIndex()
	pack := func(px, py int, ao uint32) uint32 {
		x, y, z := dir.WorldToSample(axis, px, py)
		return PackVertex(uint32(x*jump), uint32(y*jump), uint32(z*jump), ao, dir.NormalIndex(), blockType)
	}

	v1 := pack(int(q.X), int(q.Y), v1ao)
	v2 := pack(int(q.X+q.W), int(q.Y), v2ao)
	v3 := pack(int(q.X+q.W), int(q.Y+q.H), v3ao)
	v4 := pack(int(q.X), int(q.Y+q.H), v4ao)

	quad := [4]uint32{v1, v2, v3, v4}
	if dir.ReverseOrder() {
		// Keep the first vertex, reverse the rest; the index pattern is
		// fixed so the winding has to move instead.
		quad = [4]uint32{v1, v4, v3, v2}
	}
	// Anisotropy flip: rotate so the split diagonal does not straddle an
	// ambient-occlusion discontinuity.
	if (v1ao > 0) != (v3ao > 0) {
		quad = [4]uint32{quad[1], quad[2], quad[3], quad[0]}
	}
	return append(vertices, quad[:]...)
}

func aoLevel(side1, corner, side2 uint32) uint32 {
	if side1 == 1 && side2 == 1 {
		return 3
	}
	return side1 + corner + side2
}
