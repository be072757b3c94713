package meshing

import (
	"voxforge/internal/profiling"
	"voxforge/internal/voxel"
	"voxforge/internal/world"
)

// The culled meshers are the per-voxel baseline the greedy mesher is
// checked against: one quad per visible face, no merging.

// aoRingOffsets lists, per direction, the 8 face-plane neighbors around a
// voxel in ring order. Corner i of the emitted quad reads ring entries
// 2i (side), 2i+1 (corner) and 2i+2 mod 8 (side).
var aoRingOffsets = map[world.Direction][8][3]int{
	world.DirLeft: {
		{-1, 0, -1}, {-1, -1, -1}, {-1, -1, 0}, {-1, -1, 1},
		{-1, 0, 1}, {-1, 1, 1}, {-1, 1, 0}, {-1, 1, -1},
	},
	world.DirDown: {
		{-1, -1, 0}, {-1, -1, -1}, {0, -1, -1}, {1, -1, -1},
		{1, -1, 0}, {1, -1, 1}, {0, -1, 1}, {-1, -1, 1},
	},
	world.DirBack: {
		{0, -1, -1}, {-1, -1, -1}, {-1, 0, -1}, {-1, 1, -1},
		{0, 1, -1}, {1, 1, -1}, {1, 0, -1}, {1, -1, -1},
	},
	world.DirRight: {
		{0, 0, -1}, {0, 1, -1}, {0, 1, 0}, {0, 1, 1},
		{0, 0, 1}, {0, -1, 1}, {0, -1, 0}, {0, -1, -1},
	},
	world.DirUp: {
		{-1, 0, 0}, {-1, 0, 1}, {0, 0, 1}, {1, 0, 1},
		{1, 0, 0}, {1, 0, -1}, {0, 0, -1}, {-1, 0, -1},
	},
	world.DirForward: {
		{0, -1, 0}, {1, -1, 0}, {1, 0, 0}, {1, 1, 0},
		{0, 1, 0}, {-1, 1, 0}, {-1, 0, 0}, {-1, -1, 0},
	},
}

// quadCorners lists the four corner offsets of a face quad, aligned with
// aoRingOffsets so corner i sits between ring entries 2i and 2i+2.
var quadCorners = map[world.Direction][4][3]int{
	world.DirLeft:    {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	world.DirDown:    {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	world.DirBack:    {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	world.DirRight:   {{0, 1, 0}, {0, 1, 1}, {0, 0, 1}, {0, 0, 0}},
	world.DirUp:      {{0, 0, 1}, {1, 0, 1}, {1, 0, 0}, {0, 0, 0}},
	world.DirForward: {{1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0, 0, 0}},
}

// dirNormalIndex maps the face (named by the neighbor direction of its air
// side on x/y, and by the shader's forward/back convention on z: the face
// whose air side is -z carries normal 4).
func dirNormalIndex(d world.Direction) uint32 {
	switch d {
	case world.DirLeft:
		return 0
	case world.DirRight:
		return 1
	case world.DirDown:
		return 2
	case world.DirUp:
		return 3
	case world.DirBack:
		return 4
	default:
		return 5
	}
}

// BuildCulledMesh emits one ambient-occluded quad per visible face of the
// center chunk. Returns nil when no face is visible.
func BuildCulledMesh(refs *world.ChunksRefs, _ LOD) *ChunkMesh {
	defer profiling.Track("meshing.BuildCulledMesh")()
	return buildCulled(refs, true)
}

// BuildCulledMeshNoAO is BuildCulledMesh without the ambient occlusion
// sampling, kept as the cheapest reference mesher.
func BuildCulledMeshNoAO(refs *world.ChunksRefs, _ LOD) *ChunkMesh {
	defer profiling.Track("meshing.BuildCulledMeshNoAO")()
	return buildCulled(refs, false)
}

func buildCulled(refs *world.ChunksRefs, withAO bool) *ChunkMesh {
	mesh := &ChunkMesh{}
	for i := 0; i < world.ChunkVolume; i++ {
		x, y, z := world.IndexToLocal(i)
		current, back, left, down := refs.GetAdjacent(x, y, z)

		// Each boundary is visited twice (once from each side), so three
		// directions emit from the solid voxel and three from the air
		// voxel; every face comes out exactly once.
		if current.BlockType.IsSolid() {
			if !left.BlockType.IsSolid() {
				pushFace(refs, mesh, world.DirLeft, x, y, z, current.BlockType, withAO)
			}
			if !back.BlockType.IsSolid() {
				pushFace(refs, mesh, world.DirBack, x, y, z, current.BlockType, withAO)
			}
			if !down.BlockType.IsSolid() {
				pushFace(refs, mesh, world.DirDown, x, y, z, current.BlockType, withAO)
			}
		} else {
			if left.BlockType.IsSolid() {
				pushFace(refs, mesh, world.DirRight, x, y, z, left.BlockType, withAO)
			}
			if back.BlockType.IsSolid() {
				pushFace(refs, mesh, world.DirForward, x, y, z, back.BlockType, withAO)
			}
			if down.BlockType.IsSolid() {
				pushFace(refs, mesh, world.DirUp, x, y, z, down.BlockType, withAO)
			}
		}
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}
	mesh.Indices = GenerateIndices(len(mesh.Vertices))
	return mesh
}

func pushFace(refs *world.ChunksRefs, mesh *ChunkMesh, dir world.Direction, x, y, z int, bt voxel.BlockType, withAO bool) {
	var ring [8]bool
	if withAO {
		for i, off := range aoRingOffsets[dir] {
			ring[i] = refs.GetBlock(x+off[0], y+off[1], z+off[2]).BlockType.IsSolid()
		}
	}
	normal := dirNormalIndex(dir)
	for i, corner := range quadCorners[dir] {
		var ao uint32
		if withAO {
			ao = aoLevel(boolBit(ring[2*i]), boolBit(ring[(2*i+1)%8]), boolBit(ring[(2*i+2)%8]))
		}
		mesh.Vertices = append(mesh.Vertices, PackVertex(
			uint32(x+corner[0]), uint32(y+corner[1]), uint32(z+corner[2]),
			ao, normal, uint32(bt),
		))
	}
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
