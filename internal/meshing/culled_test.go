package meshing

import (
	"testing"

	"voxforge/internal/voxel"
	"voxforge/internal/world"
)

// TestCulledSingleVoxel: one solid voxel emits all six faces, once each.
func TestCulledSingleVoxel(t *testing.T) {
	mesh := BuildCulledMesh(sparseNeighborhood([3]int{0, 0, 0}), L32)
	if mesh == nil {
		t.Fatal("no mesh for a single voxel")
	}
	if len(mesh.Vertices) != 24 {
		t.Errorf("vertices = %d, want 24", len(mesh.Vertices))
	}
	if len(mesh.Indices) != 36 {
		t.Errorf("indices = %d, want 36", len(mesh.Indices))
	}

	seen := make(map[uint32]bool)
	for q := 0; q < len(mesh.Vertices); q += 4 {
		_, _, _, _, normal, block := decodeVertex(mesh.Vertices[q])
		if seen[normal] {
			t.Errorf("normal %d emitted twice", normal)
		}
		seen[normal] = true
		if block != uint32(voxel.BlockTypeGrass) {
			t.Errorf("block id = %d, want grass", block)
		}
	}
	if len(seen) != 6 {
		t.Errorf("saw %d distinct normals, want 6", len(seen))
	}
}

// TestCulledFullyBuried: solid voxels with solid surroundings emit nothing.
func TestCulledFullyBuried(t *testing.T) {
	if m := BuildCulledMesh(uniformNeighborhood(voxel.BlockTypeGrass), L32); m != nil {
		t.Error("buried neighborhood produced a mesh")
	}
	if m := BuildCulledMesh(uniformNeighborhood(voxel.BlockTypeAir), L32); m != nil {
		t.Error("empty neighborhood produced a mesh")
	}
}

// TestCulledAOSaturation: a vertex flanked by two solid side neighbors is
// fully occluded even though the diagonal between them is open.
func TestCulledAOSaturation(t *testing.T) {
	refs := sparseNeighborhood(
		[3]int{5, 5, 5}, // face owner; its up face sits at y=6
		[3]int{4, 6, 5}, // side neighbor across -x
		[3]int{5, 6, 4}, // side neighbor across -z
	)
	mesh := BuildCulledMesh(refs, L32)
	if mesh == nil {
		t.Fatal("no mesh")
	}

	found := false
	for q := 0; q < len(mesh.Vertices); q += 4 {
		_, _, _, _, normal, _ := decodeVertex(mesh.Vertices[q])
		if normal != 3 { // up
			continue
		}
		for i := 0; i < 4; i++ {
			x, y, z, ao, _, _ := decodeVertex(mesh.Vertices[q+i])
			if x == 5 && y == 6 && z == 5 {
				found = true
				if ao != 3 {
					t.Errorf("corner (5,6,5) ao = %d, want saturated 3", ao)
				}
			}
		}
	}
	if !found {
		t.Fatal("up-face corner at (5,6,5) not found")
	}
}

// TestCulledNoAOZeroesAO: the cheap variant packs ao 0 everywhere.
func TestCulledNoAOZeroesAO(t *testing.T) {
	mesh := BuildCulledMeshNoAO(sparseNeighborhood([3]int{3, 3, 3}), L32)
	if mesh == nil {
		t.Fatal("no mesh")
	}
	for _, v := range mesh.Vertices {
		if _, _, _, ao, _, _ := decodeVertex(v); ao != 0 {
			t.Fatalf("ao = %d, want 0", ao)
		}
	}
}

func BenchmarkBuildCulledMesh(b *testing.B) {
	refs := world.DummyChunksRefs(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildCulledMesh(refs, L32)
	}
}
