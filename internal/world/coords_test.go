package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// TestIndexRoundTrip verifies IndexToLocal inverts LocalToIndex over the
// whole chunk volume.
func TestIndexRoundTrip(t *testing.T) {
	for z := 0; z < ChunkSize; z++ {
		for y := 0; y < ChunkSize; y++ {
			for x := 0; x < ChunkSize; x++ {
				i := LocalToIndex(x, y, z)
				gx, gy, gz := IndexToLocal(i)
				if gx != x || gy != y || gz != z {
					t.Fatalf("round trip (%d,%d,%d) -> %d -> (%d,%d,%d)", x, y, z, i, gx, gy, gz)
				}
			}
		}
	}
}

// TestLocalToIndexLayout pins the x-fastest layout i = (z*32 + y)*32 + x.
func TestLocalToIndexLayout(t *testing.T) {
	cases := []struct {
		x, y, z, want int
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{0, 1, 0, 32},
		{0, 0, 1, 1024},
		{31, 31, 31, ChunkVolume - 1},
	}
	for _, c := range cases {
		if got := LocalToIndex(c.x, c.y, c.z); got != c.want {
			t.Errorf("LocalToIndex(%d,%d,%d) = %d, want %d", c.x, c.y, c.z, got, c.want)
		}
	}
}

// TestWorldToChunkFloors verifies the half-chunk bias and the floor
// behavior on negative coordinates.
func TestWorldToChunkFloors(t *testing.T) {
	cases := []struct {
		pos  mgl32.Vec3
		want ChunkPos
	}{
		{mgl32.Vec3{16, 16, 16}, ChunkPos{0, 0, 0}},
		{mgl32.Vec3{47.9, 16, 16}, ChunkPos{0, 0, 0}},
		{mgl32.Vec3{48, 16, 16}, ChunkPos{1, 0, 0}},
		{mgl32.Vec3{15.9, 16, 16}, ChunkPos{-1, 0, 0}},
		{mgl32.Vec3{-17, 16, 16}, ChunkPos{-2, 0, 0}},
	}
	for _, c := range cases {
		if got := WorldToChunk(c.pos); got != c.want {
			t.Errorf("WorldToChunk(%v) = %v, want %v", c.pos, got, c.want)
		}
	}
}

// TestEdgeNeighbors checks the fan-out used by chunk modifications: one
// neighbor per touched face, three on an edge, seven on a corner.
func TestEdgeNeighbors(t *testing.T) {
	if got := EdgeNeighbors(5, 5, 5); len(got) != 0 {
		t.Errorf("interior voxel produced neighbors: %v", got)
	}

	face := EdgeNeighbors(0, 5, 5)
	if len(face) != 1 || face[0] != (ChunkPos{-1, 0, 0}) {
		t.Errorf("face voxel neighbors = %v, want [(-1,0,0)]", face)
	}

	edge := EdgeNeighbors(0, 0, 5)
	if len(edge) != 3 {
		t.Errorf("edge voxel produced %d neighbors, want 3: %v", len(edge), edge)
	}

	corner := EdgeNeighbors(31, 31, 31)
	if len(corner) != 7 {
		t.Errorf("corner voxel produced %d neighbors, want 7: %v", len(corner), corner)
	}
	for _, p := range corner {
		if p.X < 0 || p.Y < 0 || p.Z < 0 {
			t.Errorf("corner at max edge produced negative offset %v", p)
		}
	}
}
