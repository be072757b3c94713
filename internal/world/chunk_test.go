package world

import (
	"testing"

	"voxforge/internal/voxel"
)

// TestUniformDenseEquivalence verifies Get answers identically whether the
// same volume is stored uniform or dense.
func TestUniformDenseEquivalence(t *testing.T) {
	uniform := NewUniformChunk(voxel.BlockTypeGrass)

	voxels := make([]voxel.BlockData, ChunkVolume)
	for i := range voxels {
		voxels[i].BlockType = voxel.BlockTypeGrass
	}
	dense := NewDenseChunk(voxels)

	for i := 0; i < ChunkVolume; i++ {
		if uniform.Get(i) != dense.Get(i) {
			t.Fatalf("index %d: uniform %v != dense %v", i, uniform.Get(i), dense.Get(i))
		}
	}
}

func TestUniformFill(t *testing.T) {
	u := NewUniformChunk(voxel.BlockTypeDirt)
	fill, ok := u.UniformFill()
	if !ok || fill.BlockType != voxel.BlockTypeDirt {
		t.Fatalf("UniformFill = %v, %v", fill, ok)
	}

	d := NewDenseChunk(make([]voxel.BlockData, ChunkVolume))
	if _, ok := d.UniformFill(); ok {
		t.Fatal("dense chunk must not report a uniform fill")
	}
}

// TestDenseLengthInvariant: a dense chunk of the wrong size is fatal.
func TestDenseLengthInvariant(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for short dense chunk")
		}
	}()
	NewDenseChunk(make([]voxel.BlockData, ChunkVolume-1))
}

// TestSetRequiresDense: writing through uniform storage is a bug.
func TestSetRequiresDense(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic writing a uniform chunk")
		}
	}()
	NewUniformChunk(voxel.BlockTypeGrass).Set(0, voxel.BlockTypeAir)
}

// TestMutableCopyOnWrite covers the make-mut rules: uniform always expands,
// an unshared dense chunk is written in place, a pinned chunk is copied so
// in-flight readers keep their snapshot.
func TestMutableCopyOnWrite(t *testing.T) {
	u := NewUniformChunk(voxel.BlockTypeGrass)
	m := u.Mutable()
	if m == u || m.IsUniform() {
		t.Fatal("uniform chunk must expand into a fresh dense chunk")
	}
	if m.Get(123).BlockType != voxel.BlockTypeGrass {
		t.Fatal("expansion must keep the fill block")
	}

	if m.Mutable() != m {
		t.Fatal("unshared dense chunk should be mutable in place")
	}

	m.Retain()
	cow := m.Mutable()
	if cow == m {
		t.Fatal("pinned chunk must be copied before mutation")
	}
	cow.Set(LocalToIndex(3, 4, 5), voxel.BlockTypeAir)
	if m.Get(LocalToIndex(3, 4, 5)).BlockType != voxel.BlockTypeGrass {
		t.Fatal("copy-on-write leaked into the pinned snapshot")
	}
	m.Release()
	if m.InUse() {
		t.Fatal("release must drop the pin")
	}
}
