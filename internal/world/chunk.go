package world

import (
	"fmt"
	"sync/atomic"

	"voxforge/internal/voxel"
)

// ChunkData holds one chunk's voxels. Storage is either uniform (a single
// element standing for all 32^3 cells) or dense (exactly 32^3 elements).
//
// A ChunkData is immutable once it is visible to more than one holder; the
// engine swaps in a fresh copy instead of writing through shared handles
// (see Mutable).
type ChunkData struct {
	voxels []voxel.BlockData

	// pins counts in-flight mesh jobs sampling this chunk.
	pins atomic.Int32
}

// NewUniformChunk creates a chunk whose entire volume is one block type.
func NewUniformChunk(b voxel.BlockType) *ChunkData {
	return &ChunkData{voxels: []voxel.BlockData{{BlockType: b}}}
}

// NewDenseChunk wraps a dense voxel slice. The slice length must be exactly
// 32^3; anything else is an invariant violation.
func NewDenseChunk(voxels []voxel.BlockData) *ChunkData {
	if len(voxels) != ChunkVolume {
		panic(fmt.Sprintf("world: dense chunk has %d voxels, want %d", len(voxels), ChunkVolume))
	}
	return &ChunkData{voxels: voxels}
}

// Get returns the voxel at flat index i. Uniform chunks answer every index
// with their single element. Precondition: 0 <= i < 32^3.
func (c *ChunkData) Get(i int) voxel.BlockData {
	if len(c.voxels) == 1 {
		return c.voxels[0]
	}
	return c.voxels[i]
}

// UniformFill returns the fill block and true when the chunk is uniform.
// Meshers use it as an early-exit hint.
func (c *ChunkData) UniformFill() (voxel.BlockData, bool) {
	if len(c.voxels) == 1 {
		return c.voxels[0], true
	}
	return voxel.BlockData{}, false
}

// IsUniform reports whether the chunk uses single-element storage.
func (c *ChunkData) IsUniform() bool {
	return len(c.voxels) == 1
}

// Retain pins the chunk while a mesh job samples it.
func (c *ChunkData) Retain() {
	c.pins.Add(1)
}

// Release drops a pin taken by Retain.
func (c *ChunkData) Release() {
	if c.pins.Add(-1) < 0 {
		panic("world: chunk released more times than retained")
	}
}

// InUse reports whether any mesh job currently samples the chunk.
func (c *ChunkData) InUse() bool {
	return c.pins.Load() > 0
}

// Mutable returns a dense chunk that is safe to write. The receiver itself
// is returned when it is already dense and no worker holds it; otherwise a
// fresh dense copy is made so pinned readers keep their snapshot. Uniform
// chunks are always expanded.
func (c *ChunkData) Mutable() *ChunkData {
	if !c.IsUniform() && !c.InUse() {
		return c
	}
	voxels := make([]voxel.BlockData, ChunkVolume)
	if c.IsUniform() {
		fill := c.voxels[0]
		for i := range voxels {
			voxels[i] = fill
		}
	} else {
		copy(voxels, c.voxels)
	}
	return &ChunkData{voxels: voxels}
}

// Set overwrites the voxel at flat index i. The chunk must be dense; callers
// go through Mutable first.
func (c *ChunkData) Set(i int, b voxel.BlockType) {
	if c.IsUniform() {
		panic("world: uniform chunk must be promoted before mutation")
	}
	c.voxels[i].BlockType = b
}
