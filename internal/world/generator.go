package world

import (
	"github.com/ojrac/opensimplex-go"

	"voxforge/internal/voxel"
)

// TerrainGenerator produces the voxel contents of a chunk. Implementations
// must be deterministic for a given position and safe for concurrent use.
type TerrainGenerator interface {
	Generate(pos ChunkPos) *ChunkData
}

const (
	// Above this world height every chunk is pure air, below the negative
	// band pure grass; only the band between needs noise evaluation.
	surfaceBand = 53

	overhangFrequency = 0.0254
	heightFrequency   = 0.002591
	overhangAmplitude = 55.0
	heightAmplitude   = 30.0
)

// Generator shapes terrain from layered OpenSimplex noise: a 3D field
// displaces the sampling column of a low-frequency 2D heightfield, which is
// what produces overhangs.
type Generator struct {
	noise opensimplex.Noise
}

// NewGenerator creates a terrain generator for the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{noise: opensimplex.New(seed)}
}

// Generate builds the chunk at pos. Chunks entirely above or below the
// surface band collapse to uniform storage without sampling any noise.
func (g *Generator) Generate(pos ChunkPos) *ChunkData {
	if pos.Y*ChunkSize+ChunkSize > surfaceBand {
		return NewUniformChunk(voxel.BlockTypeAir)
	}
	if pos.Y*ChunkSize < -surfaceBand {
		return NewUniformChunk(voxel.BlockTypeGrass)
	}

	voxels := make([]voxel.BlockData, ChunkVolume)
	for i := range voxels {
		x, y, z := IndexToLocal(i)
		wx := float64(pos.X*ChunkSize + x)
		wy := float64(pos.Y*ChunkSize + y)
		wz := float64(pos.Z*ChunkSize + z)

		overhang := g.noise.Eval3(wx*overhangFrequency, wy*overhangFrequency, wz*overhangFrequency) * overhangAmplitude
		h := g.noise.Eval2((wx+overhang)*heightFrequency, wz*heightFrequency) * heightAmplitude

		bt := voxel.BlockTypeAir
		if h > wy {
			if h-wy > 1.0 {
				bt = voxel.BlockTypeDirt
			} else {
				bt = voxel.BlockTypeGrass
			}
		}
		voxels[i].BlockType = bt
	}
	return NewDenseChunk(voxels)
}

// FlatGenerator fills every chunk below y=0 with grass and everything else
// with air. It exists for tests and benchmarks that need trivial terrain.
type FlatGenerator struct{}

// Generate implements TerrainGenerator.
func (FlatGenerator) Generate(pos ChunkPos) *ChunkData {
	if pos.Y < 0 {
		return NewUniformChunk(voxel.BlockTypeGrass)
	}
	return NewUniformChunk(voxel.BlockTypeAir)
}
