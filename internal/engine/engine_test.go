package engine

import (
	"testing"
	"time"

	"voxforge/internal/meshing"
	"voxforge/internal/voxel"
	"voxforge/internal/world"
)

// fakeRenderer records spawns and despawns without touching the GPU.
type fakeRenderer struct {
	nextID   EntityID
	spawned  map[EntityID]world.ChunkPos
	meshes   map[EntityID]*meshing.ChunkMesh
	despawns int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		nextID:  1,
		spawned: make(map[EntityID]world.ChunkPos),
		meshes:  make(map[EntityID]*meshing.ChunkMesh),
	}
}

func (r *fakeRenderer) SpawnChunk(pos world.ChunkPos, mesh *meshing.ChunkMesh) EntityID {
	id := r.nextID
	r.nextID++
	r.spawned[id] = pos
	r.meshes[id] = mesh
	return id
}

func (r *fakeRenderer) DespawnChunk(id EntityID) {
	delete(r.spawned, id)
	delete(r.meshes, id)
	r.despawns++
}

// updateUntil runs engine frames until cond holds or the deadline passes.
func updateUntil(t *testing.T, e *Engine, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached before deadline")
		}
		e.Update(observerAt(world.ChunkPos{}))
		time.Sleep(time.Millisecond)
	}
}

// TestDataLifecycle: a queued coordinate is generated on a worker and ends
// up resident.
func TestDataLifecycle(t *testing.T) {
	e, _ := newTestEngine()
	pos := world.ChunkPos{X: 2, Y: -1, Z: 3}
	e.LoadDataQueue = append(e.LoadDataQueue, pos)

	updateUntil(t, e, func() bool {
		_, ok := e.WorldData[pos]
		return ok
	})

	fill, ok := e.WorldData[pos].UniformFill()
	if !ok || fill.BlockType != voxel.BlockTypeGrass {
		t.Fatalf("resident chunk = %v uniform=%v, want uniform grass", fill, ok)
	}
	if e.RunningDataTasks() != 0 {
		t.Errorf("data task leaked: %d", e.RunningDataTasks())
	}
}

// levelGenerator fills everything below a fixed world height with grass;
// terrain the mesh tests can predict exactly.
type levelGenerator struct {
	height int
}

func (g levelGenerator) Generate(pos world.ChunkPos) *world.ChunkData {
	base := pos.Y * world.ChunkSize
	if base >= g.height {
		return world.NewUniformChunk(voxel.BlockTypeAir)
	}
	if base+world.ChunkSize <= g.height {
		return world.NewUniformChunk(voxel.BlockTypeGrass)
	}
	voxels := make([]voxel.BlockData, world.ChunkVolume)
	for i := range voxels {
		_, y, _ := world.IndexToLocal(i)
		if base+y < g.height {
			voxels[i].BlockType = voxel.BlockTypeGrass
		}
	}
	return world.NewDenseChunk(voxels)
}

// TestMeshLifecycle: once a neighborhood is resident, a queued mesh job
// produces a render entity with real geometry.
func TestMeshLifecycle(t *testing.T) {
	r := newFakeRenderer()
	e := New(levelGenerator{height: 5}, r, DefaultLimits())

	center := world.ChunkPos{} // holds the surface at y=5
	if err := e.PregenerateRegion(center, 1); err != nil {
		t.Fatal(err)
	}
	e.LoadMeshQueue = append(e.LoadMeshQueue, center)

	updateUntil(t, e, func() bool {
		_, ok := e.ChunkEntities[center]
		return ok
	})

	id := e.ChunkEntities[center]
	mesh := r.meshes[id]
	if mesh == nil || len(mesh.Vertices) == 0 {
		t.Fatal("spawned entity has no geometry")
	}
	if len(mesh.Vertices)%4 != 0 {
		t.Errorf("vertex count %d not a multiple of 4", len(mesh.Vertices))
	}
	if e.Stats().TotalVertices != len(mesh.Vertices) {
		t.Errorf("stats vertices = %d, want %d", e.Stats().TotalVertices, len(mesh.Vertices))
	}

	// Remeshing the same chunk replaces the entity.
	e.LoadMeshQueue = append(e.LoadMeshQueue, center)
	updateUntil(t, e, func() bool { return e.ChunkEntities[center] != id })
	if r.despawns != 1 {
		t.Errorf("despawns = %d, want 1 after remesh", r.despawns)
	}
}

// TestMeshRetriesUntilNeighborsResident: scheduling with an incomplete
// neighborhood keeps the position queued instead of dropping it.
func TestMeshRetriesUntilNeighborsResident(t *testing.T) {
	e, _ := newTestEngine()
	pos := world.ChunkPos{Y: -1}
	e.LoadMeshQueue = append(e.LoadMeshQueue, pos)

	e.Update(observerAt(world.ChunkPos{}))
	if !containsChunkPos(e.LoadMeshQueue, pos) {
		t.Fatal("unschedulable mesh position was dropped")
	}
}

// TestModificationPromotesAndRemeshes covers a single face-interior edge
// write: the uniform chunk turns dense, the voxel changes, and exactly the
// owning chunk plus the one adjacent chunk are queued for remeshing.
func TestModificationPromotesAndRemeshes(t *testing.T) {
	e, _ := newTestEngine()
	pos := world.ChunkPos{Y: -1}
	e.WorldData[pos] = world.NewUniformChunk(voxel.BlockTypeGrass)

	e.QueueModification(pos, ChunkModification{X: 15, Y: 0, Z: 7, Block: voxel.BlockTypeAir})
	e.Update(observerAt(world.ChunkPos{}))

	cd := e.WorldData[pos]
	if cd.IsUniform() {
		t.Fatal("modified chunk was not promoted to dense")
	}
	if got := cd.Get(world.LocalToIndex(15, 0, 7)).BlockType; got != voxel.BlockTypeAir {
		t.Errorf("modified voxel = %v, want air", got)
	}

	want := map[world.ChunkPos]bool{
		pos:                            true,
		pos.Add(world.ChunkPos{Y: -1}): true,
	}
	if len(e.LoadMeshQueue) != len(want) {
		t.Fatalf("load mesh queue = %v, want owning chunk plus -y neighbor", e.LoadMeshQueue)
	}
	for _, p := range e.LoadMeshQueue {
		if !want[p] {
			t.Errorf("unexpected remesh position %v", p)
		}
	}
}

// TestCornerModificationFansOut: a corner voxel touches seven neighbors.
func TestCornerModificationFansOut(t *testing.T) {
	e, _ := newTestEngine()
	pos := world.ChunkPos{Y: -1}
	e.WorldData[pos] = world.NewUniformChunk(voxel.BlockTypeGrass)

	e.QueueModification(pos, ChunkModification{X: 0, Y: 0, Z: 0, Block: voxel.BlockTypeAir})
	e.Update(observerAt(world.ChunkPos{}))

	if got := len(e.LoadMeshQueue); got != 8 {
		t.Errorf("load mesh queue = %d entries, want 8 (chunk + 7 neighbors): %v", got, e.LoadMeshQueue)
	}
}

// TestModificationSnapshotsPinnedChunk: a chunk held by an in-flight mesh
// job is copied before mutation so the worker keeps a consistent snapshot.
func TestModificationSnapshotsPinnedChunk(t *testing.T) {
	e, _ := newTestEngine()
	pos := world.ChunkPos{Y: -1}
	cd := world.NewUniformChunk(voxel.BlockTypeGrass)
	e.WorldData[pos] = cd

	cd.Retain() // simulate a worker sampling this chunk
	e.QueueModification(pos, ChunkModification{X: 1, Y: 2, Z: 3, Block: voxel.BlockTypeDirt})
	e.Update(observerAt(world.ChunkPos{}))
	cd.Release()

	if e.WorldData[pos] == cd {
		t.Fatal("pinned chunk was mutated in place")
	}
	if got := cd.Get(world.LocalToIndex(1, 2, 3)).BlockType; got != voxel.BlockTypeGrass {
		t.Errorf("worker snapshot changed: %v", got)
	}
	if got := e.WorldData[pos].Get(world.LocalToIndex(1, 2, 3)).BlockType; got != voxel.BlockTypeDirt {
		t.Errorf("world map missed the write: %v", got)
	}
}

// TestModificationOrder: two writes to the same voxel in one frame apply
// in submission order.
func TestModificationOrder(t *testing.T) {
	e, _ := newTestEngine()
	pos := world.ChunkPos{Y: -1}
	e.WorldData[pos] = world.NewUniformChunk(voxel.BlockTypeGrass)

	e.QueueModification(pos,
		ChunkModification{X: 4, Y: 4, Z: 4, Block: voxel.BlockTypeAir},
		ChunkModification{X: 4, Y: 4, Z: 4, Block: voxel.BlockTypeDirt},
	)
	e.Update(observerAt(world.ChunkPos{}))

	if got := e.WorldData[pos].Get(world.LocalToIndex(4, 4, 4)).BlockType; got != voxel.BlockTypeDirt {
		t.Errorf("voxel = %v, want the later write (dirt)", got)
	}
}

// TestUnload: queued unloads drop data and despawn entities in the same
// frame.
func TestUnload(t *testing.T) {
	e, r := newTestEngine()
	pos := world.ChunkPos{Y: -1}
	e.WorldData[pos] = world.NewUniformChunk(voxel.BlockTypeGrass)
	e.ChunkEntities[pos] = r.SpawnChunk(pos, &meshing.ChunkMesh{Vertices: make([]uint32, 4)})
	e.vertexCounts[pos] = 4

	e.UnloadDataQueue = append(e.UnloadDataQueue, pos)
	e.UnloadMeshQueue = append(e.UnloadMeshQueue, pos)
	e.Update(observerAt(world.ChunkPos{}))

	if _, ok := e.WorldData[pos]; ok {
		t.Error("data survived unload")
	}
	if _, ok := e.ChunkEntities[pos]; ok {
		t.Error("entity mapping survived unload")
	}
	if r.despawns != 1 {
		t.Errorf("despawns = %d, want 1", r.despawns)
	}
	if e.Stats().TotalVertices != 0 {
		t.Errorf("vertex stats survived unload: %d", e.Stats().TotalVertices)
	}
}

// TestPregenerateRegion fills a cube of chunks synchronously.
func TestPregenerateRegion(t *testing.T) {
	e, _ := newTestEngine()
	if err := e.PregenerateRegion(world.ChunkPos{}, 1); err != nil {
		t.Fatal(err)
	}
	if got := len(e.WorldData); got != 27 {
		t.Errorf("resident chunks = %d, want 27", got)
	}
}

// TestUnloadAllMeshes re-enqueues the whole mesh area for the new meshing
// method.
func TestUnloadAllMeshes(t *testing.T) {
	e, _ := newTestEngine()
	s := NewScanner(1)
	e.LoadMeshQueue = append(e.LoadMeshQueue, world.ChunkPos{X: 9})

	e.UnloadAllMeshes(s, observerAt(world.ChunkPos{}))

	if got := len(e.LoadMeshQueue); got != 27 {
		t.Errorf("load mesh queue = %d, want 27", got)
	}
	if containsChunkPos(e.LoadMeshQueue, world.ChunkPos{X: 9}) {
		t.Error("stale mesh position survived the reset")
	}
}
