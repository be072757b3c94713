package engine

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"voxforge/internal/meshing"
	"voxforge/internal/profiling"
	"voxforge/internal/voxel"
	"voxforge/internal/world"
)

// EntityID names a render entity spawned for a chunk mesh.
type EntityID uint64

// Renderer receives finished chunk meshes. internal/graphics provides the
// real implementation; tests use a fake.
type Renderer interface {
	SpawnChunk(pos world.ChunkPos, mesh *meshing.ChunkMesh) EntityID
	DespawnChunk(id EntityID)
}

// MeshingMethod selects which mesher the engine schedules.
type MeshingMethod int

const (
	BinaryGreedy MeshingMethod = iota
	VertexCulled
)

// ChunkModification overwrites one voxel of a chunk at a local position.
type ChunkModification struct {
	X, Y, Z int
	Block   voxel.BlockType
}

// Limits caps the engine's concurrent background work.
type Limits struct {
	MaxDataTasks int
	MaxMeshTasks int
}

// DefaultLimits returns the task caps used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxDataTasks: 64, MaxMeshTasks: 32}
}

type meshTask struct {
	pos    world.ChunkPos
	refs   *world.ChunksRefs
	result chan *meshing.ChunkMesh
}

// Engine owns all voxel world state and drives the asynchronous
// generate/mesh/unload pipeline. All methods run on the simulation thread;
// background tasks communicate exclusively through their result channels.
type Engine struct {
	WorldData map[world.ChunkPos]*world.ChunkData

	LoadDataQueue   []world.ChunkPos
	LoadMeshQueue   []world.ChunkPos
	UnloadDataQueue []world.ChunkPos
	UnloadMeshQueue []world.ChunkPos

	dataTasks map[world.ChunkPos]chan *world.ChunkData
	meshTasks []meshTask

	ChunkEntities map[world.ChunkPos]EntityID
	vertexCounts  map[world.ChunkPos]int

	Modifications map[world.ChunkPos][]ChunkModification

	Method MeshingMethod
	LOD    meshing.LOD

	gen      world.TerrainGenerator
	renderer Renderer
	limits   Limits
}

// New creates an engine around a generator and a renderer.
func New(gen world.TerrainGenerator, renderer Renderer, limits Limits) *Engine {
	return &Engine{
		WorldData:     make(map[world.ChunkPos]*world.ChunkData),
		dataTasks:     make(map[world.ChunkPos]chan *world.ChunkData),
		ChunkEntities: make(map[world.ChunkPos]EntityID),
		vertexCounts:  make(map[world.ChunkPos]int),
		Modifications: make(map[world.ChunkPos][]ChunkModification),
		Method:        BinaryGreedy,
		LOD:           meshing.L32,
		gen:           gen,
		renderer:      renderer,
		limits:        limits,
	}
}

// Update runs one frame of pipeline bookkeeping. The step order is fixed:
// unloads run after joins so results of already-cancelled work are cleaned
// up in the same frame they arrive.
func (e *Engine) Update(observer mgl32.Vec3) {
	defer profiling.Track("engine.Update")()
	scanPos := world.WorldToChunk(observer)
	e.startDataTasks(scanPos)
	e.startMeshTasks(scanPos)
	e.startModifications()
	e.joinData()
	e.joinMesh()
	e.unloadData()
	e.unloadMesh()
}

// QueueModification records voxel overwrites to apply on the next frame.
// Modifications to the same chunk apply in submission order.
func (e *Engine) QueueModification(pos world.ChunkPos, mods ...ChunkModification) {
	e.Modifications[pos] = append(e.Modifications[pos], mods...)
}

func (e *Engine) sortByDistance(queue []world.ChunkPos, scanPos world.ChunkPos) {
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].DistSq(scanPos) < queue[j].DistSq(scanPos)
	})
}

// startDataTasks spawns generation jobs for the nearest queued chunks,
// bounded by the task cap.
func (e *Engine) startDataTasks(scanPos world.ChunkPos) {
	e.sortByDistance(e.LoadDataQueue, scanPos)

	free := e.limits.MaxDataTasks - len(e.dataTasks)
	n := min(free, len(e.LoadDataQueue))
	for i := 0; i < n; i++ {
		pos := e.LoadDataQueue[i]
		result := make(chan *world.ChunkData, 1)
		e.dataTasks[pos] = result
		go func(pos world.ChunkPos) {
			result <- e.gen.Generate(pos)
		}(pos)
	}
	if n > 0 {
		e.LoadDataQueue = e.LoadDataQueue[n:]
	}
}

// startMeshTasks spawns meshing jobs for queued chunks whose full 3x3x3
// neighborhood is resident. Chunks are left queued otherwise and retried
// on a later frame.
func (e *Engine) startMeshTasks(scanPos world.ChunkPos) {
	e.sortByDistance(e.LoadMeshQueue, scanPos)

	free := e.limits.MaxMeshTasks - len(e.meshTasks)
	var retained []world.ChunkPos
	spawned := 0
	i := 0
	for ; i < len(e.LoadMeshQueue) && spawned < free; i++ {
		pos := e.LoadMeshQueue[i]
		refs, ok := world.TryNewChunksRefs(e.WorldData, pos)
		if !ok {
			// Neighborhood not fully resident yet; retry next frame.
			retained = append(retained, pos)
			continue
		}
		task := meshTask{pos: pos, refs: refs, result: make(chan *meshing.ChunkMesh, 1)}
		method, lod := e.Method, e.LOD
		go func(task meshTask) {
			switch method {
			case VertexCulled:
				task.result <- meshing.BuildCulledMesh(task.refs, lod)
			default:
				task.result <- meshing.BuildGreedyMesh(task.refs, lod)
			}
		}(task)
		e.meshTasks = append(e.meshTasks, task)
		spawned++
	}
	e.LoadMeshQueue = append(retained, e.LoadMeshQueue[i:]...)
}

// startModifications applies queued voxel overwrites. Chunks referenced by
// in-flight mesh jobs are copied before writing so workers keep a
// consistent snapshot, and every neighbor whose meshing padding reads a
// modified edge voxel is queued for a remesh.
func (e *Engine) startModifications() {
	for pos, mods := range e.Modifications {
		delete(e.Modifications, pos)
		cd, ok := e.WorldData[pos]
		if !ok {
			continue
		}
		mutable := cd.Mutable()
		adjacent := make(map[world.ChunkPos]struct{})
		for _, m := range mods {
			mutable.Set(world.LocalToIndex(m.X, m.Y, m.Z), m.Block)
			for _, off := range world.EdgeNeighbors(m.X, m.Y, m.Z) {
				adjacent[off] = struct{}{}
			}
		}
		e.WorldData[pos] = mutable
		for off := range adjacent {
			e.LoadMeshQueue = append(e.LoadMeshQueue, pos.Add(off))
		}
		e.LoadMeshQueue = append(e.LoadMeshQueue, pos)
	}
}

// joinData polls generation jobs without blocking and installs finished
// chunks into the world map.
func (e *Engine) joinData() {
	for pos, result := range e.dataTasks {
		select {
		case cd := <-result:
			e.WorldData[pos] = cd
			delete(e.dataTasks, pos)
		default:
		}
	}
}

// joinMesh polls meshing jobs without blocking. A produced mesh replaces
// any render entity the chunk already has; a nil mesh just retires the job.
func (e *Engine) joinMesh() {
	keep := e.meshTasks[:0]
	for _, task := range e.meshTasks {
		select {
		case mesh := <-task.result:
			task.refs.Release()
			if mesh == nil {
				continue
			}
			if id, ok := e.ChunkEntities[task.pos]; ok {
				e.renderer.DespawnChunk(id)
			}
			e.ChunkEntities[task.pos] = e.renderer.SpawnChunk(task.pos, mesh)
			e.vertexCounts[task.pos] = len(mesh.Vertices)
		default:
			keep = append(keep, task)
		}
	}
	e.meshTasks = keep
}

func (e *Engine) unloadData() {
	for _, pos := range e.UnloadDataQueue {
		delete(e.WorldData, pos)
	}
	e.UnloadDataQueue = e.UnloadDataQueue[:0]
}

func (e *Engine) unloadMesh() {
	for _, pos := range e.UnloadMeshQueue {
		id, ok := e.ChunkEntities[pos]
		if !ok {
			continue
		}
		delete(e.ChunkEntities, pos)
		delete(e.vertexCounts, pos)
		e.renderer.DespawnChunk(id)
	}
	e.UnloadMeshQueue = e.UnloadMeshQueue[:0]
}

// UnloadAllMeshes drops all queued and tracked mesh state and re-enqueues
// every mesh offset around the observer. Used when the meshing method
// changes at runtime.
func (e *Engine) UnloadAllMeshes(s *Scanner, observer mgl32.Vec3) {
	e.LoadMeshQueue = e.LoadMeshQueue[:0]
	for _, task := range e.meshTasks {
		// Discard running jobs, but only drop their pins once they have
		// actually finished sampling.
		go func(t meshTask) {
			<-t.result
			t.refs.Release()
		}(task)
	}
	e.meshTasks = e.meshTasks[:0]
	scanPos := world.WorldToChunk(observer)
	for _, off := range s.meshOffsets {
		e.LoadMeshQueue = append(e.LoadMeshQueue, scanPos.Add(off))
	}
}

// RunningDataTasks returns the number of in-flight generation jobs.
func (e *Engine) RunningDataTasks() int { return len(e.dataTasks) }

// RunningMeshTasks returns the number of in-flight meshing jobs.
func (e *Engine) RunningMeshTasks() int { return len(e.meshTasks) }

// Stats is a snapshot of pipeline load for diagnostics.
type Stats struct {
	LoadDataQueue   int
	LoadMeshQueue   int
	UnloadDataQueue int
	UnloadMeshQueue int
	DataTasks       int
	MeshTasks       int
	ResidentChunks  int
	RenderedChunks  int
	TotalVertices   int
}

// Stats reports current queue depths, task counts and vertex totals.
func (e *Engine) Stats() Stats {
	total := 0
	for _, n := range e.vertexCounts {
		total += n
	}
	return Stats{
		LoadDataQueue:   len(e.LoadDataQueue),
		LoadMeshQueue:   len(e.LoadMeshQueue),
		UnloadDataQueue: len(e.UnloadDataQueue),
		UnloadMeshQueue: len(e.UnloadMeshQueue),
		DataTasks:       len(e.dataTasks),
		MeshTasks:       len(e.meshTasks),
		ResidentChunks:  len(e.WorldData),
		RenderedChunks:  len(e.ChunkEntities),
		TotalVertices:   total,
	}
}

// PregenerateRegion synchronously generates a cube of chunks around center
// so the observer spawns over terrain instead of into the void. Generation
// fans out across a bounded worker group.
func (e *Engine) PregenerateRegion(center world.ChunkPos, radius int) error {
	defer profiling.Track("engine.PregenerateRegion")()

	var pending []world.ChunkPos
	for z := -radius; z <= radius; z++ {
		for y := -radius; y <= radius; y++ {
			for x := -radius; x <= radius; x++ {
				pos := center.Add(world.ChunkPos{X: x, Y: y, Z: z})
				if _, ok := e.WorldData[pos]; !ok {
					pending = append(pending, pos)
				}
			}
		}
	}

	results := make([]*world.ChunkData, len(pending))
	var g errgroup.Group
	g.SetLimit(e.limits.MaxDataTasks)
	for i, pos := range pending {
		g.Go(func() error {
			results[i] = e.gen.Generate(pos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, pos := range pending {
		e.WorldData[pos] = results[i]
	}
	return nil
}
