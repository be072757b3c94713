package engine

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxforge/internal/profiling"
	"voxforge/internal/world"
)

// MaxScans caps how many unresolved positions a scanner resolves per frame,
// amortizing bookkeeping cost on large render distances.
const MaxScans = 26000

// chunkPosSentinel is far enough away that the first tick always counts as
// a chunk-cell change and loads the whole initial area.
var chunkPosSentinel = world.ChunkPos{X: math.MaxInt32, Y: math.MaxInt32, Z: math.MaxInt32}

// Scanner watches an observer and turns chunk-cell crossings into engine
// load/unload requests. Data and mesh run the same recipe with independent
// offset sets; data reaches one chunk further because meshing needs all 27
// neighbors resident.
type Scanner struct {
	prevChunkPos world.ChunkPos

	dataOffsets []world.ChunkPos
	meshOffsets []world.ChunkPos

	unresolvedDataLoad []world.ChunkPos
	unresolvedMeshLoad []world.ChunkPos

	unresolvedDataUnload []world.ChunkPos
	unresolvedMeshUnload []world.ChunkPos
}

// NewScanner builds a scanner covering the given distance in chunks.
// Construction cost grows with the cube of the distance.
func NewScanner(distance int) *Scanner {
	return &Scanner{
		prevChunkPos: chunkPosSentinel,
		dataOffsets:  makeOffsets(distance + 1),
		meshOffsets:  makeOffsets(distance),
	}
}

// makeOffsets returns all offsets of a (2*half+1)^3 cube around the origin,
// sorted by squared distance ascending so closer chunks load first.
func makeOffsets(half int) []world.ChunkPos {
	k := 2*half + 1
	offsets := make([]world.ChunkPos, 0, k*k*k)
	for z := -half; z <= half; z++ {
		for y := -half; y <= half; y++ {
			for x := -half; x <= half; x++ {
				offsets = append(offsets, world.ChunkPos{X: x, Y: y, Z: z})
			}
		}
	}
	origin := world.ChunkPos{}
	sort.SliceStable(offsets, func(i, j int) bool {
		return offsets[i].DistSq(origin) < offsets[j].DistSq(origin)
	})
	return offsets
}

// Tick runs one scanner frame: detect observer movement, then resolve
// pending loads and unloads against the engine's queues.
func (s *Scanner) Tick(e *Engine, observer mgl32.Vec3) {
	defer profiling.Track("engine.Scanner.Tick")()
	s.detectMove(e, observer)
	s.scanData(e)
	s.scanDataUnload(e)
	s.scanMeshUnload(e)
	s.scanMesh(e)
}

// detectMove diffs the offset areas around the previous and current chunk
// cells and enqueues the difference. Staying inside the same cell is free.
func (s *Scanner) detectMove(e *Engine, observer mgl32.Vec3) {
	chunkPos := world.WorldToChunk(observer)
	prev := s.prevChunkPos
	if chunkPos == prev {
		return
	}
	s.prevChunkPos = chunkPos

	if prev == chunkPosSentinel {
		// First scan: everything in range loads, nothing can unload.
		for _, off := range s.dataOffsets {
			s.unresolvedDataLoad = append(s.unresolvedDataLoad, chunkPos.Add(off))
		}
		for _, off := range s.meshOffsets {
			s.unresolvedMeshLoad = append(s.unresolvedMeshLoad, chunkPos.Add(off))
		}
		return
	}

	dataLoad, dataUnload := diffAreas(s.dataOffsets, prev, chunkPos)
	meshLoad, meshUnload := diffAreas(s.meshOffsets, prev, chunkPos)

	s.unresolvedDataLoad = append(s.unresolvedDataLoad, dataLoad...)
	s.unresolvedDataUnload = append(s.unresolvedDataUnload, dataUnload...)
	s.unresolvedMeshLoad = append(s.unresolvedMeshLoad, meshLoad...)
	s.unresolvedMeshUnload = append(s.unresolvedMeshUnload, meshUnload...)

	// A position that is now leaving the area cancels any not-yet-started
	// load the engine still has queued for it.
	for _, p := range s.unresolvedMeshUnload {
		e.LoadMeshQueue = removeChunkPos(e.LoadMeshQueue, p)
	}
	for _, p := range s.unresolvedDataUnload {
		e.LoadDataQueue = removeChunkPos(e.LoadDataQueue, p)
	}

	// Pending loads for positions that are now leaving are dropped too.
	s.unresolvedMeshLoad = retainNotIn(s.unresolvedMeshLoad, s.unresolvedMeshUnload)
	s.unresolvedDataLoad = retainNotIn(s.unresolvedDataLoad, s.unresolvedDataUnload)

	sort.SliceStable(s.unresolvedMeshLoad, func(i, j int) bool {
		return s.unresolvedMeshLoad[i].DistSq(chunkPos) < s.unresolvedMeshLoad[j].DistSq(chunkPos)
	})
	sort.SliceStable(s.unresolvedDataLoad, func(i, j int) bool {
		return s.unresolvedDataLoad[i].DistSq(chunkPos) < s.unresolvedDataLoad[j].DistSq(chunkPos)
	})
}

// diffAreas returns cur+offsets minus prev+offsets (load) and the reverse
// difference (unload).
func diffAreas(offsets []world.ChunkPos, prev, cur world.ChunkPos) (load, unload []world.ChunkPos) {
	prevArea := make(map[world.ChunkPos]struct{}, len(offsets))
	curArea := make(map[world.ChunkPos]struct{}, len(offsets))
	for _, off := range offsets {
		prevArea[prev.Add(off)] = struct{}{}
		curArea[cur.Add(off)] = struct{}{}
	}
	for _, off := range offsets {
		if p := cur.Add(off); !containsKey(prevArea, p) {
			load = append(load, p)
		}
		if p := prev.Add(off); !containsKey(curArea, p) {
			unload = append(unload, p)
		}
	}
	return load, unload
}

func containsKey(m map[world.ChunkPos]struct{}, p world.ChunkPos) bool {
	_, ok := m[p]
	return ok
}

func removeChunkPos(queue []world.ChunkPos, p world.ChunkPos) []world.ChunkPos {
	for i, q := range queue {
		if q == p {
			return append(queue[:i], queue[i+1:]...)
		}
	}
	return queue
}

func retainNotIn(keep, drop []world.ChunkPos) []world.ChunkPos {
	dropSet := make(map[world.ChunkPos]struct{}, len(drop))
	for _, p := range drop {
		dropSet[p] = struct{}{}
	}
	out := keep[:0]
	for _, p := range keep {
		if !containsKey(dropSet, p) {
			out = append(out, p)
		}
	}
	return out
}

// scanData moves unresolved data loads into the engine's load queue unless
// the chunk is already resident, queued or generating.
func (s *Scanner) scanData(e *Engine) {
	if e.RunningDataTasks() >= e.limits.MaxDataTasks {
		return
	}
	n := min(MaxScans, len(s.unresolvedDataLoad))
	for _, pos := range s.unresolvedDataLoad[:n] {
		busy := containsChunkPos(e.LoadDataQueue, pos) || e.dataTasks[pos] != nil
		if _, resident := e.WorldData[pos]; resident || busy {
			continue
		}
		e.LoadDataQueue = append(e.LoadDataQueue, pos)
		e.UnloadDataQueue = removeChunkPos(e.UnloadDataQueue, pos)
	}
	s.unresolvedDataLoad = s.unresolvedDataLoad[n:]
}

// scanDataUnload queues unloads for chunks that are actually resident.
func (s *Scanner) scanDataUnload(e *Engine) {
	for _, pos := range s.unresolvedDataUnload {
		if _, resident := e.WorldData[pos]; resident {
			e.UnloadDataQueue = append(e.UnloadDataQueue, pos)
		}
	}
	s.unresolvedDataUnload = s.unresolvedDataUnload[:0]
}

func (s *Scanner) scanMeshUnload(e *Engine) {
	for _, pos := range s.unresolvedMeshUnload {
		e.UnloadMeshQueue = append(e.UnloadMeshQueue, pos)
	}
	s.unresolvedMeshUnload = s.unresolvedMeshUnload[:0]
}

// scanMesh moves unresolved mesh loads into the engine's queue once all 27
// data chunks of the neighborhood are resident; positions that are not
// ready yet are retried on later frames.
func (s *Scanner) scanMesh(e *Engine) {
	var retries []world.ChunkPos
	n := min(MaxScans, len(s.unresolvedMeshLoad))
	for _, pos := range s.unresolvedMeshLoad[:n] {
		if containsChunkPos(e.LoadMeshQueue, pos) {
			continue
		}
		ready := true
		for _, off := range world.NeighborOffsets() {
			if _, ok := e.WorldData[pos.Add(off)]; !ok {
				ready = false
				break
			}
		}
		if !ready {
			retries = append(retries, pos)
			continue
		}
		e.LoadMeshQueue = append(e.LoadMeshQueue, pos)
		e.UnloadMeshQueue = removeChunkPos(e.UnloadMeshQueue, pos)
	}
	s.unresolvedMeshLoad = append(s.unresolvedMeshLoad[n:], retries...)
}

func containsChunkPos(queue []world.ChunkPos, p world.ChunkPos) bool {
	for _, q := range queue {
		if q == p {
			return true
		}
	}
	return false
}

// DataOffsets exposes the data sampling offsets, closest first.
func (s *Scanner) DataOffsets() []world.ChunkPos { return s.dataOffsets }

// MeshOffsets exposes the mesh sampling offsets, closest first.
func (s *Scanner) MeshOffsets() []world.ChunkPos { return s.meshOffsets }
