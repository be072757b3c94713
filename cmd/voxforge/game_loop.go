package main

import (
	"fmt"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"voxforge/internal/config"
	"voxforge/internal/engine"
	"voxforge/internal/graphics"
	"voxforge/internal/profiling"
)

// GameLoop owns per-frame state: input, simulation ticking and rendering.
type GameLoop struct {
	window   *glfw.Window
	renderer *graphics.ChunkRenderer
	camera   *graphics.Camera
	engine   *engine.Engine
	scanner  *engine.Scanner

	lastTime  time.Time
	lastStats time.Time

	lastCursorX, lastCursorY float64
	cursorSeen               bool
}

// NewGameLoop wires the frame loop together.
func NewGameLoop(window *glfw.Window, r *graphics.ChunkRenderer, cam *graphics.Camera, e *engine.Engine, s *engine.Scanner) *GameLoop {
	return &GameLoop{
		window:    window,
		renderer:  r,
		camera:    cam,
		engine:    e,
		scanner:   s,
		lastTime:  time.Now(),
		lastStats: time.Now(),
	}
}

// SetupInput installs the cursor and key callbacks.
func (g *GameLoop) SetupInput() {
	g.window.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if !g.cursorSeen {
			g.lastCursorX, g.lastCursorY = xpos, ypos
			g.cursorSeen = true
			return
		}
		g.camera.ProcessMouse(xpos-g.lastCursorX, ypos-g.lastCursorY)
		g.lastCursorX, g.lastCursorY = xpos, ypos
	})

	g.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyF:
			config.ToggleWireframeMode()
		case glfw.KeyR:
			// Swap meshing algorithm and rebuild everything in view.
			if g.engine.Method == engine.BinaryGreedy {
				g.engine.Method = engine.VertexCulled
			} else {
				g.engine.Method = engine.BinaryGreedy
			}
			g.engine.UnloadAllMeshes(g.scanner, g.camera.Position)
		}
	})
}

// Run drives frames until the window closes.
func (g *GameLoop) Run() {
	for !g.window.ShouldClose() {
		g.tick()
	}
}

func (g *GameLoop) tick() {
	profiling.ResetFrame()
	now := time.Now()
	dt := now.Sub(g.lastTime).Seconds()
	g.lastTime = now

	glfw.PollEvents()
	g.processMovement(dt)

	g.scanner.Tick(g.engine, g.camera.Position)
	g.engine.Update(g.camera.Position)

	width, height := g.window.GetFramebufferSize()
	g.renderer.Render(g.camera, width, height)
	g.window.SwapBuffers()

	if now.Sub(g.lastStats) >= 2*time.Second {
		g.lastStats = now
		st := g.engine.Stats()
		fmt.Printf("chunks=%d rendered=%d verts=%d queues(d/m)=%d/%d tasks(d/m)=%d/%d | %s\n",
			st.ResidentChunks, st.RenderedChunks, st.TotalVertices,
			st.LoadDataQueue, st.LoadMeshQueue, st.DataTasks, st.MeshTasks,
			profiling.TopN(3))
	}
}

func (g *GameLoop) processMovement(dt float64) {
	var forward, right, up float32
	if g.window.GetKey(glfw.KeyW) == glfw.Press {
		forward++
	}
	if g.window.GetKey(glfw.KeyS) == glfw.Press {
		forward--
	}
	if g.window.GetKey(glfw.KeyD) == glfw.Press {
		right++
	}
	if g.window.GetKey(glfw.KeyA) == glfw.Press {
		right--
	}
	if g.window.GetKey(glfw.KeySpace) == glfw.Press {
		up++
	}
	if g.window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		up--
	}
	g.camera.Move(forward, right, up, dt)
}
