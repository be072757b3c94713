package main

import (
	"flag"
	"log"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"voxforge/internal/config"
	"voxforge/internal/engine"
	"voxforge/internal/graphics"
	"voxforge/internal/world"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "voxforge.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := glfw.Init(); err != nil {
		log.Fatal(err)
	}
	defer glfw.Terminate()

	window, err := setupWindow(cfg.Window)
	if err != nil {
		log.Fatal(err)
	}

	if err := gl.Init(); err != nil {
		log.Fatal(err)
	}

	renderer, err := graphics.NewChunkRenderer()
	if err != nil {
		log.Fatal(err)
	}
	defer renderer.Dispose()

	gen := world.NewGenerator(cfg.Seed)
	eng := engine.New(gen, renderer, engine.Limits{
		MaxDataTasks: cfg.Engine.MaxDataTasks,
		MaxMeshTasks: cfg.Engine.MaxMeshTasks,
	})
	if cfg.Engine.MeshingMethod == "culled" {
		eng.Method = engine.VertexCulled
	}

	scanner := engine.NewScanner(cfg.Scanner.Distance)
	camera := graphics.NewCamera(mgl32.Vec3{16, 48, 16})

	// Seed the world around the spawn point before the first frame so the
	// camera does not stare into the void while tasks ramp up.
	if err := eng.PregenerateRegion(world.WorldToChunk(camera.Position), cfg.Engine.PregenRadius); err != nil {
		log.Fatal(err)
	}

	loop := NewGameLoop(window, renderer, camera, eng, scanner)
	loop.SetupInput()
	loop.Run()
}

func setupWindow(cfg config.WindowConfig) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}
