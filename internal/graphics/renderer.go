package graphics

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxforge/internal/config"
	"voxforge/internal/engine"
	"voxforge/internal/meshing"
	"voxforge/internal/profiling"
	"voxforge/internal/world"
)

// ChunkRenderer uploads packed chunk meshes into per-chunk vertex buffers
// and draws them. It implements engine.Renderer; all methods must run on
// the GL thread.
type ChunkRenderer struct {
	shader *Shader

	nextID  engine.EntityID
	chunks  map[engine.EntityID]*chunkEntity
	fovDeg  float32
	nearFar [2]float32
}

type chunkEntity struct {
	vao, vbo, ebo uint32
	indexCount    int32
	origin        mgl32.Vec3
}

// NewChunkRenderer compiles the chunk shader and prepares GL state.
func NewChunkRenderer() (*ChunkRenderer, error) {
	shader, err := NewShader(chunkVertexShader, chunkFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("graphics: chunk shader: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.ClearColor(0.53, 0.75, 0.92, 1.0)

	return &ChunkRenderer{
		shader:  shader,
		nextID:  1,
		chunks:  make(map[engine.EntityID]*chunkEntity),
		fovDeg:  70,
		nearFar: [2]float32{0.1, 2000},
	}, nil
}

// SpawnChunk uploads a mesh and returns the render entity id.
func (r *ChunkRenderer) SpawnChunk(pos world.ChunkPos, mesh *meshing.ChunkMesh) engine.EntityID {
	e := &chunkEntity{
		indexCount: int32(len(mesh.Indices)),
		origin: mgl32.Vec3{
			float32(pos.X * world.ChunkSize),
			float32(pos.Y * world.ChunkSize),
			float32(pos.Z * world.ChunkSize),
		},
	}

	gl.GenVertexArrays(1, &e.vao)
	gl.BindVertexArray(e.vao)

	gl.GenBuffers(1, &e.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, e.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*4, gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	// One packed uint32 per vertex; the shader unpacks it.
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribIPointerWithOffset(0, 1, gl.UNSIGNED_INT, 4, 0)

	gl.GenBuffers(1, &e.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, e.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	id := r.nextID
	r.nextID++
	r.chunks[id] = e
	return id
}

// DespawnChunk deletes the entity's GL buffers.
func (r *ChunkRenderer) DespawnChunk(id engine.EntityID) {
	e, ok := r.chunks[id]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &e.vbo)
	gl.DeleteBuffers(1, &e.ebo)
	gl.DeleteVertexArrays(1, &e.vao)
	delete(r.chunks, id)
}

// Render draws every live chunk entity from the camera's point of view.
func (r *ChunkRenderer) Render(cam *Camera, width, height int) {
	defer profiling.Track("graphics.Render")()

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if config.GetWireframeMode() {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	projection := mgl32.Perspective(
		mgl32.DegToRad(r.fovDeg),
		float32(width)/float32(height),
		r.nearFar[0], r.nearFar[1],
	)
	view := cam.ViewMatrix()

	r.shader.Use()
	r.shader.SetMatrix4("uProjection", &projection[0])
	r.shader.SetMatrix4("uView", &view[0])

	for _, e := range r.chunks {
		r.shader.SetVector3("uChunkOrigin", e.origin.X(), e.origin.Y(), e.origin.Z())
		gl.BindVertexArray(e.vao)
		gl.DrawElements(gl.TRIANGLES, e.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
}

// Dispose releases every entity and the shader.
func (r *ChunkRenderer) Dispose() {
	for id := range r.chunks {
		r.DespawnChunk(id)
	}
	r.shader.Dispose()
}

const chunkVertexShader = `#version 410 core
layout (location = 0) in uint aVertex;

uniform mat4 uProjection;
uniform mat4 uView;
uniform vec3 uChunkOrigin;

flat out uint vBlockType;
flat out uint vNormal;
out float vAO;

void main() {
    float x = float(aVertex & 0x3Fu);
    float y = float((aVertex >> 6) & 0x3Fu);
    float z = float((aVertex >> 12) & 0x3Fu);
    uint ao = (aVertex >> 18) & 0x7u;
    vNormal = (aVertex >> 21) & 0xFu;
    vBlockType = (aVertex >> 25) & 0x7Fu;
    vAO = 1.0 - float(ao) * 0.22;
    gl_Position = uProjection * uView * vec4(uChunkOrigin + vec3(x, y, z), 1.0);
}
`

const chunkFragmentShader = `#version 410 core
flat in uint vBlockType;
flat in uint vNormal;
in float vAO;

out vec4 FragColor;

// Face brightness: top > sides > bottom.
const float faceLight[6] = float[6](0.80, 0.80, 0.55, 1.00, 0.70, 0.70);

vec3 blockColor(uint t) {
    if (t == 1u) return vec3(0.36, 0.62, 0.27); // grass
    if (t == 2u) return vec3(0.47, 0.33, 0.22); // dirt
    return vec3(1.0, 0.0, 1.0);
}

void main() {
    vec3 color = blockColor(vBlockType) * faceLight[vNormal] * vAO;
    FragColor = vec4(color, 1.0);
}
`
