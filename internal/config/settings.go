package config

import "sync"

// RenderSettings holds render state toggled at runtime from input handlers.
type RenderSettings struct {
	mu            sync.RWMutex
	wireframeMode bool
}

var globalRenderSettings = &RenderSettings{}

// GetWireframeMode returns whether wireframe rendering is enabled.
func GetWireframeMode() bool {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.wireframeMode
}

// ToggleWireframeMode flips wireframe rendering.
func ToggleWireframeMode() {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.wireframeMode = !globalRenderSettings.wireframeMode
}
