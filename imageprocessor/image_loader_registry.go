package imageprocessor

import (
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"findidentical/logging"
)

// Backend selects which decoder family the registry uses
type Backend string

const (
	BackendGo     Backend = "go"
	BackendOpenCV Backend = "opencv"
)

// ParseBackend validates a backend name; empty means BackendGo
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(name)) {
	case "", BackendGo:
		return BackendGo, nil
	case BackendOpenCV:
		return BackendOpenCV, nil
	}
	return "", fmt.Errorf("unknown decoder backend %q (want %q or %q)", name, BackendGo, BackendOpenCV)
}

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a registry whose loaders come from the given backend
func NewImageLoaderRegistry(backend Backend) *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	var loader ImageLoader
	switch backend {
	case BackendOpenCV:
		loader = NewOpenCVImageLoader()
	default:
		loader = NewStandardImageLoader()
	}

	for _, ext := range GetSupportedExtensions() {
		registry.RegisterLoader(ext, loader)
	}
	registry.defaultLoader = loader

	logging.LogInfo("Registered %s decoder backend for %d extensions", backend, len(registry.loaders))
	return registry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if loader, ok := r.loaders[strings.ToLower(filepath.Ext(path))]; ok {
		return loader
	}
	return r.defaultLoader
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadPixels decodes path with its registered loader. Decoder panics on
// corrupt input are turned into errors so one bad file cannot take down a batch.
func (r *ImageLoaderRegistry) LoadPixels(path string, channels int) (buf *PixelBuffer, err error) {
	loader := r.GetLoader(path)
	if loader == nil || !loader.CanLoad(path) {
		return nil, fmt.Errorf("no suitable loader found for: %s", path)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.LogError("Panic during image loading: %v, file: %s\nStack trace: %s", rec, path, string(debug.Stack()))
			buf = nil
			err = fmt.Errorf("panic while decoding %s: %v", path, rec)
		}
	}()

	return loader.LoadPixels(path, channels)
}
