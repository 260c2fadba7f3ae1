package stage

import (
	"slices"

	"github.com/AaronLay10/GameMap/internal/content"
)

var streamableMimes = []string{"video/mp4", "video/webm", "video/ogg"}

// adaptDescriptor applies library-specific parameter tweaks before the
// instance is created. desc must already be a private copy.
func adaptDescriptor(desc *content.Descriptor) {
	if desc.Params == nil {
		desc.Params = make(map[string]any)
	}

	switch desc.MachineName() {
	case content.VideoLibrary:
		visuals, ok := desc.Params["visuals"].(map[string]any)
		if !ok {
			visuals = make(map[string]any)
			desc.Params["visuals"] = visuals
		}
		visuals["fit"] = hasStreamableSource(desc.Params["sources"])

	case content.AudioLibrary:
		if mode, _ := desc.Params["playerMode"].(string); mode == "full" {
			desc.Params["fitToWrapper"] = true
		}
	}
}

func hasStreamableSource(v any) bool {
	sources, ok := v.([]any)
	if !ok {
		return false
	}
	for _, s := range sources {
		src, ok := s.(map[string]any)
		if !ok {
			continue
		}
		if mime, _ := src["mime"].(string); slices.Contains(streamableMimes, mime) {
			return true
		}
	}
	return false
}
