package content

import "strings"

// Descriptor identifies embedded content: a library ("H5P.Video 1.6") plus
// the library-specific parameters.
type Descriptor struct {
	Library      string         `json:"library"`
	Params       map[string]any `json:"params"`
	SubContentID string         `json:"subContentId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// MachineName returns the library name without its version.
func (d Descriptor) MachineName() string {
	name, _, _ := strings.Cut(strings.TrimSpace(d.Library), " ")
	return name
}

// Clone returns a deep copy so callers can adapt parameters without touching
// the original descriptor.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Params = cloneMap(d.Params)
	out.Metadata = cloneMap(d.Metadata)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
