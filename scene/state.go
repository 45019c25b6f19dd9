package scene

import "fmt"

var stateFields = map[string]bool{
	"name": true, "text": true, "background": true, "sprites": true,
}

var backgroundFields = map[string]bool{
	"image": true, "position": true, "color": true,
}

// validatePagePartial enforces the page command's deep-partial strict scene
// state schema: only known fields, at every level, with the right shapes.
func validatePagePartial(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("page: expected a mapping")
	}
	for k := range m {
		if !stateFields[k] {
			return nil, fmt.Errorf("page: unknown field %q", k)
		}
	}
	if name, ok := m["name"]; ok {
		if _, ok := name.(string); !ok {
			return nil, fmt.Errorf("page: \"name\" must be a string")
		}
	}
	if text, ok := m["text"]; ok {
		if _, ok := text.(string); !ok {
			return nil, fmt.Errorf("page: \"text\" must be a string")
		}
	}
	if bg, ok := m["background"]; ok {
		bgm, ok := bg.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("page: \"background\" must be a mapping")
		}
		for k := range bgm {
			if !backgroundFields[k] {
				return nil, fmt.Errorf("page: unknown background field %q", k)
			}
		}
		if image, ok := bgm["image"]; ok && image != nil {
			if _, ok := image.(string); !ok {
				return nil, fmt.Errorf("page: \"background.image\" must be a string or null")
			}
		}
		if position, ok := bgm["position"]; ok {
			if _, ok := position.(string); !ok {
				return nil, fmt.Errorf("page: \"background.position\" must be a string")
			}
		}
		if color, ok := bgm["color"]; ok {
			if _, ok := color.(string); !ok {
				return nil, fmt.Errorf("page: \"background.color\" must be a string")
			}
		}
	}
	if sprites, ok := m["sprites"]; ok {
		if _, ok := sprites.([]any); !ok {
			return nil, fmt.Errorf("page: \"sprites\" must be a list")
		}
	}
	return m, nil
}

// mergeState applies a validated partial onto the live state: mappings
// merge recursively, everything else (scalars, lists, including sprites)
// overwrites wholesale.
func mergeState(dst, partial map[string]any) {
	for k, v := range partial {
		if incoming, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeState(existing, incoming)
				continue
			}
		}
		dst[k] = v
	}
}
