package profile

// Legacy shape adapters. Older exports used different key layouts; each
// adapter rewrites one historical shape onto the canonical keys. Adapters are
// applied in registration order by FromMapping and must be no-ops when their
// legacy keys are absent. They never overwrite a canonical key that is
// already present.

// Adapter rewrites legacy keys in a mapping to the canonical layout.
type Adapter func(map[string]any) map[string]any

var adapters []namedAdapter

type namedAdapter struct {
	name string
	fn   Adapter
}

// RegisterAdapter adds a named legacy-shape adapter. Registration order is
// application order.
func RegisterAdapter(name string, fn Adapter) {
	adapters = append(adapters, namedAdapter{name: name, fn: fn})
}

func applyAdapters(m map[string]any) map[string]any {
	// Work on a copy so callers' mappings are never mutated.
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, a := range adapters {
		out = a.fn(out)
	}
	return out
}

func init() {
	// "background-block": backstory used to live under a "background" key,
	// either as prose or as a nested block with its own sub-keys.
	RegisterAdapter("background-block", func(m map[string]any) map[string]any {
		raw, ok := m["background"]
		if !ok {
			return m
		}
		switch v := raw.(type) {
		case string:
			if _, has := m["backstory"]; !has {
				m["backstory"] = v
			}
		case map[string]any:
			moveKey(v, m, "backstory", "backstory")
			moveKey(v, m, "relationships", "relationships")
			moveKey(v, m, "formative_experiences", "formative_experiences")
			moveKey(v, m, "social_connections", "social_connections")
		}
		return m
	})

	// "nicknames": the canonical identity field is aliases.
	RegisterAdapter("nicknames", func(m map[string]any) map[string]any {
		if v, ok := m["nicknames"]; ok {
			if _, has := m["aliases"]; !has {
				m["aliases"] = v
			}
		}
		return m
	})

	// "flat-psychology": singular top-level psychology keys from the oldest
	// exports (motivation, fear, desire, conflict).
	RegisterAdapter("flat-psychology", func(m map[string]any) map[string]any {
		moveKey(m, m, "motivation", "motivations")
		moveKey(m, m, "fear", "fears")
		moveKey(m, m, "desire", "desires")
		moveKey(m, m, "conflict", "conflicts")
		return m
	})
}

// moveKey copies src[from] to dst[to] when dst[to] is absent.
func moveKey(src, dst map[string]any, from, to string) {
	v, ok := src[from]
	if !ok {
		return
	}
	if _, has := dst[to]; !has {
		dst[to] = v
	}
}
