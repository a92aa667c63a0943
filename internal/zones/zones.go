package zones

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Zone is a named axis-aligned rectangle in world tile coordinates,
// inclusive of its edges.
type Zone struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (z Zone) Contains(x, y int) bool {
	return x >= z.X && x <= z.X+z.Width && y >= z.Y && y <= z.Y+z.Height
}

// Registry is the host's set of defined zones, loaded once at startup.
type Registry struct {
	byName map[string]Zone
	names  []string // sorted
}

func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var zs []Zone
	if err := json.Unmarshal(raw, &zs); err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}
	return New(zs)
}

func New(zs []Zone) (*Registry, error) {
	r := &Registry{byName: make(map[string]Zone, len(zs))}
	for _, z := range zs {
		if z.Name == "" {
			return nil, fmt.Errorf("zone with empty name")
		}
		if _, dup := r.byName[z.Name]; dup {
			return nil, fmt.Errorf("duplicate zone %q", z.Name)
		}
		if z.Width < 0 || z.Height < 0 {
			return nil, fmt.Errorf("zone %q: negative extent", z.Name)
		}
		r.byName[z.Name] = z
		r.names = append(r.names, z.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Exists reports whether a zone with this exact (case-sensitive) name is defined.
func (r *Registry) Exists(name string) bool {
	_, ok := r.byName[name]
	return ok
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// InAny reports whether (x,y) lies inside at least one of the named zones.
// Names that are not defined in the registry are skipped.
func (r *Registry) InAny(names []string, x, y int) bool {
	for _, n := range names {
		if z, ok := r.byName[n]; ok && z.Contains(x, y) {
			return true
		}
	}
	return false
}
