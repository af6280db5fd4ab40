package sq80

import (
	"sort"
	"strings"
)

// Registry holds the open patches ordered case-insensitively by name.
// At most one entry exists per origin file.
type Registry struct {
	patches []*Patch
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Insert adds p before the first entry with a greater name. If a patch
// loaded from the same file is already present that entry is returned
// and p is discarded.
func (r *Registry) Insert(p *Patch) *Patch {
	if existing := r.FindOrigin(p.Origin); existing != nil {
		return existing
	}
	r.insertSorted(p)
	return p
}

func (r *Registry) insertSorted(p *Patch) {
	key := strings.ToLower(p.Name)
	i := sort.Search(len(r.patches), func(i int) bool {
		return strings.ToLower(r.patches[i].Name) > key
	})
	r.patches = append(r.patches, nil)
	copy(r.patches[i+1:], r.patches[i:])
	r.patches[i] = p
}

// Close drops p from the registry and clears it. It reports whether p
// was registered.
func (r *Registry) Close(p *Patch) bool {
	for i, q := range r.patches {
		if q == p {
			r.patches = append(r.patches[:i], r.patches[i+1:]...)
			*p = Patch{}
			return true
		}
	}
	return false
}

// Find returns the first patch whose name matches, ignoring case.
func (r *Registry) Find(name string) *Patch {
	for _, p := range r.patches {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// FindOrigin returns the patch loaded from or saved to path. Unsaved
// patches never match.
func (r *Registry) FindOrigin(path string) *Patch {
	if path == "" {
		return nil
	}
	for _, p := range r.patches {
		if p.Origin == path {
			return p
		}
	}
	return nil
}

// Patches returns the entries in registry order.
func (r *Registry) Patches() []*Patch {
	out := make([]*Patch, len(r.patches))
	copy(out, r.patches)
	return out
}

func (r *Registry) Len() int {
	return len(r.patches)
}

// Reorder moves p to the slot its current name belongs in, after a
// rename or a load that changed it.
func (r *Registry) Reorder(p *Patch) {
	for i, q := range r.patches {
		if q == p {
			r.patches = append(r.patches[:i], r.patches[i+1:]...)
			r.insertSorted(p)
			return
		}
	}
}
