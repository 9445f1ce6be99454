package engine

import (
	"sort"

	"github.com/cmmoran/autoctor/internal/model"
)

// Schedule orders the auto-construct candidates so every base comes before
// its descendants: ascending inheritance depth, discovery order for ties.
// A type listed twice is scheduled once.
func Schedule(types []*model.TypeDescriptor) []*model.TypeDescriptor {
	seen := make(map[model.TypeKey]bool, len(types))
	out := make([]*model.TypeDescriptor, 0, len(types))
	for _, t := range types {
		if t == nil || !t.Markers.AutoConstruct {
			continue
		}
		k := t.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}

	depths := make(map[*model.TypeDescriptor]int, len(out))
	for _, t := range out {
		depths[t] = t.Depth()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return depths[out[i]] < depths[out[j]]
	})
	return out
}

// baseCache holds the resolved parameter list of every type processed so far
// in one run. Entries are written once and never replaced.
type baseCache struct {
	lists map[model.TypeKey]*model.ParameterList
}

func newBaseCache() *baseCache {
	return &baseCache{lists: make(map[model.TypeKey]*model.ParameterList)}
}

func (c *baseCache) get(k model.TypeKey) (*model.ParameterList, bool) {
	l, ok := c.lists[k]
	return l, ok
}

// put stores l under k unless k is already present.
func (c *baseCache) put(k model.TypeKey, l *model.ParameterList) bool {
	if _, ok := c.lists[k]; ok {
		return false
	}
	c.lists[k] = l
	return true
}

// inherited returns the resolved list of t's base, closed over t's type
// arguments. nil means the base was not auto-constructed in this run.
func (c *baseCache) inherited(t *model.TypeDescriptor) *model.ParameterList {
	if t.Base == nil || t.Base.Type == nil {
		return nil
	}
	l, ok := c.get(t.Base.Type.Key())
	if !ok {
		return nil
	}
	return model.NewParameterList(SubstituteBase(l.All(), t.Base), nil)
}
