package gazetteer

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// BuildFunc produces an org's gazetteer on a registry miss
type BuildFunc func() (*Gazetteer, error)

// Registry caches one account-scoped gazetteer per organization for the
// lifetime of the process. Each snapshot carries the catalog version it was
// built from; a request with a different version rebuilds it. Concurrent
// misses for the same org and version share a single build.
type Registry struct {
	mu    sync.RWMutex
	byOrg map[string]snapshot
	group singleflight.Group
}

type snapshot struct {
	gazetteer *Gazetteer
	version   string
}

func NewRegistry() *Registry {
	return &Registry{byOrg: make(map[string]snapshot)}
}

// GetOrBuild returns the cached snapshot for orgID when it was built from
// version, and builds and caches a new one otherwise. Failed builds are not
// cached.
func (r *Registry) GetOrBuild(orgID, version string, build BuildFunc) (*Gazetteer, error) {
	if g, ok := r.cached(orgID, version); ok {
		return g, nil
	}

	v, err, _ := r.group.Do(orgID+"\x00"+version, func() (interface{}, error) {
		if g, ok := r.cached(orgID, version); ok {
			return g, nil
		}

		built, err := build()
		if err != nil {
			return nil, err
		}
		if built == nil {
			built = New(nil)
		}

		r.mu.Lock()
		r.byOrg[orgID] = snapshot{gazetteer: built, version: version}
		r.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Gazetteer), nil
}

func (r *Registry) cached(orgID, version string) (*Gazetteer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.byOrg[orgID]
	if !ok || snap.version != version {
		return nil, false
	}
	return snap.gazetteer, true
}

// Invalidate drops the cached snapshot so the next call rebuilds it
func (r *Registry) Invalidate(orgID string) {
	r.mu.Lock()
	delete(r.byOrg, orgID)
	r.mu.Unlock()
}

// Len is the number of cached organizations
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOrg)
}
