package core

import (
	"sort"
	"sync"
)

// Registry maps a username to its active transport session id. At most one
// live entry exists per username; a later registration under the same name
// overwrites the earlier mapping. The raw map never escapes.
type Registry struct {
	mu     sync.Mutex
	byName map[string]string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]string)}
}

// Register records or overwrites the mapping for username.
func (r *Registry) Register(username, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[username] = sessionID
}

// Resolve returns the session id currently registered for username.
func (r *Registry) Resolve(username string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[username]
	return id, ok
}

// Remove deletes the entry whose value equals sessionID, found by reverse
// lookup. Unknown session ids are a no-op. Returns true if an entry was
// removed.
func (r *Registry) Remove(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, id := range r.byName {
		if id == sessionID {
			delete(r.byName, name)
			return true
		}
	}
	return false
}

// Usernames returns the sorted set of registered usernames.
func (r *Registry) Usernames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
