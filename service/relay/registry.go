package relay

import (
	"sync"
)

// Registry tracks which user, if any, currently owns which live
// session. It is rebuilt empty on every process start and owned by the
// Server's composition root; handlers receive it by reference.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]*Client)}
}

// Record inserts or overwrites the mapping for userID. Last write
// wins: a re-join from a second session displaces the first mapping.
// The displaced session is not closed here; the transport layer keeps
// owning its lifetime.
func (r *Registry) Record(userID string, c *Client) {
	if userID == "" || c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = c
}

// Lookup returns the session currently registered for userID. Absence
// means the user is offline, which callers treat as a normal outcome.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// Remove deletes the mapping for userID. Removing an absent key is a
// no-op.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
}

// RemoveClient deletes every entry pointing at this session. Used on
// transport disconnect, where the user ID is unknown at the call site.
// The scan visits all entries: a session may appear under several user
// IDs if the client re-joined under a new identity without leaving.
func (r *Registry) RemoveClient(c *Client) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for user, owner := range r.byUser {
		if owner == c {
			delete(r.byUser, user)
		}
	}
}

// Online returns the user IDs currently registered.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for user := range r.byUser {
		out = append(out, user)
	}
	return out
}

// Len reports the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
