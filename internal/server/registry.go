package server

import (
	"sync"
)

// ConnectionRegistry maps live connections to (identity, basecamp) and
// tracks which identities are present in each room. It is process-local
// state, rebuilt empty on restart; the durable stores remain the source
// of truth for everything but live presence.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]*Client            // connection id → client
	users map[string]map[string]*Client // username → connection id → client
	rooms map[string]map[string]*Client // basecamp → connection id → client
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]*Client),
		users: make(map[string]map[string]*Client),
		rooms: make(map[string]map[string]*Client),
	}
}

// Add registers a connection. Idempotent per connection id: registering
// the same id twice reports firstInRoom only once.
func (r *ConnectionRegistry) Add(c *Client) (firstInRoom bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c.id]; ok {
		return false
	}

	r.conns[c.id] = c

	if r.users[c.user.Username] == nil {
		r.users[c.user.Username] = make(map[string]*Client)
	}
	r.users[c.user.Username][c.id] = c

	if r.rooms[c.camp.Id] == nil {
		r.rooms[c.camp.Id] = make(map[string]*Client)
	}
	r.rooms[c.camp.Id][c.id] = c

	return !r.identityInRoomLocked(c.user.Username, c.camp.Id, c.id)
}

// Remove deregisters a connection and reports whether it was the
// identity's last connection in its room. Removing an unknown id is a
// no-op.
func (r *ConnectionRegistry) Remove(c *Client) (lastInRoom bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c.id]; !ok {
		return false
	}

	delete(r.conns, c.id)

	if userConns, ok := r.users[c.user.Username]; ok {
		delete(userConns, c.id)
		if len(userConns) == 0 {
			delete(r.users, c.user.Username)
		}
	}

	if roomConns, ok := r.rooms[c.camp.Id]; ok {
		delete(roomConns, c.id)
		if len(roomConns) == 0 {
			delete(r.rooms, c.camp.Id)
		}
	}

	return !r.identityInRoomLocked(c.user.Username, c.camp.Id, "")
}

// identityInRoomLocked reports whether the identity has a connection in
// the room other than excludeId. Caller holds the lock.
func (r *ConnectionRegistry) identityInRoomLocked(username, basecamp, excludeId string) bool {
	for id, conn := range r.rooms[basecamp] {
		if id == excludeId {
			continue
		}
		if conn.user.Username == username {
			return true
		}
	}

	return false
}

// RoomConnections returns every live connection in a basecamp.
func (r *ConnectionRegistry) RoomConnections(basecamp string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Client, 0, len(r.rooms[basecamp]))
	for _, c := range r.rooms[basecamp] {
		conns = append(conns, c)
	}

	return conns
}

// UserConnections returns every live connection for an identity,
// supporting multi-device delivery.
func (r *ConnectionRegistry) UserConnections(username string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Client, 0, len(r.users[username]))
	for _, c := range r.users[username] {
		conns = append(conns, c)
	}

	return conns
}

// Connections returns every live connection.
func (r *ConnectionRegistry) Connections() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}

	return conns
}

func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
