// Package runtime owns the transient per-process state of the chat engine:
// which participants hold a live connection, and how events reach them.
// Nothing in here is persisted; after a restart every participant is
// offline until they reconnect.
package runtime

import (
	"sort"
	"sync"

	"pairchat/contract"
	"pairchat/errors"
)

// PresenceRegistry maps roomID -> userID -> live connection, with a
// reverse map for fast per-user lookup. It is an explicit instance passed
// to the connection layer, never ambient package state.
//
// Join and Leave compare connection identity, not userID: a reconnect
// replaces the stored connection, and the stale disconnect of the old one
// arriving later must be a no-op.
type PresenceRegistry struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]contract.Conn
	userConns map[string]contract.Conn
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		rooms:     make(map[string]map[string]contract.Conn),
		userConns: make(map[string]contract.Conn),
	}
}

// Join registers conn for (roomID, userID) and returns the member list of
// the room, joiner included. An existing connection for the same userID is
// atomically replaced; a third distinct userID is rejected with the
// capacity error before any state changes.
func (p *PresenceRegistry) Join(roomID, userID string, conn contract.Conn) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	members, ok := p.rooms[roomID]
	if !ok {
		members = make(map[string]contract.Conn)
		p.rooms[roomID] = members
	}

	if _, known := members[userID]; !known && len(members) >= 2 {
		return nil, errors.ErrRoomFull
	}

	// Replacing an old connection also invalidates its identity: the
	// disconnect handler for the replaced conn will fail the equality
	// check in Leave and not touch presence.
	members[userID] = conn
	p.userConns[userID] = conn

	list := make([]string, 0, len(members))
	for id := range members {
		list = append(list, id)
	}
	sort.Strings(list)
	return list, nil
}

// Leave clears the mapping only if conn is still the registered connection
// for userID. It reports whether removal actually happened; a stale
// disconnect after a reconnect returns false and changes nothing.
func (p *PresenceRegistry) Leave(roomID, userID string, conn contract.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	members, ok := p.rooms[roomID]
	if !ok {
		return false
	}
	current, ok := members[userID]
	if !ok || current != conn {
		return false
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(p.rooms, roomID)
	}
	if p.userConns[userID] == conn {
		delete(p.userConns, userID)
	}
	return true
}

// Members returns the userIDs currently connected to roomID.
func (p *PresenceRegistry) Members(roomID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	members := p.rooms[roomID]
	list := make([]string, 0, len(members))
	for id := range members {
		list = append(list, id)
	}
	sort.Strings(list)
	return list
}

// Conns returns a snapshot of the live connections in roomID keyed by userID.
func (p *PresenceRegistry) Conns(roomID string) map[string]contract.Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make(map[string]contract.Conn, len(p.rooms[roomID]))
	for id, conn := range p.rooms[roomID] {
		snapshot[id] = conn
	}
	return snapshot
}
