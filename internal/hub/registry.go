package hub

import (
	"slices"
	"sync"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

// Member is a connection that can be placed in rooms.
type Member interface {
	// ID returns the server-assigned connection id.
	ID() string

	// Deliver queues msg for the connection without blocking. It reports
	// whether the message was accepted.
	Deliver(msg signaling.Message) bool
}

// room is a set of members. mu guards members and closed; closed is set
// once the room has been unlinked from the registry so late arrivals retry
// against a fresh room.
type room struct {
	id      string
	mu      sync.Mutex
	members map[string]Member
	closed  bool
}

// Registry maps room ids to their members. The registry lock only guards
// the maps; everything that touches a room's members runs under that
// room's own lock, so rooms never serialize against each other.
type Registry struct {
	mu          sync.Mutex
	rooms       map[string]*room
	memberships map[string]map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*room),
		memberships: make(map[string]map[string]struct{}),
	}
}

// acquire returns roomID locked, creating it when absent.
func (r *Registry) acquire(roomID string) *room {
	for {
		r.mu.Lock()
		rm, ok := r.rooms[roomID]
		if !ok {
			rm = &room{id: roomID, members: make(map[string]Member)}
			r.rooms[roomID] = rm
		}
		r.mu.Unlock()

		rm.mu.Lock()
		if !rm.closed {
			return rm
		}
		rm.mu.Unlock()
	}
}

// lookup returns roomID locked, or nil when it does not exist.
func (r *Registry) lookup(roomID string) *room {
	r.mu.Lock()
	rm := r.rooms[roomID]
	r.mu.Unlock()
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	if rm.closed {
		rm.mu.Unlock()
		return nil
	}
	return rm
}

// release unlocks rm, unlinking it first when it has no members left.
func (r *Registry) release(rm *room) {
	if len(rm.members) == 0 {
		rm.closed = true
		r.mu.Lock()
		if r.rooms[rm.id] == rm {
			delete(r.rooms, rm.id)
		}
		r.mu.Unlock()
	}
	rm.mu.Unlock()
}

// Join adds m to roomID and delivers announce to every other member.
// Joining a room m is already in changes nothing and announces nothing;
// the return value reports whether m was newly added.
func (r *Registry) Join(m Member, roomID string, announce signaling.Message) bool {
	rm := r.acquire(roomID)
	defer r.release(rm)

	if _, ok := rm.members[m.ID()]; ok {
		return false
	}

	for _, other := range rm.members {
		other.Deliver(announce)
	}
	rm.members[m.ID()] = m

	r.mu.Lock()
	set, ok := r.memberships[m.ID()]
	if !ok {
		set = make(map[string]struct{})
		r.memberships[m.ID()] = set
	}
	set[roomID] = struct{}{}
	r.mu.Unlock()

	return true
}

// LeaveAll removes the member from every room it belongs to and returns
// the ids of those rooms.
func (r *Registry) LeaveAll(memberID string) []string {
	r.mu.Lock()
	set := r.memberships[memberID]
	delete(r.memberships, memberID)
	r.mu.Unlock()

	roomIDs := make([]string, 0, len(set))
	for roomID := range set {
		roomIDs = append(roomIDs, roomID)
		if rm := r.lookup(roomID); rm != nil {
			delete(rm.members, memberID)
			r.release(rm)
		}
	}
	slices.Sort(roomIDs)
	return roomIDs
}

// Broadcast delivers msg to every member of roomID except the one with id
// exclude, and returns the number of members that accepted it. An empty
// exclude reaches the whole room.
func (r *Registry) Broadcast(roomID, exclude string, msg signaling.Message) int {
	rm := r.lookup(roomID)
	if rm == nil {
		return 0
	}
	defer r.release(rm)

	delivered := 0
	for id, m := range rm.members {
		if id == exclude {
			continue
		}
		if m.Deliver(msg) {
			delivered++
		}
	}
	return delivered
}

// Unicast delivers msg to the member with id to, but only while that member
// is in roomID. It reports whether the message was delivered.
func (r *Registry) Unicast(roomID, to string, msg signaling.Message) bool {
	rm := r.lookup(roomID)
	if rm == nil {
		return false
	}
	defer r.release(rm)

	m, ok := rm.members[to]
	if !ok {
		return false
	}
	return m.Deliver(msg)
}

// Members returns the sorted ids of the members of roomID.
func (r *Registry) Members(roomID string) []string {
	rm := r.lookup(roomID)
	if rm == nil {
		return nil
	}
	defer r.release(rm)

	ids := make([]string, 0, len(rm.members))
	for id := range rm.members {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
