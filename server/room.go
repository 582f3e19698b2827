package server

import (
	"sync"
	"time"
)

// RoomID identifies one of the fixed game instances.
type RoomID string

const (
	RoomGame1 RoomID = "JUEGO_1"
	RoomGame2 RoomID = "JUEGO_2"
)

// AllRooms is the closed set of rooms the server creates at startup.
var AllRooms = []RoomID{RoomGame1, RoomGame2}

// Subscriber is anything that can receive packets for one room. Live
// connections and test doubles implement it alike.
type Subscriber interface {
	// Deliver sends one packet to the endpoint. A failure only affects
	// this subscriber; broadcasts carry on regardless.
	Deliver(p *Packet) error
	// RoomID is the room the subscriber is bound to, fixed at creation.
	RoomID() RoomID
	// Name is the subscriber's display name, unique within one run.
	Name() string
}

// Room is the publisher for one game instance: it owns the authoritative
// RoomState and the subscriber set, and is the only component allowed to
// mutate either. State is touched by client goroutines (ProcessPacket) and
// the tick loop (advance), so both collections sit behind their own lock.
type Room struct {
	id RoomID

	mu    sync.Mutex // guards state
	state *RoomState

	subMu       sync.Mutex // guards subscribers
	subscribers map[string]Subscriber

	metrics *RoomMetrics
}

func newRoom(id RoomID) *Room {
	return &Room{
		id:          id,
		state:       newRoomState(),
		subscribers: make(map[string]Subscriber),
		metrics:     &RoomMetrics{},
	}
}

// ID returns the room's identifier.
func (r *Room) ID() RoomID { return r.id }

// Subscribe adds s to the room. A subscriber bound to a different room is
// rejected with a log entry, not an error. Re-subscribing is a no-op.
func (r *Room) Subscribe(s Subscriber) {
	if s == nil {
		return
	}
	if s.RoomID() != r.id {
		Log.Warnf("room %s: rejecting subscriber %s bound to %s", r.id, s.Name(), s.RoomID())
		return
	}
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if _, ok := r.subscribers[s.Name()]; ok {
		return
	}
	r.subscribers[s.Name()] = s
	Log.Infof("room %s: subscriber %s added, total %d", r.id, s.Name(), len(r.subscribers))
}

// Unsubscribe removes s if present.
func (r *Room) Unsubscribe(s Subscriber) {
	if s == nil {
		return
	}
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if _, ok := r.subscribers[s.Name()]; !ok {
		return
	}
	delete(r.subscribers, s.Name())
	Log.Infof("room %s: subscriber %s removed, total %d", r.id, s.Name(), len(r.subscribers))
}

// SubscriberCount returns the current subscriber set size.
func (r *Room) SubscriberCount() int {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	return len(r.subscribers)
}

// NotifySubscribers delivers p to every current subscriber, sender included.
// Iteration runs over a detached copy so joins and leaves on other
// goroutines never invalidate it, and one failed delivery never blocks the
// rest.
func (r *Room) NotifySubscribers(p *Packet) {
	if !p.Valid() {
		Log.Warnf("room %s: refusing to notify with invalid packet", r.id)
		return
	}
	r.subMu.Lock()
	subs := make([]Subscriber, 0, len(r.subscribers))
	for _, s := range r.subscribers {
		subs = append(subs, s)
	}
	r.subMu.Unlock()

	for _, s := range subs {
		if err := s.Deliver(p); err != nil {
			r.metrics.IncDeliveryFailed()
			Log.Warnf("room %s: delivery to %s failed: %v", r.id, s.Name(), err)
		}
	}
}

// ProcessPacket applies p to the room state, then notifies the room.
// Unrecognized kinds skip the mutation and are retransmitted as-is. A
// CREAR_ENEMIGO with an unsupported kind is skipped entirely.
func (r *Room) ProcessPacket(p *Packet) {
	if !p.Valid() {
		return
	}
	switch p.Kind {
	case KindMovement:
		r.mu.Lock()
		r.state.upsertPlayer(p.PlayerName, p.X, p.Y)
		r.mu.Unlock()
	case KindCreateEnemy:
		e, err := NewEnemy(p.EnemyKind, p.X, p.Y)
		if err != nil {
			Log.Warnf("room %s: %v", r.id, err)
			return
		}
		r.mu.Lock()
		r.state.addEnemy(e)
		r.mu.Unlock()
	case KindCreateFruit:
		r.mu.Lock()
		r.state.addFruit(NewFruit(p.X, p.Y, p.Points))
		r.mu.Unlock()
	default:
		// Passthrough: no state change, retransmit verbatim.
	}
	r.metrics.IncPacketsProcessed()
	r.NotifySubscribers(p)
}

// BroadcastSnapshot sends the full current state to every subscriber.
func (r *Room) BroadcastSnapshot() {
	r.mu.Lock()
	snap := r.state.snapshot(r.id)
	r.mu.Unlock()

	p := &Packet{
		Kind:       KindFullState,
		PlayerName: "Server",
		Payload:    snap,
		Timestamp:  time.Now().UnixMilli(),
	}
	r.metrics.IncBroadcasts()
	r.NotifySubscribers(p)
}

// RemovePlayer drops name from the room state, reporting whether it existed.
func (r *Room) RemovePlayer(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.removePlayer(name)
}

// Player returns a copy of the named player's state.
func (r *Room) Player(name string) (PlayerState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.players[name]
	if !ok {
		return PlayerState{}, false
	}
	return *p, true
}

// PlayerCount returns the number of players currently in the room state.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.players)
}

// Snapshot returns a detached copy of the current room state.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.snapshot(r.id)
}

// advance steps the room's entity simulation by dt seconds.
func (r *Room) advance(dt float32) {
	r.mu.Lock()
	r.state.advance(dt)
	r.mu.Unlock()
}
