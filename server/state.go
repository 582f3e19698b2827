package server

import "time"

const (
	playerStartLives = 3
)

// PlayerState is the authoritative record for one player inside a room.
type PlayerState struct {
	Name  string  `json:"id"`
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Lives int     `json:"vidas"`
	Score int     `json:"puntos"`
}

// RoomState holds one room's players and entities. It has no locking of its
// own: every call site goes through the owning Room's mutex.
type RoomState struct {
	players    map[string]*PlayerState
	enemies    []*Enemy
	fruits     []*Fruit
	lastUpdate time.Time
}

func newRoomState() *RoomState {
	return &RoomState{
		players:    make(map[string]*PlayerState),
		lastUpdate: time.Now(),
	}
}

// upsertPlayer records the latest position for name, creating the player on
// first sight with starting lives and zero score.
func (st *RoomState) upsertPlayer(name string, x, y float32) {
	p, ok := st.players[name]
	if !ok {
		p = &PlayerState{Name: name, Lives: playerStartLives}
		st.players[name] = p
	}
	p.X = x
	p.Y = y
	st.lastUpdate = time.Now()
}

// removePlayer deletes name from the room, reporting whether it was present.
func (st *RoomState) removePlayer(name string) bool {
	if _, ok := st.players[name]; !ok {
		return false
	}
	delete(st.players, name)
	st.lastUpdate = time.Now()
	return true
}

func (st *RoomState) addEnemy(e *Enemy) {
	st.enemies = append(st.enemies, e)
	st.lastUpdate = time.Now()
}

func (st *RoomState) addFruit(f *Fruit) {
	st.fruits = append(st.fruits, f)
	st.lastUpdate = time.Now()
}

// advance steps every enemy by dt and drops the ones whose update marked
// them dead. Fruits are static.
func (st *RoomState) advance(dt float32) {
	if len(st.enemies) == 0 {
		return
	}
	kept := st.enemies[:0]
	for _, e := range st.enemies {
		e.Advance(dt)
		if e.Alive {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(st.enemies); i++ {
		st.enemies[i] = nil
	}
	st.enemies = kept
	st.lastUpdate = time.Now()
}

// RoomSnapshot is the full-state payload broadcast to a room's subscribers.
type RoomSnapshot struct {
	Room      RoomID        `json:"evento"`
	Players   []PlayerState `json:"jugadores"`
	Enemies   []Enemy       `json:"enemigos"`
	Fruits    []Fruit       `json:"frutas"`
	Timestamp int64         `json:"timestamp"`
}

// snapshot copies the current state into a detached value safe to serialize
// after the room lock is released.
func (st *RoomState) snapshot(room RoomID) RoomSnapshot {
	snap := RoomSnapshot{
		Room:      room,
		Players:   make([]PlayerState, 0, len(st.players)),
		Enemies:   make([]Enemy, 0, len(st.enemies)),
		Fruits:    make([]Fruit, 0, len(st.fruits)),
		Timestamp: st.lastUpdate.UnixMilli(),
	}
	for _, p := range st.players {
		snap.Players = append(snap.Players, *p)
	}
	for _, e := range st.enemies {
		snap.Enemies = append(snap.Enemies, *e)
	}
	for _, f := range st.fruits {
		snap.Fruits = append(snap.Fruits, *f)
	}
	return snap
}
