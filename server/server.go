package server

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Server owns the fixed room table, the session registry, and the accept
// path. Rooms are created once at construction; the table is read-only
// afterwards.
type Server struct {
	rooms map[RoomID]*Room

	regMu    sync.Mutex
	sessions map[string]*ConnectionSession

	joined atomic.Int64 // sequential join counter, names and room parity

	upgrader websocket.Upgrader
}

// NewServer builds a server with one publisher per room in AllRooms.
func NewServer() *Server {
	rooms := make(map[RoomID]*Room, len(AllRooms))
	for _, id := range AllRooms {
		rooms[id] = newRoom(id)
		Log.Infof("publisher created for %s", id)
	}
	return &Server{
		rooms:    rooms,
		sessions: make(map[string]*ConnectionSession),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Room looks up a publisher by id; nil for unknown rooms.
func (s *Server) Room(id RoomID) *Room {
	return s.rooms[id]
}

// SessionCount returns the number of registered sessions.
func (s *Server) SessionCount() int {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	return len(s.sessions)
}

// roomForJoin alternates players between the two games: odd join numbers go
// to JUEGO_1, even to JUEGO_2.
func roomForJoin(n int64) RoomID {
	if n%2 == 1 {
		return RoomGame1
	}
	return RoomGame2
}

// HandleWS is the accept path: upgrade, assign a sequential name and a room,
// register, subscribe, start the read loop, greet. An upgrade failure only
// costs this one connection.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade failed: %v", err)
		return
	}

	n := s.joined.Add(1)
	name := fmt.Sprintf("Jugador%d", n)
	room := s.rooms[roomForJoin(n)]

	sess := newSession(name, room, s, ws)
	s.register(sess)
	room.Subscribe(sess)
	go sess.readLoop()

	welcome := &Packet{
		Kind:       KindWelcome,
		PlayerName: "Server",
		Payload:    fmt.Sprintf("Bienvenido %s al %s", name, room.ID()),
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := sess.Deliver(welcome); err != nil {
		Log.Warnf("welcome to %s failed: %v", name, err)
		return
	}
	Log.Infof("%s connected from %s, assigned to %s", name, r.RemoteAddr, room.ID())
}

func (s *Server) register(sess *ConnectionSession) {
	s.regMu.Lock()
	s.sessions[sess.id] = sess
	s.regMu.Unlock()
}

// RemoveSession tears down a session's server-side footprint: registry
// entry, room subscription, player state. The rest of the room hears about
// it through one DESCONEXION packet. Idempotent.
func (s *Server) RemoveSession(sess *ConnectionSession) {
	s.regMu.Lock()
	_, ok := s.sessions[sess.id]
	if ok {
		delete(s.sessions, sess.id)
	}
	s.regMu.Unlock()
	if !ok {
		return
	}

	room := sess.room
	room.Unsubscribe(sess)
	room.RemovePlayer(sess.name)
	Log.Infof("%s disconnected from %s", sess.name, room.ID())
	room.NotifySubscribers(NewPacket(KindDisconnect, sess.name, 0, 0))
}
