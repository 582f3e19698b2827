package server

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 1 << 20 // 1MB
)

// Session lifecycle phases.
const (
	phaseConnecting int32 = iota
	phaseActive
	phaseClosing
	phaseClosed
)

// ConnectionSession owns one client websocket. It is bound to exactly one
// room for its whole life: inbound frames feed that room's publisher, and
// the room's notifications come back out through Deliver.
type ConnectionSession struct {
	id     string // registry key
	name   string // display name, sequential per run
	room   *Room
	server *Server
	ws     *websocket.Conn

	writeMu sync.Mutex // serializes frames from concurrent producers
	phase   atomic.Int32
	live    atomic.Bool
	closing atomic.Bool
}

func newSession(name string, room *Room, srv *Server, ws *websocket.Conn) *ConnectionSession {
	s := &ConnectionSession{
		id:     uuid.NewString(),
		name:   name,
		room:   room,
		server: srv,
		ws:     ws,
	}
	s.phase.Store(phaseConnecting)
	s.live.Store(true)
	return s
}

// Name returns the session's display name.
func (s *ConnectionSession) Name() string { return s.name }

// RoomID returns the room the session was bound to at accept time.
func (s *ConnectionSession) RoomID() RoomID { return s.room.ID() }

// Live reports whether the session still accepts I/O.
func (s *ConnectionSession) Live() bool { return s.live.Load() }

// Phase returns the session's lifecycle phase.
func (s *ConnectionSession) Phase() int32 { return s.phase.Load() }

// Deliver implements Subscriber: one packet, one websocket frame. The write
// mutex keeps the tick-loop broadcast and direct notifications from ever
// interleaving on the wire. A dead session drops the packet silently; a
// failed write kills the session through the usual teardown.
func (s *ConnectionSession) Deliver(p *Packet) error {
	if !s.live.Load() {
		return nil
	}
	b, err := EncodePacket(p)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	err = s.ws.WriteMessage(websocket.TextMessage, b)
	s.writeMu.Unlock()
	if err != nil {
		s.live.Store(false)
		// Teardown on its own goroutine: Deliver is called mid-broadcast
		// and removal re-enters the room.
		go s.teardown()
		return fmt.Errorf("send to %s: %w", s.name, err)
	}
	return nil
}

// readLoop blocks on the socket until the peer goes away or Stop is called:
// read one frame, decode, forward to the bound room. Decode failures drop
// the message and keep the connection; read failures (EOF included) end the
// session.
func (s *ConnectionSession) readLoop() {
	defer s.teardown()
	s.phase.Store(phaseActive)
	s.ws.SetReadLimit(maxMessageSize)

	for s.live.Load() {
		_, payload, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				Log.Warnf("session %s: read failed: %v", s.name, err)
			}
			return
		}
		p, err := DecodePacket(payload)
		if err != nil {
			Log.Warnf("session %s: dropping message: %v", s.name, err)
			continue
		}
		if !p.Valid() {
			Log.Warnf("session %s: dropping packet without kind", s.name)
			continue
		}
		if p.PlayerName == "" {
			p.PlayerName = s.name
		}
		s.room.ProcessPacket(p)
	}
}

// Stop requests session shutdown. Safe to call from any goroutine, any
// number of times.
func (s *ConnectionSession) Stop() {
	s.teardown()
}

// teardown runs the close sequence exactly once: mark dead, remove from the
// server (which unsubscribes and announces the disconnect), release the
// socket.
func (s *ConnectionSession) teardown() {
	if !s.closing.CompareAndSwap(false, true) {
		return
	}
	s.phase.Store(phaseClosing)
	s.live.Store(false)
	s.server.RemoveSession(s)
	_ = s.ws.Close()
	s.phase.Store(phaseClosed)
}
