package server

import "time"

const (
	// TicksPerSecond is the simulation rate.
	TicksPerSecond = 60
	// broadcastEvery spaces out full-state snapshots: every 6th tick,
	// roughly 100ms apart.
	broadcastEvery = 6
)

var tickInterval = time.Second / TicksPerSecond

// RunTicker is the global fixed-timestep loop: every tick it advances every
// room's entity simulation, and on the snapshot cadence it broadcasts the
// full state of each room. It never touches client sockets directly, so a
// slow session cannot stall it. Runs until stop closes.
func (s *Server) RunTicker(stop <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	var tick uint64
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			if dt <= 0 {
				dt = 1.0 / TicksPerSecond
			}
			last = now
			tick++
			s.step(dt)
			if tick%broadcastEvery == 0 {
				s.broadcastAll()
			}
		}
	}
}

// step advances every room independently. A failure inside one room's
// update is contained there; the remaining rooms still get their tick.
func (s *Server) step(dt float32) {
	for id, room := range s.rooms {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					Log.Errorf("tick: room %s update panicked: %v", id, rec)
				}
			}()
			start := time.Now()
			room.advance(dt)
			room.metrics.AddTick(time.Since(start).Nanoseconds())
		}()
	}
}

func (s *Server) broadcastAll() {
	for _, room := range s.rooms {
		room.BroadcastSnapshot()
	}
}
