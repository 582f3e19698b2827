package server

import (
	"sync/atomic"
)

// RoomMetrics tracks per-room runtime counters for monitoring and debugging.
type RoomMetrics struct {
	PacketsProcessed int64 // packets applied (or passed through) by the room
	BroadcastsSent   int64 // full-state snapshots broadcast
	DeliveriesFailed int64 // per-subscriber delivery failures
	TickCount        int64 // simulation ticks run
	TotalTickNs      int64 // cumulative tick time (ns)
}

func (m *RoomMetrics) IncPacketsProcessed() { atomic.AddInt64(&m.PacketsProcessed, 1) }
func (m *RoomMetrics) IncBroadcasts()       { atomic.AddInt64(&m.BroadcastsSent, 1) }
func (m *RoomMetrics) IncDeliveryFailed()   { atomic.AddInt64(&m.DeliveriesFailed, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot returns a read-only copy suitable for HTTP output.
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":        tick,
		"packets_processed": atomic.LoadInt64(&m.PacketsProcessed),
		"broadcasts_sent":   atomic.LoadInt64(&m.BroadcastsSent),
		"deliveries_failed": atomic.LoadInt64(&m.DeliveriesFailed),
		"avg_tick_ms":       avgMs,
	}
}
