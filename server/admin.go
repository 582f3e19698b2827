package server

import (
	"encoding/json"
	"net/http"
)

// HandleMetrics reports one room's runtime metrics.
// GET /metrics?room=JUEGO_1
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := RoomID(r.URL.Query().Get("room"))
	if roomID == "" {
		roomID = RoomGame1
	}
	room := s.Room(roomID)
	if room == nil {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	payload := map[string]any{
		"room":    roomID,
		"metrics": room.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// HandleRooms lists every room with its subscriber and player counts.
// GET /rooms
func (s *Server) HandleRooms(w http.ResponseWriter, r *http.Request) {
	type roomInfo struct {
		Room        RoomID `json:"room"`
		Subscribers int    `json:"subscribers"`
		Players     int    `json:"players"`
	}
	out := make([]roomInfo, 0, len(AllRooms))
	for _, id := range AllRooms {
		room := s.rooms[id]
		out = append(out, roomInfo{
			Room:        id,
			Subscribers: room.SubscriberCount(),
			Players:     room.PlayerCount(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
