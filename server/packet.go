package server

import (
	"encoding/json"
	"fmt"
	"time"
)

// Packet kinds. The tags travel on the wire verbatim; kinds the server does
// not recognize are retransmitted to the room untouched.
const (
	KindMovement    = "MOVIMIENTO"
	KindCreateEnemy = "CREAR_ENEMIGO"
	KindCreateFruit = "CREAR_FRUTA"
	KindFullState   = "ESTADO_JUEGO"
	KindWelcome     = "BIENVENIDA"
	KindDisconnect  = "DESCONEXION"
)

// Packet is one message between client and server (JSON text frame, same
// shape in both directions). Unknown fields are ignored on decode.
type Packet struct {
	Kind       string  `json:"tipo"`
	PlayerName string  `json:"playerName,omitempty"`
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Points     int     `json:"puntos,omitempty"`
	EnemyKind  string  `json:"enemyTipo,omitempty"`
	Payload    any     `json:"datos,omitempty"`
	Timestamp  int64   `json:"timestamp"`
}

// NewPacket builds a packet with the common fields and a fresh timestamp.
func NewPacket(kind, playerName string, x, y float32) *Packet {
	return &Packet{
		Kind:       kind,
		PlayerName: playerName,
		X:          x,
		Y:          y,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// Valid reports whether the packet carries the minimum required data.
// A non-empty kind is enough; unrecognized kinds are still forwarded.
func (p *Packet) Valid() bool {
	return p != nil && p.Kind != ""
}

// Recognized reports whether the server applies this kind to room state.
func (p *Packet) Recognized() bool {
	switch p.Kind {
	case KindMovement, KindCreateEnemy, KindCreateFruit,
		KindFullState, KindWelcome, KindDisconnect:
		return true
	}
	return false
}

// EncodePacket serializes a packet for the wire.
func EncodePacket(p *Packet) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode packet: %w", err)
	}
	return b, nil
}

// DecodePacket parses one wire message. Malformed input fails; extra JSON
// fields are silently dropped.
func DecodePacket(b []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode packet: %w", err)
	}
	return &p, nil
}
