package server

import (
	"fmt"
	"sync/atomic"
)

// Enemy behavior kinds.
const (
	EnemyCrocRed  = "CROC_RED"  // patrols vertically between two bounds
	EnemyCrocBlue = "CROC_BLUE" // falls until the limit, then dies
)

// Tuning for the stock enemies.
const (
	crocRedMinY   float32 = 100
	crocRedMaxY   float32 = 300
	crocRedSpeed  float32 = 60
	crocBlueLimit float32 = 400
	crocBlueSpeed float32 = 70
)

// nextEntityID hands out ids unique across every room in the process.
var nextEntityID atomic.Int64

// Enemy is one moving hazard. Behavior is dispatched on Kind.
type Enemy struct {
	ID    int64   `json:"id"`
	Kind  string  `json:"tipo"`
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Speed float32 `json:"velocidad"`
	Alive bool    `json:"-"`

	minY, maxY float32 // CROC_RED patrol bounds
	limitY     float32 // CROC_BLUE death line
	descending bool
}

// NewEnemy builds an enemy of the given kind at (x, y). Unknown kinds fail;
// callers log and skip the creation.
func NewEnemy(kind string, x, y float32) (*Enemy, error) {
	switch kind {
	case EnemyCrocRed:
		return &Enemy{
			ID:         nextEntityID.Add(1),
			Kind:       kind,
			X:          x,
			Y:          y,
			Speed:      crocRedSpeed,
			Alive:      true,
			minY:       crocRedMinY,
			maxY:       crocRedMaxY,
			descending: true,
		}, nil
	case EnemyCrocBlue:
		return &Enemy{
			ID:     nextEntityID.Add(1),
			Kind:   kind,
			X:      x,
			Y:      y,
			Speed:  crocBlueSpeed,
			Alive:  true,
			limitY: crocBlueLimit,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported enemy kind %q", kind)
	}
}

// Advance moves the enemy by dt seconds. A red croc reverses exactly at its
// bounds (clamped, never overshooting); a blue croc dies once it crosses its
// limit and stays dead.
func (e *Enemy) Advance(dt float32) {
	switch e.Kind {
	case EnemyCrocRed:
		if e.descending {
			e.Y += e.Speed * dt
			if e.Y >= e.maxY {
				e.Y = e.maxY
				e.descending = false
			}
		} else {
			e.Y -= e.Speed * dt
			if e.Y <= e.minY {
				e.Y = e.minY
				e.descending = true
			}
		}
	case EnemyCrocBlue:
		if !e.Alive {
			return
		}
		e.Y += e.Speed * dt
		if e.Y >= e.limitY {
			e.Alive = false
		}
	}
}

// Fruit is a static pickup. Collected is reserved and stays false.
type Fruit struct {
	ID        int64   `json:"id"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Points    int     `json:"puntos"`
	Collected bool    `json:"collected"`
}

// NewFruit builds a fruit worth the given points at (x, y).
func NewFruit(x, y float32, points int) *Fruit {
	return &Fruit{
		ID:     nextEntityID.Add(1),
		X:      x,
		Y:      y,
		Points: points,
	}
}
