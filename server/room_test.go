package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeSubscriber struct {
	name string
	room RoomID
	fail bool

	mu  sync.Mutex
	got []*Packet
}

func (f *fakeSubscriber) Deliver(p *Packet) error {
	if f.fail {
		return errors.New("subscriber closed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, p)
	return nil
}

func (f *fakeSubscriber) RoomID() RoomID { return f.room }
func (f *fakeSubscriber) Name() string   { return f.name }

func (f *fakeSubscriber) packets() []*Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Packet, len(f.got))
	copy(out, f.got)
	return out
}

func TestSubscribeRejectsWrongRoom(t *testing.T) {
	r := newRoom(RoomGame1)
	stranger := &fakeSubscriber{name: "s1", room: RoomGame2}
	r.Subscribe(stranger)
	if n := r.SubscriberCount(); n != 0 {
		t.Fatalf("subscriber count = %d after cross-room subscribe, want 0", n)
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	r := newRoom(RoomGame1)
	sub := &fakeSubscriber{name: "s1", room: RoomGame1}
	r.Subscribe(sub)
	r.Subscribe(sub)
	if n := r.SubscriberCount(); n != 1 {
		t.Fatalf("subscriber count = %d, want 1", n)
	}
}

func TestUnsubscribeAbsentIsNoop(t *testing.T) {
	r := newRoom(RoomGame1)
	r.Unsubscribe(&fakeSubscriber{name: "ghost", room: RoomGame1})
	if n := r.SubscriberCount(); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}
}

func TestMovementUpdatesOnlyOwnRoom(t *testing.T) {
	r1 := newRoom(RoomGame1)
	r2 := newRoom(RoomGame2)

	r1.ProcessPacket(NewPacket(KindMovement, "Jugador1", 1, 2))
	r1.ProcessPacket(NewPacket(KindMovement, "Jugador1", 10, 20))

	p, ok := r1.Player("Jugador1")
	if !ok {
		t.Fatal("player missing after movement")
	}
	if p.X != 10 || p.Y != 20 {
		t.Fatalf("player at (%v, %v), want latest (10, 20)", p.X, p.Y)
	}
	if p.Lives != 3 || p.Score != 0 {
		t.Fatalf("fresh player lives=%d score=%d, want 3 and 0", p.Lives, p.Score)
	}
	if n := r2.PlayerCount(); n != 0 {
		t.Fatalf("other room gained %d players", n)
	}
}

func TestProcessPacketNotifiesEverySubscriber(t *testing.T) {
	r := newRoom(RoomGame1)
	subs := []*fakeSubscriber{
		{name: "Jugador1", room: RoomGame1},
		{name: "Jugador3", room: RoomGame1},
		{name: "Jugador5", room: RoomGame1},
	}
	for _, s := range subs {
		r.Subscribe(s)
	}

	r.ProcessPacket(NewPacket(KindMovement, "Jugador1", 10, 20))

	// Notify-all policy: the sender hears its own packet back too.
	for _, s := range subs {
		got := s.packets()
		if len(got) != 1 {
			t.Fatalf("%s received %d packets, want 1", s.name, len(got))
		}
		if got[0].Kind != KindMovement || got[0].PlayerName != "Jugador1" {
			t.Fatalf("%s received unexpected packet %+v", s.name, got[0])
		}
	}
}

func TestUnrecognizedKindPassesThroughUntouched(t *testing.T) {
	r := newRoom(RoomGame1)
	sub := &fakeSubscriber{name: "s1", room: RoomGame1}
	r.Subscribe(sub)

	chat := NewPacket("CHAT", "Jugador1", 3, 4)
	r.ProcessPacket(chat)

	got := sub.packets()
	if len(got) != 1 || got[0].Kind != "CHAT" {
		t.Fatalf("passthrough packet not delivered: %v", got)
	}
	if n := r.PlayerCount(); n != 0 {
		t.Fatalf("passthrough mutated players: %d", n)
	}
	snap := r.Snapshot()
	if len(snap.Enemies) != 0 || len(snap.Fruits) != 0 {
		t.Fatal("passthrough mutated entities")
	}
}

func TestCreateEnemyUnsupportedKindSkipped(t *testing.T) {
	r := newRoom(RoomGame1)
	sub := &fakeSubscriber{name: "s1", room: RoomGame1}
	r.Subscribe(sub)

	p := NewPacket(KindCreateEnemy, "Jugador1", 0, 0)
	p.EnemyKind = "CROC_GREEN"
	r.ProcessPacket(p)

	if got := sub.packets(); len(got) != 0 {
		t.Fatalf("skipped creation still notified: %v", got)
	}
	if snap := r.Snapshot(); len(snap.Enemies) != 0 {
		t.Fatal("unsupported enemy was created")
	}
}

func TestCreateEnemyAndFruit(t *testing.T) {
	r := newRoom(RoomGame1)

	enemy := NewPacket(KindCreateEnemy, "Jugador1", 30, 100)
	enemy.EnemyKind = EnemyCrocRed
	r.ProcessPacket(enemy)

	fruit := NewPacket(KindCreateFruit, "Jugador1", 40, 50)
	fruit.Points = 25
	r.ProcessPacket(fruit)

	snap := r.Snapshot()
	if len(snap.Enemies) != 1 || snap.Enemies[0].Kind != EnemyCrocRed {
		t.Fatalf("enemies = %+v, want one CROC_RED", snap.Enemies)
	}
	if len(snap.Fruits) != 1 || snap.Fruits[0].Points != 25 {
		t.Fatalf("fruits = %+v, want one worth 25", snap.Fruits)
	}
}

func TestNotifySurvivesFailedDelivery(t *testing.T) {
	r := newRoom(RoomGame1)
	broken := &fakeSubscriber{name: "broken", room: RoomGame1, fail: true}
	healthy := &fakeSubscriber{name: "healthy", room: RoomGame1}
	r.Subscribe(broken)
	r.Subscribe(healthy)

	r.NotifySubscribers(NewPacket(KindMovement, "Jugador1", 1, 1))

	if got := healthy.packets(); len(got) != 1 {
		t.Fatalf("healthy subscriber received %d packets, want 1", len(got))
	}
	if n := atomic.LoadInt64(&r.metrics.DeliveriesFailed); n != 1 {
		t.Fatalf("deliveries_failed = %d, want 1", n)
	}
}

func TestConcurrentMovementsBothLand(t *testing.T) {
	r := newRoom(RoomGame1)

	var wg sync.WaitGroup
	for _, name := range []string{"Jugador1", "Jugador3"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.ProcessPacket(NewPacket(KindMovement, name, float32(i), float32(i)))
			}
		}(name)
	}
	wg.Wait()

	snap := r.Snapshot()
	if len(snap.Players) != 2 {
		t.Fatalf("snapshot has %d players, want 2 (lost update)", len(snap.Players))
	}
	for _, p := range snap.Players {
		if p.X != 99 || p.Y != 99 {
			t.Fatalf("%s at (%v, %v), want final (99, 99)", p.Name, p.X, p.Y)
		}
	}
}

func TestBroadcastSnapshotCarriesFullState(t *testing.T) {
	r := newRoom(RoomGame1)
	r.ProcessPacket(NewPacket(KindMovement, "Jugador1", 10, 20))

	enemy := NewPacket(KindCreateEnemy, "Jugador1", 30, 100)
	enemy.EnemyKind = EnemyCrocRed
	r.ProcessPacket(enemy)

	fruit := NewPacket(KindCreateFruit, "Jugador1", 40, 50)
	fruit.Points = 25
	r.ProcessPacket(fruit)

	sub := &fakeSubscriber{name: "watcher", room: RoomGame1}
	r.Subscribe(sub)
	r.BroadcastSnapshot()

	got := sub.packets()
	if len(got) != 1 {
		t.Fatalf("received %d packets, want 1", len(got))
	}
	if got[0].Kind != KindFullState {
		t.Fatalf("kind = %q, want %q", got[0].Kind, KindFullState)
	}
	snap, ok := got[0].Payload.(RoomSnapshot)
	if !ok {
		t.Fatalf("payload is %T, want RoomSnapshot", got[0].Payload)
	}
	if snap.Room != RoomGame1 {
		t.Fatalf("snapshot room = %s, want %s", snap.Room, RoomGame1)
	}
	if len(snap.Players) != 1 || snap.Players[0].Name != "Jugador1" {
		t.Fatalf("snapshot players = %+v", snap.Players)
	}
	if len(snap.Enemies) != 1 || len(snap.Fruits) != 1 {
		t.Fatalf("snapshot entities = %d enemies, %d fruits", len(snap.Enemies), len(snap.Fruits))
	}
}
