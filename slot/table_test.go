package slot

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/rigado/bridge"
)

var peer = bridge.MustParseAddr("00:a0:50:11:22:33")

func TestAllocateFree(t *testing.T) {
	tb := New(nil)

	i, err := tb.Allocate(0x40, bridge.RolePeripheral, peer)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got, ok := tb.Find(0x40); !ok || got != i {
		t.Fatalf("find: exp %v, got %v %v", i, got, ok)
	}
	if tb.Peripherals() != 1 || tb.Len() != 1 {
		t.Fatalf("counters: peripherals %v, len %v", tb.Peripherals(), tb.Len())
	}
	if _, ok := tb.Central(); ok {
		t.Fatal("unexpected central")
	}

	s, err := tb.Free(0x40)
	if err != nil {
		t.Fatalf("free: %v", err)
	}
	if s.Index != i || s.Role != bridge.RolePeripheral || s.Peer != peer {
		t.Fatalf("freed slot mismatch: %+v", s)
	}
	if _, ok := tb.Find(0x40); ok {
		t.Fatal("handle still mapped after free")
	}
	if tb.Peripherals() != 0 || tb.Len() != 0 {
		t.Fatalf("counters after free: peripherals %v, len %v", tb.Peripherals(), tb.Len())
	}
}

func TestFreeUnknown(t *testing.T) {
	tb := New(nil)
	_, err := tb.Free(0x99)
	if errors.Cause(err) != bridge.ErrUnknownHandle {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestPeripheralQuota(t *testing.T) {
	tb := New(nil)
	for h := bridge.Handle(1); h <= bridge.MaxPeripherals; h++ {
		if _, err := tb.Allocate(h, bridge.RolePeripheral, peer); err != nil {
			t.Fatalf("allocate %v: %v", h, err)
		}
	}
	if !tb.Full() {
		t.Fatal("table not full")
	}

	_, err := tb.Allocate(0x10, bridge.RolePeripheral, peer)
	if errors.Cause(err) != bridge.ErrSlotTableFull {
		t.Fatalf("expected ErrSlotTableFull, got %v", err)
	}
	if tb.Peripherals() != bridge.MaxPeripherals {
		t.Fatalf("peripherals %v after rejection", tb.Peripherals())
	}

	// the central slot is still free
	if _, err := tb.Allocate(0x20, bridge.RoleCentral, peer); err != nil {
		t.Fatalf("central allocate: %v", err)
	}
	if tb.Len() != bridge.MaxSlots {
		t.Fatalf("len %v", tb.Len())
	}
}

func TestSecondCentral(t *testing.T) {
	tb := New(nil)
	if _, err := tb.Allocate(0x20, bridge.RoleCentral, peer); err != nil {
		t.Fatal(err)
	}
	_, err := tb.Allocate(0x21, bridge.RoleCentral, peer)
	if errors.Cause(err) != bridge.ErrCentralExists {
		t.Fatalf("expected ErrCentralExists, got %v", err)
	}
	c, ok := tb.Central()
	if !ok || c.Handle != 0x20 {
		t.Fatalf("central changed: %+v %v", c, ok)
	}
}

func TestStaleHandle(t *testing.T) {
	tb := New(nil)
	if _, err := tb.Allocate(0x40, bridge.RoleCentral, peer); err != nil {
		t.Fatal(err)
	}

	// same handle comes up again without a down event
	other := bridge.MustParseAddr("00:a0:50:44:55:66")
	i, err := tb.Allocate(0x40, bridge.RolePeripheral, other)
	if err != nil {
		t.Fatalf("re-allocate: %v", err)
	}

	n := 0
	tb.Each(func(s Slot) bool {
		if s.Handle == 0x40 {
			n++
		}
		return true
	})
	if n != 1 {
		t.Fatalf("handle mapped to %v slots", n)
	}
	if _, ok := tb.Central(); ok {
		t.Fatal("stale central slot not freed")
	}
	s, _ := tb.Get(i)
	if s.Peer != other || s.Role != bridge.RolePeripheral {
		t.Fatalf("slot mismatch %+v", s)
	}
	if err := tb.check(); err != nil {
		t.Fatal(err)
	}
}

func TestIndexReuse(t *testing.T) {
	tb := New(nil)
	a, _ := tb.Allocate(1, bridge.RolePeripheral, peer)
	b, _ := tb.Allocate(2, bridge.RolePeripheral, peer)
	if a == b {
		t.Fatalf("same index %v", a)
	}
	if _, err := tb.Free(1); err != nil {
		t.Fatal(err)
	}
	c, _ := tb.Allocate(3, bridge.RolePeripheral, peer)
	if c != a {
		t.Fatalf("freed index not reused: exp %v, got %v", a, c)
	}
}

func TestSecurity(t *testing.T) {
	tb := New(nil)
	i, _ := tb.Allocate(1, bridge.RolePeripheral, peer)

	st := bridge.SecurityState{SMPRole: bridge.SMPRoleInitiator, Phase: bridge.Pairing}
	if err := tb.SetSecurity(i, st); err != nil {
		t.Fatal(err)
	}
	if got, ok := tb.Security(i); !ok || got != st {
		t.Fatalf("security mismatch: %+v", got)
	}
	if err := tb.SetSecurity(bridge.MaxSlots, st); err == nil {
		t.Fatal("no error for out of range slot")
	}

	// a freed slot starts over
	tb.Free(1)
	j, _ := tb.Allocate(2, bridge.RolePeripheral, peer)
	if got, _ := tb.Security(j); got.Phase != bridge.Unpaired {
		t.Fatalf("phase %v after re-use", got.Phase)
	}
}

func TestFindAddr(t *testing.T) {
	tb := New(nil)
	tb.Allocate(1, bridge.RoleCentral, peer)
	if _, ok := tb.FindAddr(peer, bridge.RolePeripheral); ok {
		t.Fatal("matched the wrong role")
	}
	tb.Allocate(2, bridge.RolePeripheral, peer)
	i, ok := tb.FindAddr(peer, bridge.RolePeripheral)
	if !ok {
		t.Fatal("peer not found")
	}
	if s, _ := tb.Get(i); s.Handle != 2 {
		t.Fatalf("wrong slot %+v", s)
	}
}

func TestInvalidRole(t *testing.T) {
	tb := New(nil)
	if _, err := tb.Allocate(1, bridge.RoleNone, peer); err == nil {
		t.Fatal("no error for RoleNone")
	}
	if tb.Len() != 0 {
		t.Fatal("slot taken for invalid role")
	}
}

func TestRandomUpDown(t *testing.T) {
	tb := New(nil)
	model := map[bridge.Handle]bridge.Role{}
	rnd := rand.New(rand.NewSource(1))

	count := func(role bridge.Role) int {
		n := 0
		for _, r := range model {
			if r == role {
				n++
			}
		}
		return n
	}

	for step := 0; step < 5000; step++ {
		h := bridge.Handle(1 + rnd.Intn(8))

		if rnd.Intn(2) == 0 {
			role := bridge.RolePeripheral
			if rnd.Intn(4) == 0 {
				role = bridge.RoleCentral
			}
			delete(model, h)

			var exp error
			switch {
			case role == bridge.RoleCentral && count(bridge.RoleCentral) > 0:
				exp = bridge.ErrCentralExists
			case role == bridge.RolePeripheral && count(bridge.RolePeripheral) >= bridge.MaxPeripherals:
				exp = bridge.ErrSlotTableFull
			}
			_, err := tb.Allocate(h, role, peer)
			if errors.Cause(err) != exp {
				t.Fatalf("step %d: up %v %v: expected %v, got %v", step, h, role, exp, err)
			}
			if err == nil {
				model[h] = role
			}
		} else {
			_, known := model[h]
			_, err := tb.Free(h)
			if known != (err == nil) {
				t.Fatalf("step %d: down %v: known %v, got %v", step, h, known, err)
			}
			delete(model, h)
		}

		if err := tb.check(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if tb.Len() != len(model) || tb.Peripherals() != count(bridge.RolePeripheral) {
			t.Fatalf("step %d: len %d, peripherals %d, model %v", step, tb.Len(), tb.Peripherals(), model)
		}
		if _, ok := tb.Central(); ok != (count(bridge.RoleCentral) == 1) {
			t.Fatalf("step %d: central %v, model %v", step, ok, model)
		}
		for h, role := range model {
			if s, ok := tb.Lookup(h); !ok || s.Role != role {
				t.Fatalf("step %d: lookup %v: %+v %v", step, h, s, ok)
			}
		}
	}
}
