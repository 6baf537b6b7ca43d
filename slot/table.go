// Package slot keeps the fixed-capacity registry of open links.
package slot

import (
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/rigado/bridge"
)

const noSlot = -1

// Slot is one open link.
type Slot struct {
	Index    int
	Handle   bridge.Handle
	Role     bridge.Role
	Peer     bridge.Addr
	Security bridge.SecurityState
}

// Table maps connection handles to slots. Slots live in a fixed array and
// are tracked by an occupancy bitmask; freeing a slot reclaims its index.
type Table struct {
	slots       [bridge.MaxSlots]Slot
	occupied    uint8
	peripherals int
	central     int

	logger bridge.Logger
}

// New returns an empty table.
func New(l bridge.Logger) *Table {
	t := &Table{central: noSlot, logger: bridge.ComponentLogger(l, "slot")}
	for i := range t.slots {
		t.slots[i].Index = i
	}
	return t
}

func (t *Table) isOccupied(i int) bool {
	return t.occupied&(1<<uint(i)) != 0
}

// Allocate registers a new link. A slot still mapped to h is freed first, so
// a handle never maps to more than one slot. When the link cannot be
// registered the caller must disconnect it.
func (t *Table) Allocate(h bridge.Handle, role bridge.Role, a bridge.Addr) (int, error) {
	if role != bridge.RoleCentral && role != bridge.RolePeripheral {
		return noSlot, fmt.Errorf("invalid role %v for handle %v", role, h)
	}

	if i, ok := t.Find(h); ok {
		t.logger.Warnf("handle %v still mapped to slot %d, freeing stale slot", h, i)
		t.release(i)
	}

	switch {
	case role == bridge.RoleCentral && t.central != noSlot:
		return noSlot, errors.Wrapf(bridge.ErrCentralExists, "handle %v, central on %v", h, t.slots[t.central].Handle)
	case role == bridge.RolePeripheral && t.peripherals >= bridge.MaxPeripherals:
		return noSlot, errors.Wrapf(bridge.ErrSlotTableFull, "handle %v, %d peripherals", h, t.peripherals)
	}

	free := ^t.occupied & (1<<bridge.MaxSlots - 1)
	if free == 0 {
		return noSlot, errors.Wrapf(bridge.ErrSlotTableFull, "handle %v", h)
	}
	i := bits.TrailingZeros8(free)

	t.slots[i] = Slot{Index: i, Handle: h, Role: role, Peer: a}
	t.occupied |= 1 << uint(i)
	if role == bridge.RoleCentral {
		t.central = i
	} else {
		t.peripherals++
	}

	if err := t.check(); err != nil {
		t.logger.Error("allocate:", err)
	}
	t.logger.Debugf("allocated slot %d: handle %v, role %v, peer %v", i, h, role, a)
	return i, nil
}

// Free releases the slot of h and returns its last state.
func (t *Table) Free(h bridge.Handle) (Slot, error) {
	i, ok := t.Find(h)
	if !ok {
		return Slot{Index: noSlot}, errors.Wrapf(bridge.ErrUnknownHandle, "free %v", h)
	}

	s := t.slots[i]
	t.release(i)

	if err := t.check(); err != nil {
		t.logger.Error("free:", err)
	}
	t.logger.Debugf("freed slot %d: handle %v, role %v", i, h, s.Role)
	return s, nil
}

func (t *Table) release(i int) {
	if t.slots[i].Role == bridge.RoleCentral {
		t.central = noSlot
	} else if t.peripherals > 0 {
		t.peripherals--
	}
	t.slots[i] = Slot{Index: i}
	t.occupied &^= 1 << uint(i)
}

// Find returns the index of the slot mapped to h.
func (t *Table) Find(h bridge.Handle) (int, bool) {
	for i := range t.slots {
		if t.isOccupied(i) && t.slots[i].Handle == h {
			return i, true
		}
	}
	return noSlot, false
}

// FindAddr returns the index of an occupied slot with the given peer and role.
func (t *Table) FindAddr(a bridge.Addr, role bridge.Role) (int, bool) {
	for i := range t.slots {
		if t.isOccupied(i) && t.slots[i].Peer == a && t.slots[i].Role == role {
			return i, true
		}
	}
	return noSlot, false
}

// Get returns a copy of slot i.
func (t *Table) Get(i int) (Slot, bool) {
	if i < 0 || i >= len(t.slots) || !t.isOccupied(i) {
		return Slot{Index: noSlot}, false
	}
	return t.slots[i], true
}

// Lookup returns a copy of the slot mapped to h.
func (t *Table) Lookup(h bridge.Handle) (Slot, bool) {
	i, ok := t.Find(h)
	if !ok {
		return Slot{Index: noSlot}, false
	}
	return t.slots[i], true
}

// Security returns the security state of slot i.
func (t *Table) Security(i int) (bridge.SecurityState, bool) {
	if i < 0 || i >= len(t.slots) || !t.isOccupied(i) {
		return bridge.SecurityState{}, false
	}
	return t.slots[i].Security, true
}

// SetSecurity replaces the security state of slot i.
func (t *Table) SetSecurity(i int, s bridge.SecurityState) error {
	if i < 0 || i >= len(t.slots) || !t.isOccupied(i) {
		return fmt.Errorf("slot %d not in use", i)
	}
	t.slots[i].Security = s
	return nil
}

// Central returns the slot of the remote central, if connected.
func (t *Table) Central() (Slot, bool) {
	if t.central == noSlot {
		return Slot{Index: noSlot}, false
	}
	return t.slots[t.central], true
}

// Peripherals returns the number of connected remote peripherals.
func (t *Table) Peripherals() int {
	return t.peripherals
}

// Full reports whether no more peripherals can be connected.
func (t *Table) Full() bool {
	return t.peripherals >= bridge.MaxPeripherals
}

// Len returns the number of occupied slots.
func (t *Table) Len() int {
	return bits.OnesCount8(t.occupied)
}

// Each calls fn for every occupied slot until fn returns false.
func (t *Table) Each(fn func(s Slot) bool) {
	for i := range t.slots {
		if t.isOccupied(i) && !fn(t.slots[i]) {
			return
		}
	}
}

func (t *Table) check() error {
	var peripherals, centrals int
	for i := range t.slots {
		if !t.isOccupied(i) {
			continue
		}
		switch t.slots[i].Role {
		case bridge.RoleCentral:
			centrals++
		case bridge.RolePeripheral:
			peripherals++
		}
	}

	switch {
	case peripherals != t.peripherals:
		return fmt.Errorf("peripheral count %d, table holds %d", t.peripherals, peripherals)
	case peripherals > bridge.MaxPeripherals:
		return fmt.Errorf("%d peripherals exceed maximum %d", peripherals, bridge.MaxPeripherals)
	case centrals > 1:
		return fmt.Errorf("%d central slots", centrals)
	case (centrals == 1) != (t.central != noSlot):
		return fmt.Errorf("central index %d, table holds %d centrals", t.central, centrals)
	}
	return nil
}
