// Package dispatch handles attribute writes from the connected central.
package dispatch

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/relay"
	"github.com/rigado/bridge/slot"
)

type Dispatcher struct {
	slots *slot.Table
	store bridge.Store
	pref  *bridge.Preference
	sink  func(h bridge.Handle, b []byte)

	handlers map[bridge.AttrID]func(h bridge.Handle, b []byte) error

	logger bridge.Logger
}

// New returns a dispatcher updating the preference through pref, which stays
// owned by the caller.
func New(slots *slot.Table, store bridge.Store, pref *bridge.Preference, l bridge.Logger) *Dispatcher {
	d := &Dispatcher{
		slots:  slots,
		store:  store,
		pref:   pref,
		logger: bridge.ComponentLogger(l, "dispatch"),
	}
	d.handlers = map[bridge.AttrID]func(bridge.Handle, []byte) error{
		bridge.AttrClientConfig: d.writeClientConfig,
		bridge.AttrDataValue:    d.writeDataValue,
	}
	return d
}

// SetDataSink receives data written by the central.
func (d *Dispatcher) SetDataSink(fn func(h bridge.Handle, b []byte)) {
	d.sink = fn
}

// HandleWrite applies a write request. A rejected write returns a
// *bridge.WriteError and leaves all state untouched.
func (d *Dispatcher) HandleWrite(h bridge.Handle, attr bridge.AttrID, b []byte) error {
	fn, ok := d.handlers[attr]
	if !ok {
		return &bridge.WriteError{Attr: attr, Len: len(b), Reason: bridge.UnknownAttribute, Code: bridge.AttErrWriteNotPermitted}
	}
	return fn(h, b)
}

func (d *Dispatcher) writeClientConfig(h bridge.Handle, b []byte) error {
	if len(b) != 2 {
		return &bridge.WriteError{Attr: bridge.AttrClientConfig, Len: len(b), Reason: bridge.BadLength, Code: bridge.AttErrWriteNotPermitted}
	}

	v := binary.LittleEndian.Uint16(b)
	d.pref.SetConfig(v)
	if s, ok := d.slots.Lookup(h); ok {
		d.pref.Peer = s.Peer
	} else {
		d.logger.Warnf("client config write from unknown link %v", h)
	}
	d.logger.Infof("client config 0x%04X from %v (notify %v, indicate %v)", v, d.pref.Peer, d.pref.Notify, d.pref.Indicate)

	if d.store == nil {
		return nil
	}
	// the record keeps the value as written, reserved bits included
	rec := relay.EncodePreference(*d.pref)
	copy(rec[6:], b)
	if err := d.store.Persist(bridge.PreferenceKey, rec); err != nil {
		d.logger.Error(errors.Wrapf(bridge.ErrStorageWriteFailed, "key 0x%02X: %v", uint8(bridge.PreferenceKey), err))
	}
	return nil
}

func (d *Dispatcher) writeDataValue(h bridge.Handle, b []byte) error {
	d.logger.Infof("data from %v: %q", h, b)
	if d.sink != nil {
		d.sink(h, b)
	}
	return nil
}
