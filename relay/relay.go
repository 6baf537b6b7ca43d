// Package relay forwards sensor data to the connected central according to
// the central's stored notification preference.
package relay

import (
	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/slot"
)

// MaxMTULimit bounds the configurable forward size.
const MaxMTULimit = 244

type Engine struct {
	slots *slot.Table
	gatt  bridge.GATT
	pref  *bridge.Preference
	mtu   int

	// sensor links forward only once bonded
	secure bool

	logger bridge.Logger
}

// New returns an engine reading the preference through pref, which stays
// owned by the caller.
func New(slots *slot.Table, gatt bridge.GATT, pref *bridge.Preference, l bridge.Logger) *Engine {
	return &Engine{
		slots:  slots,
		gatt:   gatt,
		pref:   pref,
		mtu:    bridge.DefaultMTULimit,
		secure: bridge.DefaultPolicy.EncryptionRequired,
		logger: bridge.ComponentLogger(l, "relay"),
	}
}

func (e *Engine) SetMTULimit(n int) error {
	if n < 1 || n > MaxMTULimit {
		return errors.Errorf("mtu limit %d out of range 1-%d", n, MaxMTULimit)
	}
	e.mtu = n
	return nil
}

// SetEncryptionRequired drops data from sensor links that are not bonded.
func (e *Engine) SetEncryptionRequired(on bool) {
	e.secure = on
}

// Relay forwards b from the link src to the central, truncated to the MTU
// limit. It reports whether anything was sent.
func (e *Engine) Relay(src bridge.Handle, b []byte) (bool, error) {
	s, ok := e.slots.Lookup(src)
	if !ok {
		return false, errors.Wrapf(bridge.ErrUnknownHandle, "relay from %v", src)
	}
	if s.Role != bridge.RolePeripheral {
		e.logger.Debugf("dropping %d bytes from %v: not a sensor link", len(b), src)
		return false, nil
	}
	if e.secure && s.Security.Phase != bridge.Bonded {
		e.logger.Debugf("dropping %d bytes from %v: link not bonded (%v)", len(b), src, s.Security.Phase)
		return false, nil
	}

	central, ok := e.slots.Central()
	if !ok {
		e.logger.Debugf("dropping %d bytes from %v: no central", len(b), src)
		return false, nil
	}

	if len(b) > e.mtu {
		b = b[:e.mtu]
	}

	switch {
	case e.pref.Notify:
		err := e.gatt.SendNotification(central.Handle, bridge.AttrDataValue, b)
		return err == nil, errors.Wrapf(err, "notify %v", central.Handle)
	case e.pref.Indicate:
		err := e.gatt.SendIndication(central.Handle, bridge.AttrDataValue, b)
		return err == nil, errors.Wrapf(err, "indicate %v", central.Handle)
	}

	e.logger.Debugf("dropping %d bytes from %v: central not subscribed", len(b), src)
	return false, nil
}

// OnNotification relays a notification received from a sensor.
func (e *Engine) OnNotification(h bridge.Handle, attr bridge.AttrID, b []byte) (bool, error) {
	e.logger.Debugf("notification from %v attr 0x%04X: %x", h, uint16(attr), b)
	return e.Relay(h, b)
}

// OnIndication relays an indication and confirms it to the sender whatever
// the outcome of the forward.
func (e *Engine) OnIndication(h bridge.Handle, attr bridge.AttrID, b []byte) (bool, error) {
	e.logger.Debugf("indication from %v attr 0x%04X: %x", h, uint16(attr), b)
	sent, err := e.Relay(h, b)
	if cerr := e.gatt.SendConfirmation(h); cerr != nil {
		e.logger.Errorf("confirm %v: %v", h, cerr)
	}
	return sent, err
}
