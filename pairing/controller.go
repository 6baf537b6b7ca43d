// Package pairing drives link security for each slot.
//
// Links to a remote peripheral are secured by us as SMP initiator; links from
// a remote central are answered as responder. Once a peripheral link is
// bonded (or immediately, when encryption is not required) notifications are
// enabled on the sensor's client configuration descriptor.
package pairing

import (
	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/slot"
)

// EnableNotify is the client configuration value written to a sensor.
var EnableNotify = []byte{0x01, 0x00}

type Controller struct {
	slots *slot.Table
	radio bridge.Radio
	sec   bridge.Security
	gatt  bridge.GATT
	bonds bridge.BondStore

	policy    bridge.Policy
	sensorCCC bridge.AttrID
	params    bridge.ConnParams

	logger bridge.Logger
}

func New(slots *slot.Table, radio bridge.Radio, sec bridge.Security, gatt bridge.GATT, bonds bridge.BondStore, l bridge.Logger) *Controller {
	return &Controller{
		slots:     slots,
		radio:     radio,
		sec:       sec,
		gatt:      gatt,
		bonds:     bonds,
		policy:    bridge.DefaultPolicy,
		sensorCCC: bridge.DefaultSensorClientConfig,
		params:    bridge.DefaultConnParams,
		logger:    bridge.ComponentLogger(l, "pairing"),
	}
}

func (c *Controller) SetPolicy(p bridge.Policy) {
	c.policy = p
}

func (c *Controller) SetSensorClientConfig(attr bridge.AttrID) {
	c.sensorCCC = attr
}

// OnConnectionUp sets up security for a freshly allocated slot.
func (c *Controller) OnConnectionUp(i int) error {
	s, ok := c.slots.Get(i)
	if !ok {
		return errors.Errorf("connection up on empty slot %d", i)
	}

	switch s.Role {
	case bridge.RoleCentral:
		c.setSecurity(i, bridge.SecurityState{SMPRole: bridge.SMPRoleResponder})
		if err := c.radio.UpdateConnParams(s.Handle, c.params); err != nil {
			c.logger.Warnf("conn param update on %v: %v", s.Handle, err)
		}
		return nil

	case bridge.RolePeripheral:
		st := bridge.SecurityState{SMPRole: bridge.SMPRoleInitiator}
		if !c.policy.EncryptionRequired {
			c.setSecurity(i, st)
			return c.enableNotify(s.Handle)
		}

		st.Phase = bridge.Pairing
		c.setSecurity(i, st)

		var err error
		if c.bonds != nil && c.bonds.Exists(s.Peer) {
			c.logger.Debugf("%v bonded before, requesting encryption", s.Peer)
			err = c.sec.RequestEncryption(s.Handle)
		} else {
			c.logger.Debugf("starting pairing with %v", s.Peer)
			err = c.sec.StartPairing(s.Handle)
		}
		return errors.Wrapf(err, "secure %v", s.Handle)
	}

	return errors.Errorf("slot %d has no role", i)
}

// OnPairingResult applies the outcome of a pairing procedure. A failed
// pairing leaves the link up but without notifications. A link that is
// already bonded keeps its bond.
func (c *Controller) OnPairingResult(h bridge.Handle, o bridge.PairingOutcome) error {
	i, ok := c.slots.Find(h)
	if !ok {
		return errors.Wrapf(bridge.ErrUnknownHandle, "pairing result %v", o)
	}
	s, _ := c.slots.Get(i)

	if o != bridge.PairingBonded {
		err := errors.Wrapf(bridge.ErrPairingFailed, "handle %v, peer %v", h, s.Peer)
		if s.Security.Bonded {
			// bonded stays set until the link goes down or keys are erased
			c.logger.Warnf("%v, keeping bond", err)
			return nil
		}
		st := s.Security
		st.Phase = bridge.Unpaired
		c.setSecurity(i, st)
		return err
	}

	c.bonded(i, s)
	if c.bonds != nil {
		if err := c.bonds.Save(s.Peer); err != nil {
			c.logger.Errorf("save bond %v: %v", s.Peer, err)
		}
	}

	if s.Role != bridge.RolePeripheral {
		return nil
	}
	return c.enableNotify(h)
}

// OnEncryptionChanged records the link encryption status. Encryption
// restored from an existing bond completes the pending security procedure.
func (c *Controller) OnEncryptionChanged(h bridge.Handle, status uint8) error {
	i, ok := c.slots.Find(h)
	if !ok {
		return errors.Wrapf(bridge.ErrUnknownHandle, "encryption changed 0x%02X", status)
	}
	s, _ := c.slots.Get(i)

	st := s.Security
	st.Encrypted = status == 0
	c.setSecurity(i, st)
	c.logger.Debugf("encryption on %v: %v (status 0x%02X)", h, st.Encrypted, status)

	if !st.Encrypted || st.Phase != bridge.Pairing || s.Role != bridge.RolePeripheral {
		return nil
	}
	if c.bonds == nil || !c.bonds.Exists(s.Peer) {
		// fresh pairing, wait for the result
		return nil
	}

	s.Security = st
	c.bonded(i, s)
	return c.enableNotify(h)
}

// OnConnectionDown runs after the slot was freed.
func (c *Controller) OnConnectionDown(s slot.Slot) error {
	if !c.policy.EraseKeys {
		return nil
	}

	c.logger.Infof("erasing all bonds after %v went down", s.Handle)
	var err error
	if e := c.sec.EraseAllBonds(); e != nil {
		err = errors.Wrap(e, "erase bonds")
	}
	if c.bonds != nil {
		if e := c.bonds.DeleteAll(); e != nil && err == nil {
			err = errors.Wrap(e, "delete bonds")
		}
	}
	return err
}

func (c *Controller) bonded(i int, s slot.Slot) {
	st := s.Security
	st.Phase = bridge.Bonded
	st.Bonded = true
	c.setSecurity(i, st)
	c.logger.Infof("%v bonded on %v", s.Peer, s.Handle)
}

func (c *Controller) enableNotify(h bridge.Handle) error {
	c.logger.Debugf("enable notifications on %v attr 0x%04X", h, uint16(c.sensorCCC))
	return errors.Wrapf(c.gatt.WriteRequest(h, c.sensorCCC, EnableNotify), "enable notify %v", h)
}

func (c *Controller) setSecurity(i int, st bridge.SecurityState) {
	if err := c.slots.SetSecurity(i, st); err != nil {
		c.logger.Error(err)
	}
}
