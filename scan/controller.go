// Package scan decides when the bridge scans, advertises and dials sensors.
package scan

import (
	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/parser"
	"github.com/rigado/bridge/slot"
)

type Controller struct {
	slots *slot.Table
	radio bridge.Radio

	connectTarget bool
	target        []byte
	minRSSI       int8
	rssiFloor     bool
	timeout       uint32

	now          uint32
	pending      bool
	pendingAddr  bridge.Addr
	pendingSince uint32

	logger bridge.Logger
}

func New(slots *slot.Table, radio bridge.Radio, l bridge.Logger) *Controller {
	return &Controller{
		slots:         slots,
		radio:         radio,
		connectTarget: bridge.DefaultPolicy.ConnectTarget,
		target:        append([]byte{}, bridge.DefaultTargetService...),
		timeout:       bridge.DefaultConnectTimeout,
		logger:        bridge.ComponentLogger(l, "scan"),
	}
}

// SetTargetService sets the 128-bit service UUID, in advertisement byte
// order, that identifies a sensor worth connecting to.
func (c *Controller) SetTargetService(uuid []byte) error {
	if len(uuid) != 16 {
		return errors.Errorf("invalid target service length %d", len(uuid))
	}
	c.target = append([]byte{}, uuid...)
	return nil
}

// SetMinRSSI drops advertisements weaker than rssi.
func (c *Controller) SetMinRSSI(rssi int8) {
	c.minRSSI = rssi
	c.rssiFloor = true
}

func (c *Controller) SetConnectTimeout(ticks uint32) error {
	if ticks == 0 {
		return errors.New("connect timeout must be at least one tick")
	}
	c.timeout = ticks
	return nil
}

func (c *Controller) SetConnectTarget(enable bool) {
	c.connectTarget = enable
}

// Pending returns the peer of the outstanding connection attempt.
func (c *Controller) Pending() (bridge.Addr, bool) {
	return c.pendingAddr, c.pending
}

// Now returns the number of coarse ticks seen.
func (c *Controller) Now() uint32 {
	return c.now
}

// Start puts the radio in its idle state: discoverable, not scanning.
func (c *Controller) Start() {
	c.exec("advertise", c.radio.SetAdvertise(bridge.AdvDiscoverable))
	c.exec("scan", c.radio.SetScan(bridge.ScanOff))
}

// StartDiscovery scans at high duty with advertising off.
func (c *Controller) StartDiscovery() {
	c.logger.Info("starting discovery")
	c.exec("advertise", c.radio.SetAdvertise(bridge.AdvOff))
	c.exec("scan", c.radio.SetScan(bridge.ScanHigh))
}

// OnScanExpired falls back to low duty scanning.
func (c *Controller) OnScanExpired() {
	if c.pending {
		return
	}
	c.exec("scan", c.radio.SetScan(bridge.ScanLow))
}

// OnAdvertisement dials the advertiser when it carries the target service.
// It reports whether a connection attempt was started.
func (c *Controller) OnAdvertisement(r bridge.AdvReport) (bool, error) {
	if len(r.Data) > bridge.MaxAdvDataLength {
		return false, errors.Wrapf(bridge.ErrMalformedAdvertisement, "%v: length %d", r.Addr, len(r.Data))
	}

	switch {
	case !c.connectTarget:
		return false, nil
	case c.rssiFloor && r.RSSI < c.minRSSI:
		return false, nil
	case c.pending || c.slots.Full():
		return false, nil
	}
	if _, ok := c.slots.FindAddr(r.Addr, bridge.RolePeripheral); ok {
		return false, nil
	}

	match, err := parser.HasService128(r.Data, c.target)
	if !match {
		if err == nil || err == parser.EmptyOrNilPdu {
			return false, nil
		}
		return false, errors.Wrapf(bridge.ErrMalformedAdvertisement, "%v: %v", r.Addr, err)
	}

	fields := r.ToMap()
	if m, err := parser.Parse(r.Data); err == nil {
		for k, v := range m {
			fields[k] = v
		}
	}
	c.logger.ChildLogger(fields).Info("found target, connecting")
	c.exec("advertise", c.radio.SetAdvertise(bridge.AdvOff))
	if err := c.radio.Connect(r.Addr, r.AddrType); err != nil {
		c.logger.Errorf("connect %v: %v", r.Addr, err)
		c.exec("scan", c.radio.SetScan(bridge.ScanLow))
		c.exec("advertise", c.radio.SetAdvertise(bridge.AdvDiscoverable))
		return false, nil
	}
	c.exec("scan", c.radio.SetScan(bridge.ScanOff))

	c.pending = true
	c.pendingAddr = r.Addr
	c.pendingSince = c.now
	return true, nil
}

// OnTick advances the coarse clock and abandons a connection attempt that
// outlived the connect timeout.
func (c *Controller) OnTick() {
	c.now++
	if !c.pending || c.now-c.pendingSince < c.timeout {
		return
	}

	c.pending = false
	if _, ok := c.slots.FindAddr(c.pendingAddr, bridge.RolePeripheral); ok {
		return
	}

	c.logger.Warnf("connect to %v timed out after %d ticks", c.pendingAddr, c.now-c.pendingSince)
	c.exec("cancel", c.radio.CancelConnect())
	c.exec("scan", c.radio.SetScan(bridge.ScanLow))
	c.exec("advertise", c.radio.SetAdvertise(bridge.AdvDiscoverable))
}

// OnConnectionUp runs after s was allocated.
func (c *Controller) OnConnectionUp(s slot.Slot) {
	if s.Role == bridge.RolePeripheral {
		c.pending = false
	}
	if c.slots.Full() {
		return
	}

	if _, ok := c.slots.Central(); !ok {
		c.exec("advertise", c.radio.SetAdvertise(bridge.AdvDiscoverable))
	}
	if !c.pending {
		c.exec("scan", c.radio.SetScan(bridge.ScanLow))
	}
}

// OnConnectionDown runs after s was freed.
func (c *Controller) OnConnectionDown(s slot.Slot) {
	if s.Role == bridge.RoleCentral {
		c.exec("advertise", c.radio.SetAdvertise(bridge.AdvDiscoverable))
	}
	if !c.slots.Full() && !c.pending {
		c.exec("scan", c.radio.SetScan(bridge.ScanLow))
	}
}

func (c *Controller) exec(what string, err error) {
	if err != nil {
		c.logger.Errorf("%s: %v", what, err)
	}
}
