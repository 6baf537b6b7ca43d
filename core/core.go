// Package core wires the bridge components into a single event handler.
//
// Core is driven by one goroutine: every bridge.Handler method runs to
// completion before the next event is delivered. A nested call is logged and
// dropped.
package core

import (
	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/button"
	"github.com/rigado/bridge/dispatch"
	"github.com/rigado/bridge/pairing"
	"github.com/rigado/bridge/relay"
	"github.com/rigado/bridge/scan"
	"github.com/rigado/bridge/slot"
)

type Core struct {
	radio bridge.Radio
	gatt  bridge.GATT
	store bridge.Store

	slots    *slot.Table
	pairing  *pairing.Controller
	scan     *scan.Controller
	relay    *relay.Engine
	dispatch *dispatch.Dispatcher
	button   button.Classifier

	pref   bridge.Preference
	coarse uint32
	fine   uint32

	inHandler bool
	logger    bridge.Logger
}

// New builds a core issuing commands to the given collaborators. bonds and
// st may be nil, bonds are then never looked up and the preference is not
// persisted.
func New(radio bridge.Radio, sec bridge.Security, gatt bridge.GATT, bonds bridge.BondStore, st bridge.Store, opts ...bridge.Option) (*Core, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errors.Wrap(err, "core option")
		}
	}

	c := &Core{
		radio:  radio,
		gatt:   gatt,
		store:  st,
		logger: bridge.ComponentLogger(cfg.logger, "core"),
	}

	c.slots = slot.New(cfg.logger)
	c.pairing = pairing.New(c.slots, radio, sec, gatt, bonds, cfg.logger)
	c.pairing.SetPolicy(cfg.policy)
	c.pairing.SetSensorClientConfig(cfg.sensorCCC)

	c.scan = scan.New(c.slots, radio, cfg.logger)
	c.scan.SetConnectTarget(cfg.policy.ConnectTarget)
	if err := c.scan.SetTargetService(cfg.target); err != nil {
		return nil, err
	}
	if err := c.scan.SetConnectTimeout(cfg.connectTimeout); err != nil {
		return nil, err
	}
	if cfg.rssiFloor {
		c.scan.SetMinRSSI(cfg.minRSSI)
	}

	c.relay = relay.New(c.slots, gatt, &c.pref, cfg.logger)
	c.relay.SetEncryptionRequired(cfg.policy.EncryptionRequired)
	if err := c.relay.SetMTULimit(cfg.mtu); err != nil {
		return nil, err
	}

	c.dispatch = dispatch.New(c.slots, st, &c.pref, cfg.logger)
	c.dispatch.SetDataSink(cfg.sink)

	return c, nil
}

// Start restores the stored preference and puts the radio in its idle state.
func (c *Core) Start() error {
	if !c.enter("start") {
		return errors.New("start called from an event handler")
	}
	defer c.leave()

	if err := c.loadPreference(); err != nil {
		c.logger.Warn(err)
	}
	c.scan.Start()
	c.logger.Infof("bridge started, central preference notify %v indicate %v", c.pref.Notify, c.pref.Indicate)
	return nil
}

func (c *Core) loadPreference() error {
	if c.store == nil {
		return nil
	}

	b, err := c.store.Load(bridge.PreferenceKey)
	if errors.Cause(err) == bridge.ErrNotFound {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "load preference")
	}

	p, err := relay.DecodePreference(b)
	if err != nil {
		return errors.Wrap(err, "load preference")
	}
	c.pref = p
	return nil
}

// Preference returns the central's current notification preference.
func (c *Core) Preference() bridge.Preference {
	return c.pref
}

// Counters returns a snapshot of the connection and tick counters.
func (c *Core) Counters() bridge.Counters {
	cnt := bridge.Counters{
		Coarse:      c.coarse,
		Fine:        c.fine,
		Peripherals: c.slots.Peripherals(),
	}
	if s, ok := c.slots.Central(); ok {
		cnt.Central = s.Handle
		cnt.HasCentral = true
	}
	return cnt
}

// Slot returns the slot mapped to h.
func (c *Core) Slot(h bridge.Handle) (slot.Slot, bool) {
	return c.slots.Lookup(h)
}

// Pending returns the peer of an outstanding connection attempt.
func (c *Core) Pending() (bridge.Addr, bool) {
	return c.scan.Pending()
}

func (c *Core) enter(event string) bool {
	if c.inHandler {
		c.logger.Errorf("%s: nested event dropped", event)
		return false
	}
	c.inHandler = true
	return true
}

func (c *Core) leave() {
	c.inHandler = false
}

func (c *Core) ConnectionUp(h bridge.Handle, r bridge.Role, a bridge.Addr) {
	if !c.enter("connection up") {
		return
	}
	defer c.leave()

	i, err := c.slots.Allocate(h, r, a)
	if err != nil {
		c.logger.Warnf("rejecting %v from %v: %v", h, a, err)
		if err := c.radio.Disconnect(h, bridge.ReasonLocalHost); err != nil {
			c.logger.Error("disconnect:", err)
		}
		return
	}
	c.logger.Infof("connection up %v role %v peer %v slot %d", h, r, a, i)

	if err := c.pairing.OnConnectionUp(i); err != nil {
		c.logger.Error(err)
	}
	s, _ := c.slots.Get(i)
	c.scan.OnConnectionUp(s)
}

func (c *Core) ConnectionDown(h bridge.Handle, reason uint8) {
	if !c.enter("connection down") {
		return
	}
	defer c.leave()

	s, err := c.slots.Free(h)
	if err != nil {
		c.logger.Warn(err)
		return
	}
	c.logger.Infof("connection down %v role %v reason 0x%02X", h, s.Role, reason)

	if err := c.pairing.OnConnectionDown(s); err != nil {
		c.logger.Error(err)
	}
	c.scan.OnConnectionDown(s)
}

func (c *Core) AdvertisementReport(r bridge.AdvReport) {
	if !c.enter("advertisement") {
		return
	}
	defer c.leave()

	if _, err := c.scan.OnAdvertisement(r); err != nil {
		c.logger.Debug(err)
	}
}

func (c *Core) ScanExpired() {
	if !c.enter("scan expired") {
		return
	}
	defer c.leave()

	c.scan.OnScanExpired()
}

func (c *Core) PairingResult(h bridge.Handle, o bridge.PairingOutcome) {
	if !c.enter("pairing result") {
		return
	}
	defer c.leave()

	if err := c.pairing.OnPairingResult(h, o); err != nil {
		c.logger.Error(err)
	}
}

func (c *Core) EncryptionChanged(h bridge.Handle, status uint8) {
	if !c.enter("encryption changed") {
		return
	}
	defer c.leave()

	if err := c.pairing.OnEncryptionChanged(h, status); err != nil {
		c.logger.Error(err)
	}
}

func (c *Core) NotificationReceived(h bridge.Handle, attr bridge.AttrID, b []byte) {
	if !c.enter("notification") {
		return
	}
	defer c.leave()

	if _, err := c.relay.OnNotification(h, attr, b); err != nil {
		c.logger.Error(err)
	}
}

func (c *Core) IndicationReceived(h bridge.Handle, attr bridge.AttrID, b []byte) {
	if !c.enter("indication") {
		return
	}
	defer c.leave()

	if _, err := c.relay.OnIndication(h, attr, b); err != nil {
		c.logger.Error(err)
	}
}

// WriteReceived returns a *bridge.WriteError for writes the GATT layer must
// answer with an error response.
func (c *Core) WriteReceived(h bridge.Handle, attr bridge.AttrID, b []byte) error {
	if !c.enter("write") {
		return errors.New("nested write dropped")
	}
	defer c.leave()

	err := c.dispatch.HandleWrite(h, attr, b)
	if err != nil {
		c.logger.Warn(err)
	}
	return err
}

func (c *Core) Tick(k bridge.TickKind) {
	if !c.enter("tick") {
		return
	}
	defer c.leave()

	if k == bridge.TickFine {
		c.fine++
		return
	}
	c.coarse++
	c.scan.OnTick()
}

func (c *Core) ButtonEdge(pressed bool) {
	if !c.enter("button") {
		return
	}
	defer c.leave()

	central, hasCentral := c.slots.Central()
	intent := c.button.Edge(pressed, c.coarse, hasCentral)
	if intent != button.None {
		c.logger.Infof("button: %v", intent)
	}

	switch intent {
	case button.StartDiscovery:
		c.scan.StartDiscovery()
	case button.SendSample:
		if err := c.gatt.SendNotification(central.Handle, bridge.AttrDataValue, button.Sample); err != nil {
			c.logger.Error("send sample:", err)
		}
	}
}
