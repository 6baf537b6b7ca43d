package core

import (
	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/relay"
)

type config struct {
	policy         bridge.Policy
	target         []byte
	minRSSI        int8
	rssiFloor      bool
	connectTimeout uint32
	mtu            int
	sensorCCC      bridge.AttrID
	logger         bridge.Logger
	sink           func(h bridge.Handle, b []byte)
}

func defaultConfig() *config {
	return &config{
		policy:         bridge.DefaultPolicy,
		target:         append([]byte{}, bridge.DefaultTargetService...),
		connectTimeout: bridge.DefaultConnectTimeout,
		mtu:            bridge.DefaultMTULimit,
		sensorCCC:      bridge.DefaultSensorClientConfig,
	}
}

func (c *config) SetPolicy(p bridge.Policy) error {
	c.policy = p
	return nil
}

func (c *config) SetTargetService(uuid []byte) error {
	if len(uuid) != 16 {
		return errors.Errorf("invalid target service length %d", len(uuid))
	}
	c.target = append([]byte{}, uuid...)
	return nil
}

func (c *config) SetMinRSSI(rssi int8) error {
	c.minRSSI = rssi
	c.rssiFloor = true
	return nil
}

func (c *config) SetConnectTimeout(ticks uint32) error {
	if ticks == 0 {
		return errors.New("connect timeout must be at least one tick")
	}
	c.connectTimeout = ticks
	return nil
}

func (c *config) SetMTULimit(n int) error {
	if n < 1 || n > relay.MaxMTULimit {
		return errors.Errorf("mtu limit %d out of range 1-%d", n, relay.MaxMTULimit)
	}
	c.mtu = n
	return nil
}

func (c *config) SetSensorClientConfig(attr bridge.AttrID) error {
	if attr == 0 {
		return errors.New("invalid sensor client config handle 0")
	}
	c.sensorCCC = attr
	return nil
}

func (c *config) SetLogger(l bridge.Logger) error {
	c.logger = l
	return nil
}

func (c *config) SetDataSink(sink func(h bridge.Handle, b []byte)) error {
	c.sink = sink
	return nil
}
