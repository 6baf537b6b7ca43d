package bridge

// Key identifies a record in durable storage.
type Key uint8

// PreferenceKey is the record holding the bonded central's preference.
const PreferenceKey Key = 0x10

// Store is a durable key/blob store. Load returns ErrNotFound for a key
// that was never persisted.
type Store interface {
	Persist(k Key, b []byte) error
	Load(k Key) ([]byte, error)
}

// Preference is the remote central's client configuration, kept across power cycles.
type Preference struct {
	Peer     Addr
	Notify   bool
	Indicate bool
}

// Config returns the preference as a client characteristic configuration value.
func (p Preference) Config() uint16 {
	var v uint16
	if p.Notify {
		v |= CCCNotify
	}
	if p.Indicate {
		v |= CCCIndicate
	}
	return v
}

// SetConfig updates the preference from a client characteristic configuration value.
func (p *Preference) SetConfig(v uint16) {
	p.Notify = v&CCCNotify != 0
	p.Indicate = v&CCCIndicate != 0
}

// Counters are the global counters of the bridge.
type Counters struct {
	Coarse      uint32
	Fine        uint32
	Peripherals int
	Central     Handle
	HasCentral  bool
}
