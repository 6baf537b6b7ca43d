package bridge

// MaxPeripherals is the number of remote peripherals served at once.
const MaxPeripherals = 4

// MaxSlots is the slot table capacity: every peripheral plus one central.
const MaxSlots = MaxPeripherals + 1

// ScanMode selects the scanning duty cycle.
type ScanMode uint8

const (
	ScanOff ScanMode = iota
	ScanLow
	ScanHigh
)

func (m ScanMode) String() string {
	switch m {
	case ScanLow:
		return "low"
	case ScanHigh:
		return "high"
	default:
		return "off"
	}
}

// AdvMode selects whether the local GATT server is discoverable.
type AdvMode uint8

const (
	AdvOff AdvMode = iota
	AdvDiscoverable
)

func (m AdvMode) String() string {
	if m == AdvDiscoverable {
		return "discoverable"
	}
	return "off"
}

// Radio is the link-layer collaborator. Commands are fire-and-forget; their
// results arrive later as events.
type Radio interface {
	SetScan(mode ScanMode) error
	SetAdvertise(mode AdvMode) error
	Connect(a Addr, t AddrType) error
	CancelConnect() error
	Disconnect(h Handle, reason uint8) error
	UpdateConnParams(h Handle, p ConnParams) error
}

// Security is the security manager collaborator.
type Security interface {
	StartPairing(h Handle) error
	RequestEncryption(h Handle) error
	// EraseAllBonds removes every stored bond, not only the one of the current peer.
	EraseAllBonds() error
}

// BondStore answers whether a peer has a stored bond.
type BondStore interface {
	Exists(a Addr) bool
	Save(a Addr) error
	DeleteAll() error
}
