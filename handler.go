package bridge

// TickKind tells the periodic timers apart.
type TickKind uint8

const (
	TickCoarse TickKind = iota // one per second
	TickFine
)

func (k TickKind) String() string {
	if k == TickFine {
		return "fine"
	}
	return "coarse"
}

// Handler is implemented by the core and invoked by the radio, security and
// GATT collaborators. Calls are serialized by the caller and never overlap.
type Handler interface {
	ConnectionUp(h Handle, r Role, a Addr)
	ConnectionDown(h Handle, reason uint8)
	AdvertisementReport(r AdvReport)
	// ScanExpired is called when the collaborator's scan window has elapsed.
	ScanExpired()
	PairingResult(h Handle, o PairingOutcome)
	EncryptionChanged(h Handle, status uint8)
	NotificationReceived(h Handle, attr AttrID, b []byte)
	IndicationReceived(h Handle, attr AttrID, b []byte)
	// WriteReceived returns a *WriteError when the write is refused.
	WriteReceived(h Handle, attr AttrID, b []byte) error
	Tick(k TickKind)
	ButtonEdge(pressed bool)
}
