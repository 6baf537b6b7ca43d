package bridge

// AttrID is an attribute handle in a GATT database.
type AttrID uint16

// Attributes of the local GATT server.
const (
	AttrDataValue    AttrID = 0x2a
	AttrClientConfig AttrID = 0x2b
)

// DefaultSensorClientConfig is the client configuration descriptor of the
// remote sensor's measurement characteristic.
const DefaultSensorClientConfig AttrID = 0x2b

// Client characteristic configuration bits.
const (
	CCCNotify   uint16 = 0x0001
	CCCIndicate uint16 = 0x0002
)

// GATT is the attribute protocol collaborator.
type GATT interface {
	SendNotification(h Handle, attr AttrID, b []byte) error
	SendIndication(h Handle, attr AttrID, b []byte) error
	// SendConfirmation acknowledges an indication received on h.
	SendConfirmation(h Handle) error
	WriteRequest(h Handle, attr AttrID, b []byte) error
}
