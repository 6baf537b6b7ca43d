package bridge

// Policy holds the application configuration flags of the bridge.
type Policy struct {
	// ConnectTarget dials peers advertising the target service.
	ConnectTarget bool
	// EncryptionRequired secures every link to a remote peripheral before
	// subscribing to its data.
	EncryptionRequired bool
	// EraseKeys removes all stored bonds whenever a link goes down.
	EraseKeys bool
}

// DefaultPolicy connects to the target service and pairs with it.
var DefaultPolicy = Policy{
	ConnectTarget:      true,
	EncryptionRequired: true,
	EraseKeys:          false,
}

// DefaultConnectTimeout is the number of coarse ticks a pending connect may take.
const DefaultConnectTimeout = 10

// DefaultMTULimit is the largest payload forwarded to the central.
const DefaultMTULimit = 20

// DefaultTargetService is the hello sensor service
// 1B7E8251-2877-41C3-B46E-CF057C562023 in advertisement byte order.
var DefaultTargetService = []byte{
	0x23, 0x20, 0x56, 0x7c, 0x05, 0xcf, 0x6e, 0xb4,
	0xc3, 0x41, 0x77, 0x28, 0x51, 0x82, 0x7e, 0x1b,
}
