package bridge

import "fmt"

// Handle identifies an open link. The radio layer assigns it and does not
// reuse it while the link is open.
type Handle uint16

func (h Handle) String() string {
	return fmt.Sprintf("0x%04X", uint16(h))
}

// Role is the role of the remote peer on a link.
type Role uint8

const (
	RoleNone Role = iota
	// RoleCentral is a remote central connected to the local GATT server.
	RoleCentral
	// RolePeripheral is a remote peripheral this device dialed as a client.
	RolePeripheral
)

func (r Role) String() string {
	switch r {
	case RoleCentral:
		return "central"
	case RolePeripheral:
		return "peripheral"
	default:
		return "none"
	}
}

// SMPRole is the local side of a security manager exchange.
type SMPRole uint8

const (
	SMPRoleNone SMPRole = iota
	SMPRoleInitiator
	SMPRoleResponder
)

func (r SMPRole) String() string {
	switch r {
	case SMPRoleInitiator:
		return "initiator"
	case SMPRoleResponder:
		return "responder"
	default:
		return "none"
	}
}

// PairingPhase is the per-link pairing state.
type PairingPhase int

const (
	Unpaired PairingPhase = iota
	Pairing
	Bonded
)

func (p PairingPhase) String() string {
	switch p {
	case Pairing:
		return "pairing"
	case Bonded:
		return "bonded"
	default:
		return "unpaired"
	}
}

// SecurityState is the security bookkeeping of one link.
type SecurityState struct {
	SMPRole   SMPRole
	Phase     PairingPhase
	Bonded    bool
	Encrypted bool
}

// PairingOutcome is reported by the security collaborator once an exchange completes.
type PairingOutcome uint8

const (
	PairingBonded PairingOutcome = iota
	PairingFailed
)

func (o PairingOutcome) String() string {
	if o == PairingBonded {
		return "bonded"
	}
	return "failed"
}

// Disconnect reasons [Vol 2, Part D, 2].
const (
	ReasonRemoteUser uint8 = 0x13
	ReasonLocalHost  uint8 = 0x16
)

// ConnParams are the preferred connection parameters requested from a remote central.
type ConnParams struct {
	IntervalMin uint16 // N * 1.25 msec
	IntervalMax uint16 // N * 1.25 msec
	Latency     uint16
	Timeout     uint16 // N * 10 msec
}

// DefaultConnParams mirrors the parameters asked of the central on every connection.
var DefaultConnParams = ConnParams{
	IntervalMin: 100,
	IntervalMax: 116,
	Latency:     0,
	Timeout:     500,
}
