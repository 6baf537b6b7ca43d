package bridge

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrSlotTableFull          = errors.New("slot table full")
	ErrCentralExists          = errors.New("central already connected")
	ErrUnknownHandle          = errors.New("unknown connection handle")
	ErrMalformedAdvertisement = errors.New("malformed advertisement")
	ErrPairingFailed          = errors.New("pairing failed")
	ErrStorageWriteFailed     = errors.New("storage write failed")
	ErrNotFound               = errors.New("not found")
)

// WriteRejected says why a remote write was refused.
type WriteRejected int

const (
	BadLength WriteRejected = iota
	UnknownAttribute
)

func (r WriteRejected) String() string {
	if r == BadLength {
		return "bad length"
	}
	return "unknown attribute"
}

// AttErrWriteNotPermitted is the application error code returned to the peer
// for a refused write.
const AttErrWriteNotPermitted uint8 = 0x80

// WriteError is returned for a write the local server refuses. The GATT
// collaborator sends Code back in an error response.
type WriteError struct {
	Attr   AttrID
	Len    int
	Reason WriteRejected
	Code   uint8
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write rejected: %s (attr 0x%04X, len %d, code 0x%02X)", e.Reason, uint16(e.Attr), e.Len, e.Code)
}
