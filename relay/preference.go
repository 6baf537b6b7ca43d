package relay

import (
	"encoding/binary"
	"fmt"

	"github.com/rigado/bridge"
)

// PreferenceRecordLen is the persisted size of a bridge.Preference: the
// 6-byte peer address followed by the little endian client configuration.
const PreferenceRecordLen = 8

func EncodePreference(p bridge.Preference) []byte {
	b := make([]byte, PreferenceRecordLen)
	copy(b, p.Peer[:])
	binary.LittleEndian.PutUint16(b[6:], p.Config())
	return b
}

func DecodePreference(b []byte) (bridge.Preference, error) {
	var p bridge.Preference
	if len(b) != PreferenceRecordLen {
		return p, fmt.Errorf("invalid preference record length %d", len(b))
	}
	copy(p.Peer[:], b[:6])
	p.SetConfig(binary.LittleEndian.Uint16(b[6:]))
	return p, nil
}
