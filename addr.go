package bridge

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Addr is a 6-byte peer address as delivered by the radio layer.
type Addr [6]byte

// AddrType is the peer address type reported alongside an advertisement.
type AddrType uint8

const (
	AddrTypePublic AddrType = 0x00
	AddrTypeRandom AddrType = 0x01
)

// ParseAddr creates an Addr from its "aa:bb:cc:dd:ee:ff" string form.
func ParseAddr(s string) (Addr, error) {
	var a Addr
	hexStr := strings.Replace(strings.ToLower(s), ":", "", -1)

	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return a, fmt.Errorf("error decoding address %q: %s", s, err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("invalid address length %d for %q", len(b), s)
	}

	copy(a[:], b)
	return a, nil
}

// MustParseAddr is like ParseAddr but panics on error.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Addr) String() string {
	parts := make([]string, len(a))
	for i, b := range a {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// IsZero reports whether the address is unset.
func (a Addr) IsZero() bool {
	return a == Addr{}
}
