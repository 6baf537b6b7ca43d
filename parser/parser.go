// Package parser walks the AD structures of an advertising payload.
package parser

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

var EmptyOrNilPdu = errors.New("nil/empty pdu")

// https://www.bluetooth.org/en-us/specification/assigned-numbers/generic-access-profile
const (
	TypeFlags       byte = 0x01
	TypeUUID16Inc   byte = 0x02
	TypeUUID16Comp  byte = 0x03
	TypeUUID32Inc   byte = 0x04
	TypeUUID32Comp  byte = 0x05
	TypeUUID128Inc  byte = 0x06
	TypeUUID128Comp byte = 0x07
	TypeNameShort   byte = 0x08
	TypeNameComp    byte = 0x09
	TypeTxPower     byte = 0x0a
	TypeMfgData     byte = 0xff
)

// Service128FieldLen is the length byte of an AD structure holding exactly
// one 128-bit UUID: the type byte plus 16 UUID bytes.
const Service128FieldLen = 16 + 1

var Keys = struct {
	Flags    string
	Services string
	Name     string
	TxPower  string
	MFG      string
}{
	Flags:    "flags",
	Services: "services",
	Name:     "name",
	TxPower:  "txpwr",
	MFG:      "mfg",
}

type fieldRecord struct {
	arrayElementSz int
	minSz          int
	key            string
}

var fieldDecodeMap = map[byte]fieldRecord{
	TypeUUID16Inc:   {2, 2, Keys.Services},
	TypeUUID16Comp:  {2, 2, Keys.Services},
	TypeUUID32Inc:   {4, 4, Keys.Services},
	TypeUUID32Comp:  {4, 4, Keys.Services},
	TypeUUID128Inc:  {16, 16, Keys.Services},
	TypeUUID128Comp: {16, 16, Keys.Services},
	TypeNameShort:   {0, 1, Keys.Name},
	TypeNameComp:    {0, 1, Keys.Name},
	TypeTxPower:     {0, 1, Keys.TxPower},
	TypeMfgData:     {0, 1, Keys.MFG},
	TypeFlags:       {0, 1, Keys.Flags},
}

// Field is one AD structure. Len is the length byte as it appeared on the air.
type Field struct {
	Len  int
	Type byte
	Data []byte
}

// Walk calls fn for every AD structure in pdu, in order, until fn returns
// false. A zero length byte is an empty structure and is skipped. A
// structure running past the end of pdu stops the walk with an error; fields
// before it have already been visited.
func Walk(pdu []byte, fn func(f Field) bool) error {
	if len(pdu) == 0 {
		return EmptyOrNilPdu
	}

	for i := 0; i < len(pdu); {
		//length @ offset 0
		//type @ offset 1
		//data @ 2 - length
		length := int(pdu[i])
		if length == 0 {
			// empty structure, skip the length byte
			i++
			continue
		}

		//do we have all the bytes for the payload?
		if i+length >= len(pdu) {
			return fmt.Errorf("buffer overflow: want %v, have %v, idx %v", i+length+1, len(pdu), i)
		}

		f := Field{
			Len:  length,
			Type: pdu[i+1],
			Data: pdu[i+2 : i+1+length],
		}
		if !fn(f) {
			return nil
		}

		i += length + 1
	}

	return nil
}

// HasService128 reports whether pdu carries a complete 128-bit service UUID
// list holding exactly uuid. uuid is compared byte for byte, in the order it
// appears over the air. A match found before a malformed structure counts.
func HasService128(pdu []byte, uuid []byte) (bool, error) {
	if len(uuid) != 16 {
		return false, fmt.Errorf("invalid uuid length %d", len(uuid))
	}

	found := false
	err := Walk(pdu, func(f Field) bool {
		if f.Len == Service128FieldLen && f.Type == TypeUUID128Comp && bytes.Equal(f.Data, uuid) {
			found = true
			return false
		}
		return true
	})
	if found {
		return true, nil
	}
	return false, err
}

// Parse decodes the AD structures it knows into a map suitable for logging.
// Service UUIDs are listed as hex strings in over-the-air byte order.
func Parse(pdu []byte) (map[string]interface{}, error) {
	m := make(map[string]interface{})
	var decodeErr error

	err := Walk(pdu, func(f Field) bool {
		dec, ok := fieldDecodeMap[f.Type]
		if !ok || len(f.Data) == 0 {
			return true
		}

		//have min length?
		if dec.minSz > len(f.Data) {
			decodeErr = fmt.Errorf("adv type %v: min length %v, have %v", f.Type, dec.minSz, len(f.Data))
			return false
		}

		//expecting array?
		if dec.arrayElementSz > 0 {
			arr, err := getArray(dec.arrayElementSz, f.Data)
			if err != nil {
				decodeErr = errors.Wrapf(err, "adv type %v", f.Type)
				return false
			}
			v, _ := m[dec.key].([]string)
			m[dec.key] = append(v, arr...)
			return true
		}

		switch dec.key {
		case Keys.Name:
			m[dec.key] = string(f.Data)
		case Keys.TxPower:
			m[dec.key] = int8(f.Data[0])
		default:
			b := make([]byte, len(f.Data))
			copy(b, f.Data)
			m[dec.key] = b
		}
		return true
	})

	if decodeErr != nil {
		return m, decodeErr
	}
	return m, err
}

func getArray(size int, b []byte) ([]string, error) {
	//any remainder?
	count := len(b) / size
	if len(b)%size != 0 || count == 0 {
		return nil, fmt.Errorf("incorrect size")
	}

	arr := make([]string, 0, count)
	for j := 0; j < len(b); j += size {
		arr = append(arr, hex.EncodeToString(b[j:j+size]))
	}

	return arr, nil
}
