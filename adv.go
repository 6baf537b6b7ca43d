package bridge

// MaxAdvDataLength is the largest legacy advertising payload the core accepts.
const MaxAdvDataLength = 31

// AdvReport is a single advertisement report from the radio collaborator.
// Data holds the raw AD structures, exactly as received over the air.
type AdvReport struct {
	Addr     Addr
	AddrType AddrType
	RSSI     int8
	Data     []byte
}

// AdvertisementMapKeys names the fields of a report when it is logged.
var AdvertisementMapKeys = struct {
	MAC      string
	AddrType string
	RSSI     string
	DataLen  string
}{
	MAC:      "mac",
	AddrType: "addrType",
	RSSI:     "rssi",
	DataLen:  "dataLen",
}

// ToMap returns the report as a loggable field map.
func (r AdvReport) ToMap() map[string]interface{} {
	return map[string]interface{}{
		AdvertisementMapKeys.MAC:      r.Addr.String(),
		AdvertisementMapKeys.AddrType: r.AddrType,
		AdvertisementMapKeys.RSSI:     r.RSSI,
		AdvertisementMapKeys.DataLen:  len(r.Data),
	}
}
