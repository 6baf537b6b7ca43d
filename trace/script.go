// Package trace replays stack events from a text script into a
// bridge.Handler and records the commands the bridge issues in return.
//
// A script holds one event per line, blank lines and lines starting with
// '#' are skipped:
//
//	up 0x0040 peripheral 00:a0:50:11:22:33
//	down 0x0040 0x13
//	adv 00:a0:50:11:22:33 random -60 0201061107...
//	scan-expired
//	pair 0x0040 bonded
//	enc 0x0040 0x00
//	notify 0x0040 0x2a 48656c6c6f
//	indicate 0x0040 0x2a 48656c6c6f
//	write 0x0041 0x2b 0100
//	tick coarse 10
//	button down
package trace

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rigado/bridge"
)

// Event is one parsed script line.
type Event struct {
	Line int
	Text string
	Op   string

	fire func(h bridge.Handler) error
}

// Dispatch delivers the event to h.
func (e Event) Dispatch(h bridge.Handler) error {
	return e.fire(h)
}

type eventParser func(args []string) (func(h bridge.Handler) error, error)

var parsers = map[string]struct {
	nargs []int
	parse eventParser
}{
	"up":           {[]int{3}, parseUp},
	"down":         {[]int{1, 2}, parseDown},
	"adv":          {[]int{4}, parseAdv},
	"scan-expired": {[]int{0}, parseScanExpired},
	"pair":         {[]int{2}, parsePair},
	"enc":          {[]int{2}, parseEnc},
	"notify":       {[]int{3}, parseData(false)},
	"indicate":     {[]int{3}, parseData(true)},
	"write":        {[]int{2, 3}, parseWrite},
	"tick":         {[]int{1, 2}, parseTick},
	"button":       {[]int{1}, parseButton},
}

// ParseLine parses one script line. ok is false for blank and comment lines.
func ParseLine(s string) (e Event, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return Event{}, false, nil
	}

	f := strings.Fields(s)
	p, found := parsers[f[0]]
	if !found {
		return Event{}, false, fmt.Errorf("unknown event %q", f[0])
	}

	args := f[1:]
	argOk := false
	for _, n := range p.nargs {
		if len(args) == n {
			argOk = true
		}
	}
	if !argOk {
		return Event{}, false, fmt.Errorf("%s: unexpected argument count %d", f[0], len(args))
	}

	fire, err := p.parse(args)
	if err != nil {
		return Event{}, false, errors.Wrap(err, f[0])
	}
	return Event{Text: s, Op: f[0], fire: fire}, true, nil
}

// Parse reads a whole script.
func Parse(r io.Reader) ([]Event, error) {
	var out []Event
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		e, ok, err := ParseLine(sc.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		if ok {
			e.Line = n
			out = append(out, e)
		}
	}
	return out, errors.Wrap(sc.Err(), "read script")
}

// Run parses events from r as they arrive and dispatches them to h. Write
// rejections are logged and do not stop the run.
func Run(r io.Reader, h bridge.Handler, l bridge.Logger) error {
	logger := bridge.ComponentLogger(l, "trace")
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		e, ok, err := ParseLine(sc.Text())
		if err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
		if !ok {
			continue
		}
		logger.Debugf("<- %s", e.Text)
		if err := e.Dispatch(h); err != nil {
			logger.Warnf("line %d: %v", n, err)
		}
	}
	return errors.Wrap(sc.Err(), "read script")
}

func parseHandle(s string) (bridge.Handle, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid handle %q", s)
	}
	return bridge.Handle(v), nil
}

func parseAttr(s string) (bridge.AttrID, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %q", s)
	}
	return bridge.AttrID(v), nil
}

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return uint8(v), nil
}

func parseHex(s string) ([]byte, error) {
	if s == "-" {
		return []byte{}, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q", s)
	}
	return b, nil
}

func parseUp(args []string) (func(bridge.Handler) error, error) {
	h, err := parseHandle(args[0])
	if err != nil {
		return nil, err
	}

	var role bridge.Role
	switch args[1] {
	case "central":
		role = bridge.RoleCentral
	case "peripheral":
		role = bridge.RolePeripheral
	default:
		return nil, fmt.Errorf("invalid role %q", args[1])
	}

	a, err := bridge.ParseAddr(args[2])
	if err != nil {
		return nil, err
	}
	return func(hd bridge.Handler) error {
		hd.ConnectionUp(h, role, a)
		return nil
	}, nil
}

func parseDown(args []string) (func(bridge.Handler) error, error) {
	h, err := parseHandle(args[0])
	if err != nil {
		return nil, err
	}
	reason := bridge.ReasonRemoteUser
	if len(args) > 1 {
		if reason, err = parseUint8(args[1]); err != nil {
			return nil, err
		}
	}
	return func(hd bridge.Handler) error {
		hd.ConnectionDown(h, reason)
		return nil
	}, nil
}

func parseAdv(args []string) (func(bridge.Handler) error, error) {
	a, err := bridge.ParseAddr(args[0])
	if err != nil {
		return nil, err
	}

	var at bridge.AddrType
	switch args[1] {
	case "public":
		at = bridge.AddrTypePublic
	case "random":
		at = bridge.AddrTypeRandom
	default:
		return nil, fmt.Errorf("invalid address type %q", args[1])
	}

	rssi, err := strconv.ParseInt(args[2], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid rssi %q", args[2])
	}
	data, err := parseHex(args[3])
	if err != nil {
		return nil, err
	}

	r := bridge.AdvReport{Addr: a, AddrType: at, RSSI: int8(rssi), Data: data}
	return func(hd bridge.Handler) error {
		hd.AdvertisementReport(r)
		return nil
	}, nil
}

func parseScanExpired([]string) (func(bridge.Handler) error, error) {
	return func(hd bridge.Handler) error {
		hd.ScanExpired()
		return nil
	}, nil
}

func parsePair(args []string) (func(bridge.Handler) error, error) {
	h, err := parseHandle(args[0])
	if err != nil {
		return nil, err
	}

	var o bridge.PairingOutcome
	switch args[1] {
	case "bonded":
		o = bridge.PairingBonded
	case "failed":
		o = bridge.PairingFailed
	default:
		return nil, fmt.Errorf("invalid outcome %q", args[1])
	}
	return func(hd bridge.Handler) error {
		hd.PairingResult(h, o)
		return nil
	}, nil
}

func parseEnc(args []string) (func(bridge.Handler) error, error) {
	h, err := parseHandle(args[0])
	if err != nil {
		return nil, err
	}
	status, err := parseUint8(args[1])
	if err != nil {
		return nil, err
	}
	return func(hd bridge.Handler) error {
		hd.EncryptionChanged(h, status)
		return nil
	}, nil
}

func parseData(indicate bool) eventParser {
	return func(args []string) (func(bridge.Handler) error, error) {
		h, err := parseHandle(args[0])
		if err != nil {
			return nil, err
		}
		attr, err := parseAttr(args[1])
		if err != nil {
			return nil, err
		}
		b, err := parseHex(args[2])
		if err != nil {
			return nil, err
		}
		return func(hd bridge.Handler) error {
			if indicate {
				hd.IndicationReceived(h, attr, b)
			} else {
				hd.NotificationReceived(h, attr, b)
			}
			return nil
		}, nil
	}
}

func parseWrite(args []string) (func(bridge.Handler) error, error) {
	h, err := parseHandle(args[0])
	if err != nil {
		return nil, err
	}
	attr, err := parseAttr(args[1])
	if err != nil {
		return nil, err
	}
	b := []byte{}
	if len(args) > 2 {
		if b, err = parseHex(args[2]); err != nil {
			return nil, err
		}
	}
	return func(hd bridge.Handler) error {
		return hd.WriteReceived(h, attr, b)
	}, nil
}

func parseTick(args []string) (func(bridge.Handler) error, error) {
	var k bridge.TickKind
	switch args[0] {
	case "coarse":
		k = bridge.TickCoarse
	case "fine":
		k = bridge.TickFine
	default:
		return nil, fmt.Errorf("invalid tick kind %q", args[0])
	}

	n := uint64(1)
	if len(args) > 1 {
		var err error
		if n, err = strconv.ParseUint(args[1], 10, 16); err != nil || n == 0 {
			return nil, fmt.Errorf("invalid tick count %q", args[1])
		}
	}
	return func(hd bridge.Handler) error {
		for i := uint64(0); i < n; i++ {
			hd.Tick(k)
		}
		return nil
	}, nil
}

func parseButton(args []string) (func(bridge.Handler) error, error) {
	var pressed bool
	switch args[0] {
	case "down":
		pressed = true
	case "up":
	default:
		return nil, fmt.Errorf("invalid button state %q", args[0])
	}
	return func(hd bridge.Handler) error {
		hd.ButtonEdge(pressed)
		return nil
	}, nil
}
