package relay

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/slot"
	"github.com/rigado/bridge/trace"
)

const (
	sensorHandle  bridge.Handle = 0x40
	centralHandle bridge.Handle = 0x41
)

func setup(pref bridge.Preference, withCentral bool) (*Engine, *trace.Recorder, *bridge.Preference) {
	tb := slot.New(nil)
	i, _ := tb.Allocate(sensorHandle, bridge.RolePeripheral, bridge.MustParseAddr("00:a0:50:11:22:33"))
	tb.SetSecurity(i, bridge.SecurityState{SMPRole: bridge.SMPRoleInitiator, Phase: bridge.Bonded, Bonded: true})
	if withCentral {
		tb.Allocate(centralHandle, bridge.RoleCentral, bridge.MustParseAddr("11:22:33:44:55:66"))
	}
	rec := trace.NewRecorder(nil)
	p := &pref
	return New(tb, rec, p, nil), rec, p
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestRelayNotify(t *testing.T) {
	e, rec, _ := setup(bridge.Preference{Notify: true}, true)

	sent, err := e.Relay(sensorHandle, payload(25))
	if err != nil || !sent {
		t.Fatalf("relay: %v %v", sent, err)
	}
	n := rec.Filter(trace.OpSendNotification)
	if len(n) != 1 || len(rec.Commands) != 1 {
		t.Fatalf("commands %v", rec.Commands)
	}
	if n[0].Handle != centralHandle || n[0].Attr != bridge.AttrDataValue {
		t.Fatalf("notification target %v", n[0])
	}
	if !bytes.Equal(n[0].Data, payload(20)) {
		t.Fatalf("payload %x", n[0].Data)
	}
}

func TestRelayIndicate(t *testing.T) {
	e, rec, _ := setup(bridge.Preference{Indicate: true}, true)

	e.Relay(sensorHandle, payload(5))
	i := rec.Filter(trace.OpSendIndication)
	if len(i) != 1 || len(rec.Commands) != 1 || !bytes.Equal(i[0].Data, payload(5)) {
		t.Fatalf("commands %v", rec.Commands)
	}
}

func TestNotifyWinsOverIndicate(t *testing.T) {
	e, rec, _ := setup(bridge.Preference{Notify: true, Indicate: true}, true)
	e.Relay(sensorHandle, payload(1))
	if rec.Count(trace.OpSendNotification) != 1 || rec.Count(trace.OpSendIndication) != 0 {
		t.Fatalf("commands %v", rec.Commands)
	}
}

func TestRelayDrops(t *testing.T) {
	// no central
	e, rec, _ := setup(bridge.Preference{Notify: true}, false)
	if sent, err := e.Relay(sensorHandle, payload(4)); sent || err != nil || len(rec.Commands) != 0 {
		t.Fatalf("relayed without central: %v %v %v", sent, err, rec.Commands)
	}

	// not subscribed
	e, rec, _ = setup(bridge.Preference{}, true)
	if sent, _ := e.Relay(sensorHandle, payload(4)); sent || len(rec.Commands) != 0 {
		t.Fatalf("relayed without subscription: %v", rec.Commands)
	}

	// data from the central itself
	e, rec, _ = setup(bridge.Preference{Notify: true}, true)
	if sent, _ := e.Relay(centralHandle, payload(4)); sent || len(rec.Commands) != 0 {
		t.Fatalf("relayed central data: %v", rec.Commands)
	}

	_, err := e.Relay(0x99, payload(4))
	if errors.Cause(err) != bridge.ErrUnknownHandle {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestUnbondedSensorDropped(t *testing.T) {
	tb := slot.New(nil)
	i, _ := tb.Allocate(sensorHandle, bridge.RolePeripheral, bridge.MustParseAddr("00:a0:50:11:22:33"))
	tb.Allocate(centralHandle, bridge.RoleCentral, bridge.MustParseAddr("11:22:33:44:55:66"))
	rec := trace.NewRecorder(nil)
	e := New(tb, rec, &bridge.Preference{Notify: true}, nil)

	for _, ph := range []bridge.PairingPhase{bridge.Unpaired, bridge.Pairing} {
		tb.SetSecurity(i, bridge.SecurityState{SMPRole: bridge.SMPRoleInitiator, Phase: ph})
		if sent, err := e.Relay(sensorHandle, payload(4)); sent || err != nil {
			t.Fatalf("%v: got %v %v", ph, sent, err)
		}
		if sent, _ := e.OnIndication(sensorHandle, bridge.AttrDataValue, payload(4)); sent {
			t.Fatalf("%v: indication relayed", ph)
		}
	}
	if ops := rec.Ops(); len(ops) != 2 || ops[0] != trace.OpSendConfirmation || ops[1] != trace.OpSendConfirmation {
		t.Fatalf("commands %v", rec.Commands)
	}

	// without the encryption requirement any sensor link is forwarded
	rec.Reset()
	e.SetEncryptionRequired(false)
	if sent, err := e.Relay(sensorHandle, payload(4)); !sent || err != nil {
		t.Fatalf("got %v %v", sent, err)
	}
}

func TestPreferenceFollowsOwner(t *testing.T) {
	e, rec, p := setup(bridge.Preference{}, true)
	p.SetConfig(bridge.CCCIndicate)
	e.Relay(sensorHandle, payload(2))
	if rec.Count(trace.OpSendIndication) != 1 {
		t.Fatalf("preference change not seen: %v", rec.Commands)
	}
}

func TestOnIndicationConfirms(t *testing.T) {
	e, rec, _ := setup(bridge.Preference{}, false)
	sent, err := e.OnIndication(sensorHandle, bridge.AttrDataValue, payload(3))
	if sent || err != nil {
		t.Fatalf("got %v %v", sent, err)
	}
	c := rec.Filter(trace.OpSendConfirmation)
	if len(c) != 1 || c[0].Handle != sensorHandle {
		t.Fatalf("confirmation %v", rec.Commands)
	}

	e, rec, _ = setup(bridge.Preference{Notify: true}, true)
	e.OnIndication(sensorHandle, bridge.AttrDataValue, payload(3))
	if ops := rec.Ops(); len(ops) != 2 || ops[0] != trace.OpSendNotification || ops[1] != trace.OpSendConfirmation {
		t.Fatalf("commands %v", ops)
	}
}

func TestSendError(t *testing.T) {
	e, rec, _ := setup(bridge.Preference{Notify: true}, true)
	rec.Fail[trace.OpSendNotification] = errors.New("no buffers")
	sent, err := e.OnNotification(sensorHandle, bridge.AttrDataValue, payload(3))
	if sent || err == nil {
		t.Fatalf("got %v %v", sent, err)
	}
}

func TestMTULimit(t *testing.T) {
	e, rec, _ := setup(bridge.Preference{Notify: true}, true)
	if err := e.SetMTULimit(0); err == nil {
		t.Fatal("no error for zero mtu")
	}
	if err := e.SetMTULimit(8); err != nil {
		t.Fatal(err)
	}
	e.Relay(sensorHandle, payload(25))
	if n := rec.Filter(trace.OpSendNotification); len(n[0].Data) != 8 {
		t.Fatalf("payload length %d", len(n[0].Data))
	}
}

func TestPreferenceCodec(t *testing.T) {
	p := bridge.Preference{Peer: bridge.MustParseAddr("11:22:33:44:55:66"), Notify: true, Indicate: true}
	b := EncodePreference(p)
	if len(b) != PreferenceRecordLen || !bytes.Equal(b[6:], []byte{0x03, 0x00}) {
		t.Fatalf("record %x", b)
	}
	if !bytes.Equal(b[:6], p.Peer[:]) {
		t.Fatalf("record address %x", b[:6])
	}

	got, err := DecodePreference(b)
	if err != nil || got != p {
		t.Fatalf("decode: %+v %v", got, err)
	}

	if _, err := DecodePreference(b[:7]); err == nil {
		t.Fatal("no error for short record")
	}
}
