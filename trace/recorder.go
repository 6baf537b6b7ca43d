package trace

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rigado/bridge"
)

// Command is one call issued by the bridge to a collaborator.
type Command struct {
	Op     string
	Handle bridge.Handle
	Addr   bridge.Addr
	Attr   bridge.AttrID
	Data   []byte
	Arg    string
}

func (c Command) String() string {
	parts := []string{c.Op}
	switch c.Op {
	case OpConnect:
		parts = append(parts, c.Addr.String())
	case OpSetScan, OpSetAdvertise, OpEraseAllBonds, OpCancelConnect:
	case OpSave, OpExists:
		parts = append(parts, c.Addr.String())
	default:
		parts = append(parts, c.Handle.String())
	}
	if c.Attr != 0 {
		parts = append(parts, fmt.Sprintf("0x%04X", uint16(c.Attr)))
	}
	if c.Arg != "" {
		parts = append(parts, c.Arg)
	}
	if c.Data != nil {
		parts = append(parts, hex.EncodeToString(c.Data))
	}
	return strings.Join(parts, " ")
}

const (
	OpSetScan           = "SetScan"
	OpSetAdvertise      = "SetAdvertise"
	OpConnect           = "Connect"
	OpCancelConnect     = "CancelConnect"
	OpDisconnect        = "Disconnect"
	OpUpdateConnParams  = "UpdateConnParams"
	OpStartPairing      = "StartPairing"
	OpRequestEncryption = "RequestEncryption"
	OpEraseAllBonds     = "EraseAllBonds"
	OpExists            = "Exists"
	OpSave              = "Save"
	OpDeleteAll         = "DeleteAll"
	OpSendNotification  = "SendNotification"
	OpSendIndication    = "SendIndication"
	OpSendConfirmation  = "SendConfirmation"
	OpWriteRequest      = "WriteRequest"
)

// Recorder stands in for the radio, security, bond and GATT layers. Every
// call is logged and appended to Commands; Fail injects an error per op.
type Recorder struct {
	Commands []Command
	Bonds    map[bridge.Addr]bool
	Fail     map[string]error

	logger bridge.Logger
}

func NewRecorder(l bridge.Logger) *Recorder {
	return &Recorder{
		Bonds:  make(map[bridge.Addr]bool),
		Fail:   make(map[string]error),
		logger: bridge.ComponentLogger(l, "recorder"),
	}
}

func (r *Recorder) record(c Command) error {
	// Exists is a query, keep it out of the command log
	if c.Op != OpExists {
		r.Commands = append(r.Commands, c)
		r.logger.Info("-> ", c)
	}
	return r.Fail[c.Op]
}

// Reset drops the recorded commands. Bonds are kept.
func (r *Recorder) Reset() {
	r.Commands = nil
}

// Filter returns the recorded commands with the given op.
func (r *Recorder) Filter(op string) []Command {
	var out []Command
	for _, c := range r.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many commands with the given op were recorded.
func (r *Recorder) Count(op string) int {
	return len(r.Filter(op))
}

// Ops returns the recorded command names in order.
func (r *Recorder) Ops() []string {
	out := make([]string, 0, len(r.Commands))
	for _, c := range r.Commands {
		out = append(out, c.Op)
	}
	return out
}

func (r *Recorder) SetScan(m bridge.ScanMode) error {
	return r.record(Command{Op: OpSetScan, Arg: m.String()})
}

func (r *Recorder) SetAdvertise(m bridge.AdvMode) error {
	return r.record(Command{Op: OpSetAdvertise, Arg: m.String()})
}

func (r *Recorder) Connect(a bridge.Addr, t bridge.AddrType) error {
	return r.record(Command{Op: OpConnect, Addr: a, Arg: fmt.Sprintf("type %d", t)})
}

func (r *Recorder) CancelConnect() error {
	return r.record(Command{Op: OpCancelConnect})
}

func (r *Recorder) Disconnect(h bridge.Handle, reason uint8) error {
	return r.record(Command{Op: OpDisconnect, Handle: h, Arg: fmt.Sprintf("reason 0x%02X", reason)})
}

func (r *Recorder) UpdateConnParams(h bridge.Handle, p bridge.ConnParams) error {
	return r.record(Command{Op: OpUpdateConnParams, Handle: h,
		Arg: fmt.Sprintf("%d-%d latency %d timeout %d", p.IntervalMin, p.IntervalMax, p.Latency, p.Timeout)})
}

func (r *Recorder) StartPairing(h bridge.Handle) error {
	return r.record(Command{Op: OpStartPairing, Handle: h})
}

func (r *Recorder) RequestEncryption(h bridge.Handle) error {
	return r.record(Command{Op: OpRequestEncryption, Handle: h})
}

func (r *Recorder) EraseAllBonds() error {
	return r.record(Command{Op: OpEraseAllBonds})
}

func (r *Recorder) Exists(a bridge.Addr) bool {
	r.record(Command{Op: OpExists, Addr: a})
	return r.Bonds[a]
}

func (r *Recorder) Save(a bridge.Addr) error {
	if err := r.record(Command{Op: OpSave, Addr: a}); err != nil {
		return err
	}
	r.Bonds[a] = true
	return nil
}

func (r *Recorder) DeleteAll() error {
	if err := r.record(Command{Op: OpDeleteAll}); err != nil {
		return err
	}
	r.Bonds = make(map[bridge.Addr]bool)
	return nil
}

func (r *Recorder) SendNotification(h bridge.Handle, attr bridge.AttrID, b []byte) error {
	return r.record(Command{Op: OpSendNotification, Handle: h, Attr: attr, Data: clone(b)})
}

func (r *Recorder) SendIndication(h bridge.Handle, attr bridge.AttrID, b []byte) error {
	return r.record(Command{Op: OpSendIndication, Handle: h, Attr: attr, Data: clone(b)})
}

func (r *Recorder) SendConfirmation(h bridge.Handle) error {
	return r.record(Command{Op: OpSendConfirmation, Handle: h})
}

func (r *Recorder) WriteRequest(h bridge.Handle, attr bridge.AttrID, b []byte) error {
	return r.record(Command{Op: OpWriteRequest, Handle: h, Attr: attr, Data: clone(b)})
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
