// Package button turns button edges into bridge actions.
package button

// LongPressTicks is the hold time, in coarse ticks, a press must exceed to
// count as a long press.
const LongPressTicks = 5

// Sample is sent to the central on a short press.
var Sample = []byte("From Client\n")

type Intent int

const (
	None Intent = iota
	StartDiscovery
	SendSample
)

func (i Intent) String() string {
	switch i {
	case StartDiscovery:
		return "start discovery"
	case SendSample:
		return "send sample"
	default:
		return "none"
	}
}

// Classify maps one press to an intent.
func Classify(pressTick, releaseTick uint32, centralPresent bool) Intent {
	if releaseTick-pressTick > LongPressTicks {
		return StartDiscovery
	}
	if centralPresent {
		return SendSample
	}
	return None
}

// Classifier tracks the button between edges.
type Classifier struct {
	armed     bool
	pressTick uint32
}

// Edge feeds one button edge observed at tick. Only a release that follows a
// press yields an intent.
func (c *Classifier) Edge(pressed bool, tick uint32, centralPresent bool) Intent {
	if pressed {
		c.armed = true
		c.pressTick = tick
		return None
	}
	if !c.armed {
		return None
	}
	c.armed = false
	return Classify(c.pressTick, tick, centralPresent)
}

// Armed reports whether a press is waiting for its release.
func (c *Classifier) Armed() bool {
	return c.armed
}
