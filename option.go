package bridge

// CoreOption is implemented by the core to accept configuration options.
type CoreOption interface {
	SetPolicy(Policy) error
	SetTargetService(uuid []byte) error
	SetMinRSSI(rssi int8) error
	SetConnectTimeout(ticks uint32) error
	SetMTULimit(n int) error
	SetSensorClientConfig(attr AttrID) error
	SetLogger(l Logger) error
	SetDataSink(sink func(h Handle, b []byte)) error
}

// An Option is a configuration function, which configures the core.
type Option func(CoreOption) error

// OptPolicy overrides the default policy flags.
func OptPolicy(p Policy) Option {
	return func(opt CoreOption) error {
		return opt.SetPolicy(p)
	}
}

// OptTargetService sets the 128-bit service UUID, in advertisement byte order,
// that makes a peer worth dialing.
func OptTargetService(uuid []byte) Option {
	return func(opt CoreOption) error {
		return opt.SetTargetService(uuid)
	}
}

// OptMinRSSI discards advertisements weaker than rssi.
func OptMinRSSI(rssi int8) Option {
	return func(opt CoreOption) error {
		return opt.SetMinRSSI(rssi)
	}
}

// OptConnectTimeout sets how many coarse ticks a pending connect may take.
func OptConnectTimeout(ticks uint32) Option {
	return func(opt CoreOption) error {
		return opt.SetConnectTimeout(ticks)
	}
}

// OptMTULimit sets the truncation limit of relayed payloads.
func OptMTULimit(n int) Option {
	return func(opt CoreOption) error {
		return opt.SetMTULimit(n)
	}
}

// OptSensorClientConfig sets the descriptor written on a remote peripheral to
// enable its notifications.
func OptSensorClientConfig(attr AttrID) Option {
	return func(opt CoreOption) error {
		return opt.SetSensorClientConfig(attr)
	}
}

// OptLogger sets the logger.
func OptLogger(l Logger) Option {
	return func(opt CoreOption) error {
		return opt.SetLogger(l)
	}
}

// OptDataSink receives payloads the central writes to the data characteristic.
func OptDataSink(sink func(h Handle, b []byte)) Option {
	return func(opt CoreOption) error {
		return opt.SetDataSink(sink)
	}
}
