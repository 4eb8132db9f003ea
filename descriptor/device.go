package descriptor

// Device describes how the high-level client should interact with a
// product based on its memory layout (§3 "Device descriptor"). It is
// resolved once per device binding and never mutated afterward.
type Device struct {
	// ProductName identifies the product, e.g. "2x4HD".
	ProductName string
	// Sources names the selectable input sources, in SetSource id order.
	Sources []string
	// Inputs describes every input channel.
	Inputs []Input
	// Outputs describes every output channel.
	Outputs []Output
	// FirMaxTaps is the maximum total number of FIR taps across all
	// filters.
	FirMaxTaps uint16
	// InternalSamplingRate is the DSP's internal sampling rate in Hz.
	InternalSamplingRate uint32
	// Dialect is the wire dialect this device speaks.
	Dialect Dialect
}

// Input describes an input channel and its features. Gate and Meter are
// nil when the channel exposes no mute/gain control or no meter.
type Input struct {
	Gate    *Gate
	Meter   *uint16
	Peq     []uint16
	Routing []Gate
}

// Output describes an output channel and its features.
type Output struct {
	Gate       Gate
	Meter      uint16
	DelayAddr  uint16
	InvertAddr uint16
	Peq        []uint16
	Crossover  *Crossover
	Compressor *Compressor
	Fir        *Fir
}

// Gate is a control having both a mute and a gain setting.
type Gate struct {
	// Enable controls whether audio passes: WriteIntDisabled/Enabled.
	Enable uint16
	// Gain controls the channel's gain.
	Gain uint16
}

// Compressor describes a dynamics compressor's controls.
type Compressor struct {
	Bypass    uint16
	Threshold uint16
	Ratio     uint16
	Attack    uint16
	Release   uint16
	Meter     *uint16
}

// Crossover describes the first address of each biquad group backing a
// crossover filter; each group contains 4 sequential biquads.
type Crossover struct {
	Peqs []uint16
}

// Fir describes an output's FIR filter controls.
type Fir struct {
	// Index identifies this filter in FirLoadStart/FirLoadData.
	Index uint8
	// NumCoefficients is the cell holding the active coefficient count.
	NumCoefficients uint16
	// Bypass is the cell toggling the filter on/off.
	Bypass uint16
	// MaxCoefficients bounds how many taps this filter accepts.
	MaxCoefficients uint16
}
