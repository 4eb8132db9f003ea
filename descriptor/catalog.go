package descriptor

// Generic is used when probing succeeds but no specific descriptor
// matches the reported hardware id (§3).
var Generic = Device{
	ProductName:          "Generic",
	Sources:              nil,
	Inputs:               nil,
	Outputs:              nil,
	FirMaxTaps:           0,
	InternalSamplingRate: 0,
	Dialect:              DefaultDialect,
}

func u16p(v uint16) *uint16 { return &v }

// twoByFourHD is a concrete descriptor for a 2-input/4-output product,
// modeled on the reference "2x4HD" device: 3 analog/toslink/usb sources,
// 10 PEQs per channel, two 4-biquad crossover groups per output, one
// compressor and one FIR filter per output.
var twoByFourHD = Device{
	ProductName: "2x4HD",
	Sources:     []string{"Analog", "Toslink", "USB"},
	Inputs: []Input{
		{
			Gate:    &Gate{Enable: 0x0001, Gain: 0x0002},
			Meter:   u16p(0x0003),
			Peq:     []uint16{0x0010, 0x0015, 0x001a, 0x001f, 0x0024, 0x0029, 0x002e, 0x0033, 0x0038, 0x003d},
			Routing: []Gate{{Enable: 0x0100, Gain: 0x0101}, {Enable: 0x0102, Gain: 0x0103}, {Enable: 0x0104, Gain: 0x0105}, {Enable: 0x0106, Gain: 0x0107}},
		},
		{
			Gate:    &Gate{Enable: 0x0005, Gain: 0x0006},
			Meter:   u16p(0x0007),
			Peq:     []uint16{0x0042, 0x0047, 0x004c, 0x0051, 0x0056, 0x005b, 0x0060, 0x0065, 0x006a, 0x006f},
			Routing: []Gate{{Enable: 0x0108, Gain: 0x0109}, {Enable: 0x010a, Gain: 0x010b}, {Enable: 0x010c, Gain: 0x010d}, {Enable: 0x010e, Gain: 0x010f}},
		},
	},
	Outputs: []Output{
		newTwoByFourOutput(0),
		newTwoByFourOutput(1),
		newTwoByFourOutput(2),
		newTwoByFourOutput(3),
	},
	FirMaxTaps:           4096,
	InternalSamplingRate: 96000,
	Dialect:              DefaultDialect,
}

// newTwoByFourOutput builds output channel i's descriptor block, keeping
// per-channel addresses at a fixed stride apart.
func newTwoByFourOutput(i uint16) Output {
	base := uint16(0x0200) + i*0x0080
	peqBase := base + 0x0010
	peqs := make([]uint16, 10)
	for j := range peqs {
		peqs[j] = peqBase + uint16(j)*5
	}
	return Output{
		Gate:       Gate{Enable: base + 0x01, Gain: base + 0x02},
		Meter:      base + 0x03,
		DelayAddr:  base + 0x04,
		InvertAddr: base + 0x05,
		Peq:        peqs,
		Crossover: &Crossover{
			Peqs: []uint16{peqBase + 0x40, peqBase + 0x54},
		},
		Compressor: &Compressor{
			Bypass:    base + 0x06,
			Threshold: base + 0x07,
			Ratio:     base + 0x08,
			Attack:    base + 0x09,
			Release:   base + 0x0a,
			Meter:     u16p(base + 0x0b),
		},
		Fir: &Fir{
			Index:           uint8(i),
			NumCoefficients: base + 0x0c,
			Bypass:          base + 0x0d,
			MaxCoefficients: 4096,
		},
	}
}

// byHardwareID maps a device's reported hardware id to its static
// descriptor, mirroring the reference protocol's probe() dispatch (§3).
var byHardwareID = map[uint8]Device{
	10: twoByFourHD,
}

// Lookup resolves a Device descriptor from a reported hardware id,
// falling back to Generic when no specific entry matches.
func Lookup(hardwareID uint8) Device {
	if d, ok := byHardwareID[hardwareID]; ok {
		return d
	}
	return Generic
}
