package client

import (
	"context"

	"github.com/ardnew/dspctl/descriptor"
	"github.com/ardnew/dspctl/pkg"
	"github.com/ardnew/dspctl/protocol"
)

// InputControl is a typed projection onto one input channel's controls
// (§4.7).
type InputControl struct {
	c   *Client
	idx int
}

// Gate returns the channel's mute/gain control, or false if this input
// exposes none.
func (ic InputControl) Gate() (GateControl, bool) {
	g := ic.c.device.Inputs[ic.idx].Gate
	if g == nil {
		return GateControl{}, false
	}
	return GateControl{c: ic.c, gate: *g}, true
}

// Peq returns the j'th parametric equalizer in this input's PEQ bank.
func (ic InputControl) Peq(j int) PeqControl {
	return PeqControl{c: ic.c, addr: ic.c.device.Inputs[ic.idx].Peq[j]}
}

// Routing returns the mute/gain control for the j'th entry of this
// input's routing matrix row.
func (ic InputControl) Routing(j int) GateControl {
	return GateControl{c: ic.c, gate: ic.c.device.Inputs[ic.idx].Routing[j]}
}

// OutputControl is a typed projection onto one output channel's controls.
type OutputControl struct {
	c   *Client
	idx int
}

// Gate returns the channel's mute/gain control.
func (oc OutputControl) Gate() GateControl {
	return GateControl{c: oc.c, gate: oc.c.device.Outputs[oc.idx].Gate}
}

// Peq returns the j'th parametric equalizer in this output's PEQ bank.
func (oc OutputControl) Peq(j int) PeqControl {
	return PeqControl{c: oc.c, addr: oc.c.device.Outputs[oc.idx].Peq[j]}
}

// Crossover returns the output's crossover control, or false if it has
// none.
func (oc OutputControl) Crossover() (CrossoverControl, bool) {
	x := oc.c.device.Outputs[oc.idx].Crossover
	if x == nil {
		return CrossoverControl{}, false
	}
	return CrossoverControl{c: oc.c, peqs: x.Peqs}, true
}

// Compressor returns the output's dynamics compressor control, or false
// if it has none.
func (oc OutputControl) Compressor() (CompressorControl, bool) {
	comp := oc.c.device.Outputs[oc.idx].Compressor
	if comp == nil {
		return CompressorControl{}, false
	}
	return CompressorControl{c: oc.c, spec: *comp}, true
}

// Fir returns the output's FIR filter control, or false if it has none.
func (oc OutputControl) Fir() (FirControl, bool) {
	f := oc.c.device.Outputs[oc.idx].Fir
	if f == nil {
		return FirControl{}, false
	}
	return FirControl{c: oc.c, spec: *f}, true
}

// GateControl is a mute/gain pair, shared by inputs, outputs, and input
// routing matrix entries.
type GateControl struct {
	c    *Client
	gate descriptor.Gate
}

// SetMute toggles the gate's enable cell.
func (g GateControl) SetMute(ctx context.Context, muted bool) error {
	_, err := g.c.mux.Roundtrip(ctx, protocol.Mute(g.gate.Enable, muted))
	return err
}

// SetGain writes a decibel gain to the gate's gain cell, encoded per the
// device's dialect.
func (g GateControl) SetGain(ctx context.Context, db float64) error {
	cmd := protocol.Write{Addr: g.c.device.Dialect.Addr(g.gate.Gain), Value: g.c.device.Dialect.DbValue(db)}
	_, err := g.c.mux.Roundtrip(ctx, cmd)
	return err
}

// PeqControl is a single biquad cell: five coefficients plus a bypass
// flag.
type PeqControl struct {
	c    *Client
	addr uint16
}

// SetCoefficients writes the five biquad coefficients b0,b1,b2,a1,a2.
func (p PeqControl) SetCoefficients(ctx context.Context, coefficients [5]float32) error {
	cmd := protocol.WriteBiquad{Addr: p.c.device.Dialect.Addr(p.addr), Data: coefficients}
	_, err := p.c.mux.Roundtrip(ctx, cmd)
	return err
}

// SetBypass toggles the biquad's bypass flag.
func (p PeqControl) SetBypass(ctx context.Context, bypass bool) error {
	cmd := protocol.WriteBiquadBypass{Addr: p.c.device.Dialect.Addr(p.addr), Value: bypass}
	_, err := p.c.mux.Roundtrip(ctx, cmd)
	return err
}

// CrossoverControl is a group of biquads forming a frequency-splitting
// filter.
type CrossoverControl struct {
	c    *Client
	peqs []uint16
}

// crossoverBiquadsPerGroup is the number of biquad cells addressable
// within a single crossover filter group (§4.7, reference lib.rs
// num_filter_per_group).
const crossoverBiquadsPerGroup = 4

// Peq returns the biquad at index within the group'th filter group of
// this crossover, or pkg.ErrIndexOutOfRange if group or index is out of
// bounds.
func (x CrossoverControl) Peq(group, index int) (PeqControl, error) {
	if group < 0 || group >= len(x.peqs) || index < 0 || index >= crossoverBiquadsPerGroup {
		return PeqControl{}, pkg.ErrIndexOutOfRange
	}
	addr := x.peqs[group] + uint16(index)*5
	return PeqControl{c: x.c, addr: addr}, nil
}

// CompressorControl is a dynamics compressor's controls.
type CompressorControl struct {
	c    *Client
	spec descriptor.Compressor
}

// SetBypass bypasses or re-enables the compressor.
func (x CompressorControl) SetBypass(ctx context.Context, bypass bool) error {
	v := protocol.WriteIntEnabled
	if bypass {
		v = protocol.WriteIntBypassed
	}
	cmd := protocol.Write{Addr: x.c.device.Dialect.Addr(x.spec.Bypass), Value: protocol.IntValue(v)}
	_, err := x.c.mux.Roundtrip(ctx, cmd)
	return err
}

// SetThreshold writes the compressor's threshold, in dB.
func (x CompressorControl) SetThreshold(ctx context.Context, db float64) error {
	cmd := protocol.Write{Addr: x.c.device.Dialect.Addr(x.spec.Threshold), Value: x.c.device.Dialect.DbValue(db)}
	_, err := x.c.mux.Roundtrip(ctx, cmd)
	return err
}

// SetRatio writes the compressor's ratio.
func (x CompressorControl) SetRatio(ctx context.Context, ratio float32) error {
	cmd := protocol.Write{Addr: x.c.device.Dialect.Addr(x.spec.Ratio), Value: x.c.device.Dialect.Value(ratio)}
	_, err := x.c.mux.Roundtrip(ctx, cmd)
	return err
}

// SetAttack writes the compressor's attack time, in milliseconds.
func (x CompressorControl) SetAttack(ctx context.Context, ms float32) error {
	cmd := protocol.Write{Addr: x.c.device.Dialect.Addr(x.spec.Attack), Value: x.c.device.Dialect.Value(ms)}
	_, err := x.c.mux.Roundtrip(ctx, cmd)
	return err
}

// SetRelease writes the compressor's release time, in milliseconds.
func (x CompressorControl) SetRelease(ctx context.Context, ms float32) error {
	cmd := protocol.Write{Addr: x.c.device.Dialect.Addr(x.spec.Release), Value: x.c.device.Dialect.Value(ms)}
	_, err := x.c.mux.Roundtrip(ctx, cmd)
	return err
}

// Meter reads the compressor's gain-reduction meter, if the descriptor
// exposes one.
func (x CompressorControl) Meter(ctx context.Context) (float32, error) {
	if x.spec.Meter == nil {
		return 0, pkg.ErrIndexOutOfRange
	}
	resp, err := x.c.mux.Roundtrip(ctx, protocol.ReadFloats{Addr: *x.spec.Meter, Len: 1})
	if err != nil {
		return 0, err
	}
	fd, ok := resp.(protocol.FloatData)
	if !ok || len(fd.Data) != 1 {
		return 0, pkg.ErrUnexpectedResponse
	}
	return fd.Data[0], nil
}

// FirControl is an output's FIR filter control.
type FirControl struct {
	c    *Client
	spec descriptor.Fir
}

// Load performs the full FIR coefficient load sequence (§4.7): start,
// validate against the device's reported capacity, write the active
// coefficient count, stream coefficients in chunks of 14, end, then
// restore the master-mute state captured before the load began. Any
// failure aborts with the DSP left in its partial state.
func (f FirControl) Load(ctx context.Context, coefficients []float32) error {
	resp, err := f.c.mux.Roundtrip(ctx, protocol.FirLoadStart{Index: f.spec.Index})
	if err != nil {
		return err
	}
	size, ok := resp.(protocol.FirLoadSize)
	if !ok {
		return pkg.ErrUnexpectedResponse
	}
	if len(coefficients) > int(size.Size) {
		return pkg.ErrTooManyCoefficients
	}

	status, err := f.c.MasterStatus(ctx)
	if err != nil {
		return err
	}

	countCmd := protocol.Write{
		Addr:  f.c.device.Dialect.Addr(f.spec.NumCoefficients),
		Value: protocol.IntValue(uint16(len(coefficients))),
	}
	if _, err := f.c.mux.Roundtrip(ctx, countCmd); err != nil {
		return err
	}

	for off := 0; off < len(coefficients); off += firChunkSize {
		end := off + firChunkSize
		if end > len(coefficients) {
			end = len(coefficients)
		}
		chunk := append([]float32(nil), coefficients[off:end]...)
		if _, err := f.c.mux.Roundtrip(ctx, protocol.FirLoadData{Index: f.spec.Index, Data: chunk}); err != nil {
			return err
		}
	}

	if _, err := f.c.mux.Roundtrip(ctx, protocol.FirLoadEnd{}); err != nil {
		return err
	}

	return f.c.SetMute(ctx, status.Muted)
}

// SetBypass toggles the FIR filter on or off.
func (f FirControl) SetBypass(ctx context.Context, bypass bool) error {
	v := protocol.WriteIntEnabled
	if bypass {
		v = protocol.WriteIntDisabled
	}
	cmd := protocol.Write{Addr: f.c.device.Dialect.Addr(f.spec.Bypass), Value: protocol.IntValue(v)}
	_, err := f.c.mux.Roundtrip(ctx, cmd)
	return err
}
