package client

import (
	"context"

	"github.com/ardnew/dspctl/protocol"
)

// Config mirrors the descriptor tree with every field optional, so a
// JSON body need only carry the settings it wants to change (§4.7, §4.10
// supplement, ported from the reference object model).
type Config struct {
	Mute    *bool                `json:"mute,omitempty"`
	Source  *uint8               `json:"source,omitempty"`
	Volume  *float32             `json:"volume,omitempty"`
	Preset  *uint8               `json:"preset,omitempty"`
	Inputs  map[int]InputConfig  `json:"inputs,omitempty"`
	Outputs map[int]OutputConfig `json:"outputs,omitempty"`
}

// GateConfig is an optional mute/gain pair.
type GateConfig struct {
	Mute *bool    `json:"mute,omitempty"`
	Gain *float64 `json:"gain,omitempty"`
}

// RoutingEntry is one entry of an input's routing matrix row.
type RoutingEntry struct {
	Gate *GateConfig `json:"gate,omitempty"`
}

// PeqConfig is an optional biquad coefficient set plus bypass flag.
type PeqConfig struct {
	Coefficients *[5]float32 `json:"coefficients,omitempty"`
	Bypass       *bool       `json:"bypass,omitempty"`
}

// CrossoverConfig carries per-biquad PEQ settings for a crossover,
// keyed first by filter group then by biquad index within that group.
type CrossoverConfig struct {
	Peqs map[int]map[int]PeqConfig `json:"peqs,omitempty"`
}

// CompressorConfig is an optional dynamics-compressor setting set.
type CompressorConfig struct {
	Bypass    *bool    `json:"bypass,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Ratio     *float32 `json:"ratio,omitempty"`
	Attack    *float32 `json:"attack,omitempty"`
	Release   *float32 `json:"release,omitempty"`
}

// FirConfig is an optional FIR-filter setting set. Setting Coefficients
// triggers the full load sequence (FirControl.Load).
type FirConfig struct {
	Coefficients []float32 `json:"coefficients,omitempty"`
	Bypass       *bool     `json:"bypass,omitempty"`
}

// InputConfig mirrors one input channel's settable controls.
type InputConfig struct {
	Gate    *GateConfig          `json:"gate,omitempty"`
	Peqs    map[int]PeqConfig    `json:"peqs,omitempty"`
	Routing map[int]RoutingEntry `json:"routing,omitempty"`
}

// OutputConfig mirrors one output channel's settable controls.
type OutputConfig struct {
	Gate       *GateConfig       `json:"gate,omitempty"`
	Peqs       map[int]PeqConfig `json:"peqs,omitempty"`
	Crossover  *CrossoverConfig  `json:"crossover,omitempty"`
	Compressor *CompressorConfig `json:"compressor,omitempty"`
	Fir        *FirConfig        `json:"fir,omitempty"`
}

// ApplyConfig walks only cfg's non-nil fields and issues the
// corresponding writes (§4.7). A failure partway through leaves earlier
// writes in place and returns the first error encountered.
func (c *Client) ApplyConfig(ctx context.Context, cfg Config) error {
	if cfg.Mute != nil {
		if err := c.SetMute(ctx, *cfg.Mute); err != nil {
			return err
		}
	}
	if cfg.Source != nil {
		if err := c.SetSource(ctx, *cfg.Source); err != nil {
			return err
		}
	}
	if cfg.Volume != nil {
		if err := c.SetVolume(ctx, protocol.Gain(*cfg.Volume)); err != nil {
			return err
		}
	}
	if cfg.Preset != nil {
		if err := c.SetConfig(ctx, *cfg.Preset, false); err != nil {
			return err
		}
	}
	for idx, in := range cfg.Inputs {
		if err := c.applyInputConfig(ctx, idx, in); err != nil {
			return err
		}
	}
	for idx, out := range cfg.Outputs {
		if err := c.applyOutputConfig(ctx, idx, out); err != nil {
			return err
		}
	}
	return nil
}

func applyGateConfig(ctx context.Context, g GateControl, cfg *GateConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.Mute != nil {
		if err := g.SetMute(ctx, *cfg.Mute); err != nil {
			return err
		}
	}
	if cfg.Gain != nil {
		if err := g.SetGain(ctx, *cfg.Gain); err != nil {
			return err
		}
	}
	return nil
}

func applyPeqConfig(ctx context.Context, p PeqControl, cfg PeqConfig) error {
	if cfg.Coefficients != nil {
		if err := p.SetCoefficients(ctx, *cfg.Coefficients); err != nil {
			return err
		}
	}
	if cfg.Bypass != nil {
		if err := p.SetBypass(ctx, *cfg.Bypass); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) applyInputConfig(ctx context.Context, idx int, cfg InputConfig) error {
	ic := c.Input(idx)
	if cfg.Gate != nil {
		if gate, ok := ic.Gate(); ok {
			if err := applyGateConfig(ctx, gate, cfg.Gate); err != nil {
				return err
			}
		}
	}
	for peqIdx, peqCfg := range cfg.Peqs {
		if err := applyPeqConfig(ctx, ic.Peq(peqIdx), peqCfg); err != nil {
			return err
		}
	}
	for routeIdx, entry := range cfg.Routing {
		if err := applyGateConfig(ctx, ic.Routing(routeIdx), entry.Gate); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) applyOutputConfig(ctx context.Context, idx int, cfg OutputConfig) error {
	oc := c.Output(idx)
	if cfg.Gate != nil {
		if err := applyGateConfig(ctx, oc.Gate(), cfg.Gate); err != nil {
			return err
		}
	}
	for peqIdx, peqCfg := range cfg.Peqs {
		if err := applyPeqConfig(ctx, oc.Peq(peqIdx), peqCfg); err != nil {
			return err
		}
	}
	if cfg.Crossover != nil {
		if xo, ok := oc.Crossover(); ok {
			for group, indices := range cfg.Crossover.Peqs {
				for index, peqCfg := range indices {
					peq, err := xo.Peq(group, index)
					if err != nil {
						return err
					}
					if err := applyPeqConfig(ctx, peq, peqCfg); err != nil {
						return err
					}
				}
			}
		}
	}
	if cfg.Compressor != nil {
		if comp, ok := oc.Compressor(); ok {
			if err := applyCompressorConfig(ctx, comp, cfg.Compressor); err != nil {
				return err
			}
		}
	}
	if cfg.Fir != nil {
		if fir, ok := oc.Fir(); ok {
			if cfg.Fir.Bypass != nil {
				if err := fir.SetBypass(ctx, *cfg.Fir.Bypass); err != nil {
					return err
				}
			}
			if cfg.Fir.Coefficients != nil {
				if err := fir.Load(ctx, cfg.Fir.Coefficients); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func applyCompressorConfig(ctx context.Context, x CompressorControl, cfg *CompressorConfig) error {
	if cfg.Bypass != nil {
		if err := x.SetBypass(ctx, *cfg.Bypass); err != nil {
			return err
		}
	}
	if cfg.Threshold != nil {
		if err := x.SetThreshold(ctx, *cfg.Threshold); err != nil {
			return err
		}
	}
	if cfg.Ratio != nil {
		if err := x.SetRatio(ctx, *cfg.Ratio); err != nil {
			return err
		}
	}
	if cfg.Attack != nil {
		if err := x.SetAttack(ctx, *cfg.Attack); err != nil {
			return err
		}
	}
	if cfg.Release != nil {
		if err := x.SetRelease(ctx, *cfg.Release); err != nil {
			return err
		}
	}
	return nil
}
