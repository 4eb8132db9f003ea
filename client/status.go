package client

import "context"

// StatusSummary is a JSON-serializable snapshot of a device's master
// status and meter levels, fetched in one call (§4.7 supplement, backing
// the gateway's GET /devices/{i}).
type StatusSummary struct {
	Preset       uint8     `json:"preset"`
	Source       uint8     `json:"source"`
	Volume       float32   `json:"volume"`
	Muted        bool      `json:"muted"`
	InputLevels  []float32 `json:"input_levels"`
	OutputLevels []float32 `json:"output_levels"`
}

// StatusSummary fetches master status plus every input/output meter
// level in one round of requests.
func (c *Client) StatusSummary(ctx context.Context) (StatusSummary, error) {
	status, err := c.MasterStatus(ctx)
	if err != nil {
		return StatusSummary{}, err
	}

	var meterAddrs []uint16
	for _, in := range c.device.Inputs {
		if in.Meter != nil {
			meterAddrs = append(meterAddrs, *in.Meter)
		}
	}
	for _, out := range c.device.Outputs {
		meterAddrs = append(meterAddrs, out.Meter)
	}

	levels, err := c.ReadFloatsMulti(ctx, meterAddrs)
	if err != nil {
		return StatusSummary{}, err
	}

	summary := StatusSummary{
		Preset: status.Preset,
		Source: status.Source,
		Volume: float32(status.Volume),
		Muted:  status.Muted,
	}
	for _, in := range c.device.Inputs {
		if in.Meter != nil {
			summary.InputLevels = append(summary.InputLevels, levels[*in.Meter])
		}
	}
	for _, out := range c.device.Outputs {
		summary.OutputLevels = append(summary.OutputLevels, levels[out.Meter])
	}
	return summary, nil
}
