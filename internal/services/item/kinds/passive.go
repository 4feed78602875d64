package kinds

// Passive is an always-on feature with optional limited uses.
type Passive struct {
	Label   string `json:"name"`
	Text    string `json:"description"`
	Uses    int    `json:"uses"`
	MaxUses int    `json:"maxUses"`
	// Transfer disables effect transfer when explicitly false.
	Transfer *bool `json:"transferEffects,omitempty"`
}

func (p *Passive) Name() string        { return p.Label }
func (p *Passive) Description() string { return p.Text }

// PrepareData clamps remaining uses to the maximum.
func (p *Passive) PrepareData() {
	if p.MaxUses < 0 {
		p.MaxUses = 0
	}
	p.Uses = min(max(p.Uses, 0), p.MaxUses)
}

// TransferEffects reports whether the feature's effects apply to its owner.
func (p *Passive) TransferEffects() bool {
	return p.Transfer == nil || *p.Transfer
}
