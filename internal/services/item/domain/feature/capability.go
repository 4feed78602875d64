package feature

import (
	"context"
	"strings"
)

// Payload is a resolved, type-specific feature body. Its concrete type is
// chosen by the registry from the owning record's discriminator.
type Payload any

// Parent is the record hosting a payload. Payloads may keep it for
// cross-field computation; they never own it.
type Parent interface {
	ItemID() string
}

// ParentBinder is implemented by payloads that keep a back-reference to the
// record hosting them.
type ParentBinder interface {
	BindParent(parent Parent)
}

// DerivedDataPreparer recomputes derived values after the payload's source
// data changes. PrepareData must be idempotent.
type DerivedDataPreparer interface {
	PrepareData()
}

// Describer exposes the payload's rich-text description.
type Describer interface {
	Description() string
}

// Namer exposes the payload's display name, the source of the record's
// stable identifier.
type Namer interface {
	Name() string
}

// EffectTransferrer decides whether the payload's active effects apply to
// the owning actor.
type EffectTransferrer interface {
	TransferEffects() bool
}

// Rollable payloads handle their own roll action. parent is the record
// hosting the payload; secondary reports the modifier key (shift) state.
type Rollable interface {
	Roll(ctx context.Context, parent Parent, secondary bool) error
}

// Capability names one optional payload behavior.
type Capability uint8

const (
	CapabilityDerivedData Capability = 1 << iota
	CapabilityDescription
	CapabilityName
	CapabilityTransferEffects
	CapabilityRollable
)

var capabilityNames = []struct {
	capability Capability
	name       string
}{
	{CapabilityDerivedData, "derived-data"},
	{CapabilityDescription, "description"},
	{CapabilityName, "name"},
	{CapabilityTransferEffects, "transfer-effects"},
	{CapabilityRollable, "rollable"},
}

func (c Capability) String() string {
	for _, entry := range capabilityNames {
		if entry.capability == c {
			return entry.name
		}
	}
	return "unknown"
}

// implementedBy reports whether payload satisfies the capability interface.
func (c Capability) implementedBy(payload Payload) bool {
	switch c {
	case CapabilityDerivedData:
		_, ok := payload.(DerivedDataPreparer)
		return ok
	case CapabilityDescription:
		_, ok := payload.(Describer)
		return ok
	case CapabilityName:
		_, ok := payload.(Namer)
		return ok
	case CapabilityTransferEffects:
		_, ok := payload.(EffectTransferrer)
		return ok
	case CapabilityRollable:
		_, ok := payload.(Rollable)
		return ok
	default:
		return false
	}
}

// CapabilitySet is a set of capabilities.
type CapabilitySet uint8

// NewCapabilitySet builds a set from individual capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var set CapabilitySet
	for _, c := range caps {
		set |= CapabilitySet(c)
	}
	return set
}

// DetectCapabilities returns every capability payload implements.
func DetectCapabilities(payload Payload) CapabilitySet {
	var set CapabilitySet
	for _, entry := range capabilityNames {
		if entry.capability.implementedBy(payload) {
			set |= CapabilitySet(entry.capability)
		}
	}
	return set
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	return s&CapabilitySet(c) != 0
}

// List returns the capabilities in declaration order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(capabilityNames))
	for _, entry := range capabilityNames {
		if s.Has(entry.capability) {
			out = append(out, entry.capability)
		}
	}
	return out
}

func (s CapabilitySet) String() string {
	caps := s.List()
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}
