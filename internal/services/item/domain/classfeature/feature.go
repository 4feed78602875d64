// Package classfeature implements the class-feature item: a record whose
// type-specific payload is chosen at load time from its feature type.
package classfeature

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
	"github.com/louisbranch/featurebook/internal/services/item/domain/actor"
	"github.com/louisbranch/featurebook/internal/services/item/domain/feature"
)

// ItemType is the item type of every class-feature record.
const ItemType = "classFeature"

// Header holds the item columns that live outside the feature state.
type Header struct {
	ID    string
	Name  string
	Owner *actor.Actor
}

// Feature is a class-feature item.
type Feature struct {
	ID    string
	Name  string
	Owner *actor.Actor

	FUID      string
	Summary   string
	Source    string
	IsFavored bool
	// FeatureType is always a registered key once the record is loaded.
	FeatureType string
	// Data is the payload resolved for FeatureType. It is nil only when
	// the record was never resolved.
	Data feature.Payload

	field *feature.Field
}

type textValue struct {
	Value string `json:"value"`
}

type boolValue struct {
	Value bool `json:"value"`
}

type state struct {
	FUID        string          `json:"fuid"`
	Summary     textValue       `json:"summary"`
	Source      string          `json:"source"`
	IsFavored   boolValue       `json:"isFavored"`
	FeatureType string          `json:"featureType"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Load builds a record from its persisted state and resolves its payload.
// An empty feature type resolves to the registry default; an unknown one
// fails with feature.ErrUnknownType.
func Load(header Header, raw []byte, registry *feature.Registry) (*Feature, error) {
	var st state
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeItemInvalidRaw, fmt.Sprintf("decode item %s state", header.ID), err)
		}
	}

	f := &Feature{
		ID:        header.ID,
		Name:      header.Name,
		Owner:     header.Owner,
		FUID:      st.FUID,
		Summary:   st.Summary.Value,
		Source:    st.Source,
		IsFavored: st.IsFavored.Value,
		field:     feature.NewField(registry),
	}
	payload, err := f.field.Resolve(st.Data, st.FeatureType, f)
	if err != nil {
		return nil, fmt.Errorf("load item %s: %w", header.ID, err)
	}
	f.Data = payload
	f.FeatureType = f.field.Key()
	return f, nil
}

// New creates a record of featureType with an empty payload. A blank
// featureType selects the registry default.
func New(header Header, featureType string, registry *feature.Registry) (*Feature, error) {
	if strings.TrimSpace(header.Name) == "" {
		return nil, apperrors.New(apperrors.CodeItemEmptyName, "item name is required")
	}
	f := &Feature{
		ID:    header.ID,
		Name:  header.Name,
		Owner: header.Owner,
		field: feature.NewField(registry),
	}
	if err := f.field.Validate(featureType); err != nil {
		return nil, err
	}
	payload, err := f.field.Reresolve(featureType, f)
	if err != nil {
		return nil, fmt.Errorf("create item %s: %w", header.Name, err)
	}
	f.Data = payload
	f.FeatureType = f.field.Key()
	return f, nil
}

// ItemID identifies the record to its payload.
func (f *Feature) ItemID() string {
	return f.ID
}

// Choices returns the feature types the record may switch to.
func (f *Feature) Choices() []string {
	if f.field == nil {
		return nil
	}
	return f.field.Choices()
}

// SetFeatureType switches the record to key, or to the registry default
// when key is blank. The previous payload is discarded and a fresh one is
// built; nothing is migrated. On error the record is unchanged.
func (f *Feature) SetFeatureType(key string) error {
	if f.field == nil {
		return fmt.Errorf("item %s was not loaded from a registry", f.ID)
	}
	if err := f.field.Validate(key); err != nil {
		return err
	}
	payload, err := f.field.Reresolve(key, f)
	if err != nil {
		return fmt.Errorf("set feature type of item %s: %w", f.ID, err)
	}
	f.Data = payload
	f.FeatureType = f.field.Key()
	return nil
}

// PrepareDerivedData recomputes the payload's derived values when the
// payload supports it.
func (f *Feature) PrepareDerivedData() {
	if preparer, ok := f.Data.(feature.DerivedDataPreparer); ok {
		preparer.PrepareData()
	}
}

// Description returns the payload's description, or "" when it has none.
func (f *Feature) Description() string {
	if describer, ok := f.Data.(feature.Describer); ok {
		return describer.Description()
	}
	return ""
}

// PayloadName returns the payload's display name, falling back to the item
// name.
func (f *Feature) PayloadName() string {
	if namer, ok := f.Data.(feature.Namer); ok {
		if name := namer.Name(); strings.TrimSpace(name) != "" {
			return name
		}
	}
	return f.Name
}

// TransferEffects reports whether the record's effects apply to its owner.
// Payloads without an opinion transfer.
func (f *Feature) TransferEffects() bool {
	if transferrer, ok := f.Data.(feature.EffectTransferrer); ok {
		return transferrer.TransferEffects()
	}
	return true
}

// Capabilities returns the capabilities of the resolved payload.
func (f *Feature) Capabilities() feature.CapabilitySet {
	if f.Data == nil {
		return 0
	}
	return feature.DetectCapabilities(f.Data)
}

// Modifiers carries the input state of a roll action.
type Modifiers struct {
	// Shift is the secondary-action modifier.
	Shift bool
}

// CheckDisplayer shows a generic item check for records whose payload does
// not roll itself.
type CheckDisplayer interface {
	Display(ctx context.Context, owner *actor.Actor, item *Feature) error
}

// Roll performs the record's roll action. Rollable payloads handle it; any
// other payload falls back to the generic display, exactly once.
func (f *Feature) Roll(ctx context.Context, mods Modifiers, fallback CheckDisplayer) error {
	if rollable, ok := f.Data.(feature.Rollable); ok {
		return rollable.Roll(ctx, f, mods.Shift)
	}
	if fallback == nil {
		return fmt.Errorf("roll item %s: check displayer is required", f.ID)
	}
	return fallback.Display(ctx, f.Owner, f)
}

// MarshalState encodes the record's persisted state. It is the inverse of
// Load.
func (f *Feature) MarshalState() ([]byte, error) {
	st := state{
		FUID:        f.FUID,
		Summary:     textValue{Value: f.Summary},
		Source:      f.Source,
		IsFavored:   boolValue{Value: f.IsFavored},
		FeatureType: f.FeatureType,
	}
	if f.Data != nil {
		data, err := json.Marshal(f.Data)
		if err != nil {
			return nil, fmt.Errorf("encode item %s payload: %w", f.ID, err)
		}
		st.Data = data
	}
	return json.Marshal(st)
}
