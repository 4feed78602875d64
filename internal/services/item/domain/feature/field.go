package feature

import (
	"encoding/json"
	"fmt"
	"strings"
)

// State is the resolution state of a Field.
type State int

const (
	StateUnresolved State = iota
	StateResolved
)

func (s State) String() string {
	if s == StateResolved {
		return "resolved"
	}
	return "unresolved"
}

// Field resolves the payload of one record from its discriminator. Its legal
// values are the registry's keys at the time of each call, not a list fixed
// when the record type was declared.
//
// A Field belongs to a single record; it is not safe for concurrent use.
type Field struct {
	registry *Registry
	state    State
	key      string
}

// NewField creates an unresolved field backed by registry.
func NewField(registry *Registry) *Field {
	return &Field{registry: registry}
}

// State returns the resolution state.
func (f *Field) State() State {
	return f.state
}

// Key returns the discriminator of the last successful resolution.
func (f *Field) Key() string {
	return f.key
}

// Choices returns the legal discriminator values.
func (f *Field) Choices() []string {
	return f.registry.Keys()
}

// Initial returns the discriminator given to records that do not set one.
func (f *Field) Initial() (string, error) {
	return f.registry.DefaultKey()
}

// Validate reports whether discriminator is a legal value. Blank values are
// legal; they resolve to the default key.
func (f *Field) Validate(discriminator string) error {
	if strings.TrimSpace(discriminator) == "" {
		return nil
	}
	if !f.registry.Has(discriminator) {
		return unknownType(discriminator)
	}
	return nil
}

// Resolve builds the payload for discriminator from the record's raw data.
// A blank discriminator selects the registry default. The resolved key is
// available from Key afterwards. On error the field keeps its previous
// state.
//
// The first resolution against a registry ends its registration phase.
func (f *Field) Resolve(raw json.RawMessage, discriminator string, parent Parent) (Payload, error) {
	if f.registry == nil {
		return nil, fmt.Errorf("feature registry is required")
	}
	key := strings.TrimSpace(discriminator)
	if key == "" {
		defaultKey, err := f.registry.DefaultKey()
		if err != nil {
			return nil, err
		}
		key = defaultKey
	}
	schema, err := f.registry.SchemaFor(key)
	if err != nil {
		return nil, err
	}
	f.registry.Seal()

	payload, err := schema.Factory(raw, parent)
	if err != nil {
		return nil, fmt.Errorf("build %s payload: %w", key, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("build %s payload: factory returned nil payload", key)
	}
	if binder, ok := payload.(ParentBinder); ok && parent != nil {
		binder.BindParent(parent)
	}
	f.key = key
	f.state = StateResolved
	return payload, nil
}

// Reresolve builds a fresh payload after a discriminator change. Nothing of
// the previous payload is carried over.
func (f *Field) Reresolve(discriminator string, parent Parent) (Payload, error) {
	return f.Resolve(nil, discriminator, parent)
}

// JSONFactory returns a Factory that decodes the raw data into a new T.
// setup hooks run after decoding, for example to attach collaborators the
// payload needs at roll time.
func JSONFactory[T any](setup ...func(*T)) Factory {
	return func(data json.RawMessage, _ Parent) (Payload, error) {
		payload := new(T)
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, payload); err != nil {
				return nil, fmt.Errorf("decode %T: %w", payload, err)
			}
		}
		for _, fn := range setup {
			fn(payload)
		}
		return payload, nil
	}
}
