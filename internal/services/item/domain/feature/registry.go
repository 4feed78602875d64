// Package feature resolves class-feature payloads from a discriminator key.
//
// A Registry maps feature type keys to payload factories. Registration
// happens once at startup; the first resolution seals the registry so the
// set of legal discriminator values is fixed while records are live. The
// first registered key is the default type for records that do not name one.
package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
)

var (
	// ErrUnknownType indicates a discriminator that is not a registered key.
	ErrUnknownType = apperrors.New(apperrors.CodeFeatureUnknownType, "unknown feature type")
	// ErrDuplicateKey indicates a key registered twice.
	ErrDuplicateKey = apperrors.New(apperrors.CodeFeatureDuplicateType, "feature type already registered")
	// ErrEmptyRegistry indicates a lookup of the default key with nothing registered.
	ErrEmptyRegistry = apperrors.New(apperrors.CodeFeatureEmptyRegistry, "no feature types registered")
	// ErrRegistrySealed indicates a registration after the registration phase ended.
	ErrRegistrySealed = apperrors.New(apperrors.CodeFeatureRegistrySealed, "feature registry is sealed")
	// ErrCapabilityMissing indicates a declared capability the payload does not implement.
	ErrCapabilityMissing = apperrors.New(apperrors.CodeFeatureCapabilityMissing, "feature type does not implement declared capability")

	// ErrKeyRequired indicates a blank feature type key.
	ErrKeyRequired = errors.New("feature type key is required")
	// ErrFactoryRequired indicates a nil factory.
	ErrFactoryRequired = errors.New("feature factory is required")
)

// Factory builds a payload from its raw data slice. data is nil when a new
// payload is requested (new record or discriminator change). parent is the
// hosting record and may be nil when the registry probes the factory.
type Factory func(data json.RawMessage, parent Parent) (Payload, error)

// Schema is one registered feature type.
type Schema struct {
	Key          string
	Factory      Factory
	Capabilities CapabilitySet
	// Type is the dynamic type of every payload the factory builds.
	Type reflect.Type
}

// Registry manages registered feature types in registration order.
type Registry struct {
	mu      sync.RWMutex
	schemas []Schema
	index   map[string]int
	sealed  bool
}

// NewRegistry creates an empty feature type registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a feature type. declared lists capabilities the payload
// must implement; registration fails if the factory's probe instance does
// not implement them. The schema's capability set is everything the payload
// implements, declared or not.
func (r *Registry) Register(key string, factory Factory, declared ...Capability) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrKeyRequired
	}
	if factory == nil {
		return ErrFactoryRequired
	}

	probe, err := factory(nil, nil)
	if err != nil {
		return fmt.Errorf("probe feature type %s: %w", key, err)
	}
	if probe == nil {
		return fmt.Errorf("probe feature type %s: factory returned nil payload", key)
	}
	detected := DetectCapabilities(probe)
	for _, c := range declared {
		if !detected.Has(c) {
			return apperrors.WithMetadata(
				apperrors.CodeFeatureCapabilityMissing,
				fmt.Sprintf("feature type %s does not implement %s", key, c),
				map[string]string{"Key": key, "Capability": c.String()},
			)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return apperrors.WithMetadata(
			apperrors.CodeFeatureRegistrySealed,
			fmt.Sprintf("register feature type %s: registry is sealed", key),
			map[string]string{"Key": key},
		)
	}
	if _, exists := r.index[key]; exists {
		return apperrors.WithMetadata(
			apperrors.CodeFeatureDuplicateType,
			fmt.Sprintf("feature type %s already registered", key),
			map[string]string{"Key": key},
		)
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.index[key] = len(r.schemas)
	r.schemas = append(r.schemas, Schema{
		Key:          key,
		Factory:      factory,
		Capabilities: detected,
		Type:         reflect.TypeOf(probe),
	})
	return nil
}

// MustRegister registers a feature type and panics on failure. Intended for
// startup wiring where a misconfigured registry is fatal.
func (r *Registry) MustRegister(key string, factory Factory, declared ...Capability) {
	if err := r.Register(key, factory, declared...); err != nil {
		panic(err)
	}
}

// Seal ends the registration phase. Later Register calls fail with
// ErrRegistrySealed. Sealing is idempotent.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether the registration phase has ended.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.schemas))
	for _, schema := range r.schemas {
		keys = append(keys, schema.Key)
	}
	return keys
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[strings.TrimSpace(key)]
	return ok
}

// SchemaFor returns the schema registered under key.
func (r *Registry) SchemaFor(key string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[strings.TrimSpace(key)]
	if !ok {
		return Schema{}, unknownType(key)
	}
	return r.schemas[i], nil
}

// Capabilities returns the capability set of the type registered under key.
func (r *Registry) Capabilities(key string) (CapabilitySet, error) {
	schema, err := r.SchemaFor(key)
	if err != nil {
		return 0, err
	}
	return schema.Capabilities, nil
}

// DefaultKey returns the first registered key.
func (r *Registry) DefaultKey() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.schemas) == 0 {
		return "", ErrEmptyRegistry
	}
	return r.schemas[0].Key, nil
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

func unknownType(key string) error {
	return apperrors.WithMetadata(
		apperrors.CodeFeatureUnknownType,
		fmt.Sprintf("unknown feature type %q", key),
		map[string]string{"Key": key},
	)
}
