// Package kinds registers the built-in class-feature payloads.
package kinds

import (
	"context"
	"fmt"

	"github.com/louisbranch/featurebook/internal/services/item/check"
	"github.com/louisbranch/featurebook/internal/services/item/domain/classfeature"
	"github.com/louisbranch/featurebook/internal/services/item/domain/feature"
)

const (
	// KeyAttack is the default feature type.
	KeyAttack  = "attack"
	KeyPassive = "passive"
)

// AccuracyRoller rolls and posts checks for attack payloads.
type AccuracyRoller interface {
	Accuracy(ctx context.Context, item *classfeature.Feature, primarySides, secondarySides, modifier int) (check.AccuracyResult, error)
	Display(ctx context.Context, item *classfeature.Feature) error
}

// Register adds the built-in kinds to registry. The attack kind is
// registered first and becomes the default.
func Register(registry *feature.Registry, roller AccuracyRoller) error {
	if roller == nil {
		return fmt.Errorf("accuracy roller is required")
	}
	attack := feature.JSONFactory(func(a *Attack) { a.roller = roller })
	if err := registry.Register(KeyAttack, attack,
		feature.CapabilityName,
		feature.CapabilityDescription,
		feature.CapabilityDerivedData,
		feature.CapabilityRollable,
	); err != nil {
		return err
	}
	return registry.Register(KeyPassive, feature.JSONFactory[Passive](),
		feature.CapabilityName,
		feature.CapabilityDescription,
		feature.CapabilityDerivedData,
		feature.CapabilityTransferEffects,
	)
}
