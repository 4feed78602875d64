package check

import (
	"context"
	"fmt"

	"github.com/louisbranch/featurebook/internal/platform/random"
	"github.com/louisbranch/featurebook/internal/services/item/domain/classfeature"
)

// Roller rolls accuracy checks for items and posts their cards.
type Roller struct {
	displayer *Displayer
	seed      random.SeedFunc
}

// NewRoller builds a roller. A nil seed uses random.NewSeed.
func NewRoller(displayer *Displayer, seed random.SeedFunc) *Roller {
	if seed == nil {
		seed = random.NewSeed
	}
	return &Roller{displayer: displayer, seed: seed}
}

// Accuracy rolls primary and secondary attribute dice plus modifier for item
// and posts the result.
func (r *Roller) Accuracy(ctx context.Context, item *classfeature.Feature, primarySides, secondarySides, modifier int) (AccuracyResult, error) {
	if item == nil {
		return AccuracyResult{}, fmt.Errorf("item is required")
	}
	seed, err := r.seed()
	if err != nil {
		return AccuracyResult{}, err
	}
	result, err := RollAccuracy(AccuracyRequest{
		PrimarySides:   primarySides,
		SecondarySides: secondarySides,
		Modifier:       modifier,
		Seed:           seed,
	})
	if err != nil {
		return AccuracyResult{}, fmt.Errorf("roll accuracy for item %s: %w", item.ID, err)
	}
	if err := r.displayer.DisplayAccuracy(ctx, item.Owner, item, result); err != nil {
		return AccuracyResult{}, err
	}
	return result, nil
}

// Display posts the generic card of item without rolling.
func (r *Roller) Display(ctx context.Context, item *classfeature.Feature) error {
	if item == nil {
		return fmt.Errorf("item is required")
	}
	return r.displayer.Display(ctx, item.Owner, item)
}
