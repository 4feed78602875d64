package kinds

import (
	"context"
	"fmt"

	"github.com/louisbranch/featurebook/internal/services/item/domain/classfeature"
	"github.com/louisbranch/featurebook/internal/services/item/domain/feature"
)

const defaultAttributeDie = 8

// Attack is a feature that rolls accuracy with two attribute dice.
type Attack struct {
	Label        string `json:"name"`
	Text         string `json:"description"`
	PrimaryDie   int    `json:"primaryDie"`
	SecondaryDie int    `json:"secondaryDie"`
	Accuracy     int    `json:"accuracy"`
	Damage       int    `json:"damage"`

	roller AccuracyRoller
}

func (a *Attack) Name() string        { return a.Label }
func (a *Attack) Description() string { return a.Text }

// PrepareData fills unset attribute dice with the default die.
func (a *Attack) PrepareData() {
	if a.PrimaryDie == 0 {
		a.PrimaryDie = defaultAttributeDie
	}
	if a.SecondaryDie == 0 {
		a.SecondaryDie = defaultAttributeDie
	}
}

// Roll rolls accuracy for the hosting item. The secondary action posts the
// item card without rolling.
func (a *Attack) Roll(ctx context.Context, parent feature.Parent, secondary bool) error {
	item, ok := parent.(*classfeature.Feature)
	if !ok {
		return fmt.Errorf("attack roll: unsupported parent %T", parent)
	}
	if a.roller == nil {
		return fmt.Errorf("attack roll: accuracy roller is not configured")
	}
	if secondary {
		return a.roller.Display(ctx, item)
	}
	a.PrepareData()
	_, err := a.roller.Accuracy(ctx, item, a.PrimaryDie, a.SecondaryDie, a.Accuracy)
	return err
}
