package check

import (
	"errors"
	"math/rand"

	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
)

// Outcome is the result class of an accuracy check.
type Outcome int

const (
	OutcomeUnspecified Outcome = iota
	OutcomeHit
	OutcomeCritical
	OutcomeFumble
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnspecified:
		return "Unspecified"
	case OutcomeHit:
		return "Hit"
	case OutcomeCritical:
		return "Critical success"
	case OutcomeFumble:
		return "Fumble"
	default:
		return "Unknown"
	}
}

// criticalThreshold is the lowest matching face that counts as a critical.
const criticalThreshold = 6

var (
	// ErrMissingDice indicates a roll request had no dice specified.
	ErrMissingDice = apperrors.New(apperrors.CodeDiceMissing, "at least one die must be provided")
	// ErrInvalidDiceSpec indicates a die specification has invalid fields.
	ErrInvalidDiceSpec = apperrors.New(apperrors.CodeDiceInvalidSpec, "dice must have positive sides and count")
	// ErrInvalidAttributeDie indicates an attribute die other than d6, d8, d10 or d12.
	ErrInvalidAttributeDie = apperrors.New(apperrors.CodeDiceInvalidSpec, "attribute dice must be d6, d8, d10 or d12")

	// ErrDieOutOfRange indicates a face value outside its die.
	ErrDieOutOfRange = errors.New("die value is outside the die's faces")
)

// DiceSpec describes a die to roll and how many times to roll it.
type DiceSpec struct {
	Sides int
	Count int
}

// DieRoll captures the results for a single dice spec.
type DieRoll struct {
	Sides   int
	Results []int
	Total   int
}

// RollRequest describes a request to roll one or more dice.
type RollRequest struct {
	Dice []DiceSpec
	Seed int64
}

// RollResult captures the results from rolling multiple dice.
type RollResult struct {
	Rolls []DieRoll
	Total int
}

// RollDice rolls dice based on the provided request.
//
// RollDice is deterministic with respect to Seed: the same Seed and Dice
// slice always produce the same result. Rolls appear in Dice order, each
// with the sum of its faces; Total sums every die rolled.
func RollDice(request RollRequest) (RollResult, error) {
	if len(request.Dice) == 0 {
		return RollResult{}, ErrMissingDice
	}

	rng := rand.New(rand.NewSource(request.Seed))
	rolls := make([]DieRoll, 0, len(request.Dice))
	total := 0

	for _, spec := range request.Dice {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return RollResult{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := range spec.Count {
			value := rng.Intn(spec.Sides) + 1
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, DieRoll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return RollResult{
		Rolls: rolls,
		Total: total,
	}, nil
}

// AccuracyRequest describes an accuracy check: two attribute dice plus a
// flat modifier.
type AccuracyRequest struct {
	PrimarySides   int
	SecondarySides int
	Modifier       int
	Seed           int64
}

// AccuracyFaces are rolled faces to evaluate.
type AccuracyFaces struct {
	PrimarySides   int
	Primary        int
	SecondarySides int
	Secondary      int
	Modifier       int
}

// AccuracyResult is an evaluated accuracy check.
type AccuracyResult struct {
	AccuracyFaces
	Total int
	// HighRoll is the larger of the two faces.
	HighRoll int
	Outcome  Outcome
}

func validAttributeDie(sides int) bool {
	switch sides {
	case 6, 8, 10, 12:
		return true
	default:
		return false
	}
}

// EvaluateAccuracy deterministically classifies rolled faces. Matching
// faces of criticalThreshold or more are a critical success; double ones
// are a fumble.
func EvaluateAccuracy(faces AccuracyFaces) (AccuracyResult, error) {
	if !validAttributeDie(faces.PrimarySides) || !validAttributeDie(faces.SecondarySides) {
		return AccuracyResult{}, ErrInvalidAttributeDie
	}
	if faces.Primary < 1 || faces.Primary > faces.PrimarySides ||
		faces.Secondary < 1 || faces.Secondary > faces.SecondarySides {
		return AccuracyResult{}, ErrDieOutOfRange
	}

	outcome := OutcomeHit
	switch {
	case faces.Primary == faces.Secondary && faces.Primary >= criticalThreshold:
		outcome = OutcomeCritical
	case faces.Primary == 1 && faces.Secondary == 1:
		outcome = OutcomeFumble
	}
	return AccuracyResult{
		AccuracyFaces: faces,
		Total:         faces.Primary + faces.Secondary + faces.Modifier,
		HighRoll:      max(faces.Primary, faces.Secondary),
		Outcome:       outcome,
	}, nil
}

// RollAccuracy rolls and evaluates an accuracy check.
func RollAccuracy(request AccuracyRequest) (AccuracyResult, error) {
	if !validAttributeDie(request.PrimarySides) || !validAttributeDie(request.SecondarySides) {
		return AccuracyResult{}, ErrInvalidAttributeDie
	}
	rolled, err := RollDice(RollRequest{
		Dice: []DiceSpec{
			{Sides: request.PrimarySides, Count: 1},
			{Sides: request.SecondarySides, Count: 1},
		},
		Seed: request.Seed,
	})
	if err != nil {
		return AccuracyResult{}, err
	}
	return EvaluateAccuracy(AccuracyFaces{
		PrimarySides:   request.PrimarySides,
		Primary:        rolled.Rolls[0].Total,
		SecondarySides: request.SecondarySides,
		Secondary:      rolled.Rolls[1].Total,
		Modifier:       request.Modifier,
	})
}
