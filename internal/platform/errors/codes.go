// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Feature type registry errors
	CodeFeatureUnknownType       Code = "FEATURE_UNKNOWN_TYPE"
	CodeFeatureDuplicateType     Code = "FEATURE_DUPLICATE_TYPE"
	CodeFeatureEmptyRegistry     Code = "FEATURE_EMPTY_REGISTRY"
	CodeFeatureRegistrySealed    Code = "FEATURE_REGISTRY_SEALED"
	CodeFeatureCapabilityMissing Code = "FEATURE_CAPABILITY_MISSING"

	// Item errors
	CodeItemEmptyName  Code = "ITEM_EMPTY_NAME"
	CodeItemInvalidRaw Code = "ITEM_INVALID_STATE"
	CodeItemEmptyFUID  Code = "ITEM_EMPTY_FUID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Dice/check errors
	CodeDiceMissing     Code = "DICE_MISSING"
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"
)

// Kind groups codes by how a caller should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindFailedPrecondition
	KindNotFound
	KindAlreadyExists
)

// Kind classifies the code for transports (CLI exit status, logs).
func (c Code) Kind() Kind {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeFeatureUnknownType,
		CodeItemEmptyName,
		CodeItemInvalidRaw,
		CodeDiceMissing,
		CodeDiceInvalidSpec:
		return KindInvalidArgument

	// FailedPrecondition - startup wiring doesn't allow operation
	case CodeFeatureEmptyRegistry,
		CodeFeatureRegistrySealed,
		CodeItemEmptyFUID,
		CodeFeatureCapabilityMissing:
		return KindFailedPrecondition

	case CodeNotFound:
		return KindNotFound

	case CodeFeatureDuplicateType:
		return KindAlreadyExists

	default:
		return KindInternal
	}
}

// ExitCode maps the code kind to a process exit status.
func (c Code) ExitCode() int {
	switch c.Kind() {
	case KindInvalidArgument:
		return 2
	case KindNotFound:
		return 3
	case KindFailedPrecondition, KindAlreadyExists:
		return 4
	default:
		return 1
	}
}
