package abilitysystem

import (
	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/effects"
)

// FailureReason is why an activation attempt was refused
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureMissingAbility
	FailureNotGranted
	FailureTagRequirements
	FailureBlocked
	FailureCanActivate
	FailureAlreadyActive
)

// String implements fmt.Stringer
func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return "none"
	case FailureMissingAbility:
		return "missing_ability"
	case FailureNotGranted:
		return "not_granted"
	case FailureTagRequirements:
		return "tag_requirements"
	case FailureBlocked:
		return "blocked"
	case FailureCanActivate:
		return "can_activate"
	case FailureAlreadyActive:
		return "already_active"
	default:
		return "unknown"
	}
}

// AbilityEvent reports an activation or an end
type AbilityEvent struct {
	System    *System
	Spec      *abilities.Spec
	Cancelled bool
}

// FailureEvent reports a refused activation
type FailureEvent struct {
	System *System
	Spec   *abilities.Spec
	Reason FailureReason
}

// ExecutedEvent reports an instant effect applied to base values
type ExecutedEvent struct {
	System *System
	Spec   *effects.Spec
}
