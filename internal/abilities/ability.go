// Package abilities defines the capability interface every gameplay ability
// implements and the per-grant runtime state the ability system keeps for it.
package abilities

import (
	"github.com/KirkDiggler/ability-system/internal/tags"
)

// RemovalPolicy decides what revoking an active ability does
type RemovalPolicy int

const (
	// RemovalCancelImmediately ends a running ability as cancelled, then removes it
	RemovalCancelImmediately RemovalPolicy = iota
	// RemovalWaitForEnd keeps a running ability granted until it ends on its own
	RemovalWaitForEnd
)

// String implements fmt.Stringer
func (p RemovalPolicy) String() string {
	switch p {
	case RemovalCancelImmediately:
		return "cancel_immediately"
	case RemovalWaitForEnd:
		return "wait_for_end"
	default:
		return "unknown"
	}
}

// TriggerSource is what offers an activation attempt to a triggered ability
type TriggerSource int

const (
	TriggerGameplayEvent TriggerSource = iota
	TriggerTagAdded
	TriggerTagRemoved
	// TriggerTagPresent activates when the tag is added and ends the ability
	// when it is removed
	TriggerTagPresent
)

// Trigger binds a tag to a trigger source
type Trigger struct {
	Tag    *tags.Tag
	Source TriggerSource
}

// Definition is the authored, immutable tag configuration of an ability
type Definition struct {
	Key string

	// AbilityTags describe the ability itself and are checked against the
	// owner's activation-blocked tags
	AbilityTags tags.Container
	// ActivationOwnedTags are granted to the owner while the ability is active
	ActivationOwnedTags tags.Container
	// ActivationRequirements are checked against the owner's dynamic tags
	ActivationRequirements tags.Requirements
	// CancelAbilitiesWithTags ends other active abilities whose tags match
	CancelAbilitiesWithTags tags.Container
	// BlockAbilitiesWithTags blocks matching abilities while this one is active
	BlockAbilitiesWithTags tags.Container

	Retriggerable     bool
	ActivateOnGranted bool
	Triggers          []Trigger
}

// HasTrigger reports whether a trigger of source matches tag. Trigger tags
// match the given tag and any of its descendants.
func (d *Definition) HasTrigger(source TriggerSource, tag *tags.Tag) bool {
	if d == nil || tag == nil {
		return false
	}
	for _, trigger := range d.Triggers {
		if trigger.Source == source && tag.IsChildOf(trigger.Tag) {
			return true
		}
	}
	return false
}

// Ability is the capability set a gameplay ability provides
type Ability interface {
	Definition() *Definition
	CanActivate(spec *Spec) bool
	Activate(spec *Spec, payload EventData)
	InputPressed(spec *Spec)
	InputReleased(spec *Spec)
}

// Instancer is implemented by abilities that keep per-grant state. The
// ability system grants a fresh instance instead of the shared template.
type Instancer interface {
	NewInstance() Ability
}

// Ender is implemented by abilities that clean up when they end, for
// example by removing effects they applied
type Ender interface {
	Ended(spec *Spec, cancelled bool)
}

// Owner is the entity an ability is granted to
type Owner interface {
	EntityID() string
	OwnedTags() *tags.CountingContainer
}

// EventData is the payload of a gameplay event or trigger
type EventData struct {
	Tag        *tags.Tag
	Instigator Owner
	Target     Owner
	Magnitude  float64
}

// Grant describes one ability grant
type Grant struct {
	Ability       Ability
	InputBinding  string
	RemovalPolicy RemovalPolicy
}

// Base gives concrete abilities default behavior. Embedders implement Activate.
type Base struct {
	Def *Definition
}

// Definition returns the ability's definition
func (b *Base) Definition() *Definition {
	return b.Def
}

// CanActivate allows activation by default
func (b *Base) CanActivate(*Spec) bool {
	return true
}

// InputPressed ignores input by default
func (b *Base) InputPressed(*Spec) {}

// InputReleased ignores input by default
func (b *Base) InputReleased(*Spec) {}
