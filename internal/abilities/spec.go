package abilities

// EndFunc is invoked when an active ability ends
type EndFunc func(spec *Spec, cancelled bool)

// Spec is the runtime state of one granted ability on one entity
type Spec struct {
	ability       Ability
	template      Ability
	owner         Owner
	binding       string
	removalPolicy RemovalPolicy

	active      bool
	activations int
	inputHeld   bool
	onEnded     EndFunc
}

// NewSpec builds the runtime state for a grant. Abilities implementing
// Instancer are instantiated per grant.
func NewSpec(grant Grant, owner Owner) *Spec {
	instance := grant.Ability
	if instancer, ok := grant.Ability.(Instancer); ok {
		if fresh := instancer.NewInstance(); fresh != nil {
			instance = fresh
		}
	}

	return &Spec{
		ability:       instance,
		template:      grant.Ability,
		owner:         owner,
		binding:       grant.InputBinding,
		removalPolicy: grant.RemovalPolicy,
	}
}

// Ability returns the granted instance
func (s *Spec) Ability() Ability {
	if s == nil {
		return nil
	}
	return s.ability
}

// Template returns the ability the grant was made from
func (s *Spec) Template() Ability {
	if s == nil {
		return nil
	}
	return s.template
}

// Definition returns the instance's definition
func (s *Spec) Definition() *Definition {
	if s == nil || s.ability == nil {
		return nil
	}
	return s.ability.Definition()
}

// Key returns the definition key, empty when unset
func (s *Spec) Key() string {
	if def := s.Definition(); def != nil {
		return def.Key
	}
	return ""
}

func (s *Spec) Owner() Owner                 { return s.owner }
func (s *Spec) InputBinding() string         { return s.binding }
func (s *Spec) RemovalPolicy() RemovalPolicy { return s.removalPolicy }
func (s *Spec) IsActive() bool               { return s != nil && s.active }
func (s *Spec) IsInputHeld() bool            { return s != nil && s.inputHeld }

// Activations is how many times the ability was activated since it was last
// inactive. Retriggering increments it.
func (s *Spec) Activations() int {
	return s.activations
}

// SetInputHeld records the held state of the bound input
func (s *Spec) SetInputHeld(held bool) {
	s.inputHeld = held
}

// MarkActive flags the spec active and installs the end callback
func (s *Spec) MarkActive(onEnded EndFunc) {
	s.active = true
	s.activations++
	s.onEnded = onEnded
}

// End finishes an active ability. The end callback runs before the spec is
// flagged inactive so it can still observe the active state.
func (s *Spec) End(cancelled bool) {
	if s == nil || !s.active {
		return
	}

	onEnded := s.onEnded
	s.onEnded = nil
	if onEnded != nil {
		onEnded(s, cancelled)
	}

	s.active = false
	s.activations = 0
}
