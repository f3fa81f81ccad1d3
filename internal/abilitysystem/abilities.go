package abilitysystem

import (
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/observer"
	"github.com/KirkDiggler/ability-system/internal/tags"
)

var emptyDefinition = &abilities.Definition{}

func definitionOf(spec *abilities.Spec) *abilities.Definition {
	if def := spec.Definition(); def != nil {
		return def
	}
	return emptyDefinition
}

// sameAbility compares abilities by identity without panicking on
// non-comparable implementations
func sameAbility(a, b abilities.Ability) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// GrantAbility grants an ability and returns its spec. Granting the same
// ability twice is refused and returns nil.
func (s *System) GrantAbility(grant abilities.Grant) *abilities.Spec {
	if grant.Ability == nil {
		s.log.Warn("[ABILITIES] cannot grant a nil ability")
		return nil
	}

	if existing := s.FindAbilitySpec(grant.Ability); existing != nil {
		s.log.WithField("ability", existing.Key()).Warn("[ABILITIES] ability already granted")
		return nil
	}

	spec := abilities.NewSpec(grant, s)
	s.specs = append(s.specs, spec)

	if binding := grant.InputBinding; binding != "" {
		s.bindings[binding] = append(s.bindings[binding], spec)
	}

	s.log.WithField("ability", spec.Key()).Debug("[ABILITIES] ability granted")

	if definitionOf(spec).ActivateOnGranted {
		s.TryActivateAbility(spec, abilities.EventData{Instigator: s})
	}

	return spec
}

// RevokeAbility removes a granted ability according to its removal policy.
// A running ability granted with RemovalWaitForEnd stays granted until it
// ends.
func (s *System) RevokeAbility(ability abilities.Ability) bool {
	spec := s.FindAbilitySpec(ability)
	if spec == nil {
		return false
	}
	s.revokeSpec(spec)
	return true
}

func (s *System) revokeSpec(spec *abilities.Spec) {
	if spec.IsActive() {
		if spec.RemovalPolicy() == abilities.RemovalWaitForEnd {
			s.pendingRemoval[spec] = struct{}{}
			return
		}
		spec.End(true)
	}
	s.removeSpec(spec)
}

func (s *System) removeSpec(spec *abilities.Spec) {
	delete(s.pendingRemoval, spec)

	for i, granted := range s.specs {
		if granted == spec {
			s.specs = append(s.specs[:i:i], s.specs[i+1:]...)
			break
		}
	}

	if binding := spec.InputBinding(); binding != "" {
		bound := s.bindings[binding]
		for i, existing := range bound {
			if existing == spec {
				bound = append(bound[:i:i], bound[i+1:]...)
				break
			}
		}
		if len(bound) == 0 {
			delete(s.bindings, binding)
		} else {
			s.bindings[binding] = bound
		}
	}

	s.log.WithField("ability", spec.Key()).Debug("[ABILITIES] ability revoked")
}

// FindAbilitySpec returns the spec granted for ability, matching either the
// template or the granted instance
func (s *System) FindAbilitySpec(ability abilities.Ability) *abilities.Spec {
	for _, spec := range s.specs {
		if sameAbility(spec.Template(), ability) || sameAbility(spec.Ability(), ability) {
			return spec
		}
	}
	return nil
}

// FindAbilitySpecByKey returns the first spec whose definition has key
func (s *System) FindAbilitySpecByKey(key string) *abilities.Spec {
	for _, spec := range s.specs {
		if spec.Key() == key {
			return spec
		}
	}
	return nil
}

// AbilitySpecs returns the granted specs in grant order
func (s *System) AbilitySpecs() []*abilities.Spec {
	specs := make([]*abilities.Spec, len(s.specs))
	copy(specs, s.specs)
	return specs
}

// HasAbility reports whether spec is currently granted
func (s *System) HasAbility(spec *abilities.Spec) bool {
	for _, granted := range s.specs {
		if granted == spec {
			return true
		}
	}
	return false
}

// CanActivateAbility evaluates the activation gates in order and returns
// the first failure
func (s *System) CanActivateAbility(spec *abilities.Spec) FailureReason {
	if spec == nil || spec.Ability() == nil {
		return FailureMissingAbility
	}
	if !s.HasAbility(spec) {
		return FailureNotGranted
	}

	def := definitionOf(spec)
	if !def.ActivationRequirements.Met(s.ownedTags) {
		return FailureTagRequirements
	}

	// a blocked tag also blocks abilities carrying one of its ancestors
	if s.blockedTags.AnyTagsMatch(def.AbilityTags) {
		return FailureBlocked
	}

	if !spec.Ability().CanActivate(spec) {
		return FailureCanActivate
	}

	if spec.IsActive() && !def.Retriggerable {
		return FailureAlreadyActive
	}

	return FailureNone
}

// TryActivateAbility runs the activation gates and activates spec when they
// pass
func (s *System) TryActivateAbility(spec *abilities.Spec, payload abilities.EventData) bool {
	reason := s.CanActivateAbility(spec)
	if reason != FailureNone {
		s.log.WithFields(logrus.Fields{
			"ability": spec.Key(),
			"reason":  reason.String(),
		}).Debug("[ABILITIES] activation refused")
		s.OnAbilityFailed.Notify(FailureEvent{System: s, Spec: spec, Reason: reason})
		return false
	}

	s.activate(spec, payload)
	return true
}

func (s *System) activate(spec *abilities.Spec, payload abilities.EventData) {
	def := definitionOf(spec)

	if !def.CancelAbilitiesWithTags.IsEmpty() {
		for _, other := range s.AbilitySpecs() {
			if other == spec || !other.IsActive() {
				continue
			}
			if definitionOf(other).AbilityTags.AnyTagsMatch(def.CancelAbilitiesWithTags) {
				other.End(true)
			}
		}
	}

	spec.MarkActive(s.handleAbilityEnded)
	s.ownedTags.AddTags(def.ActivationOwnedTags)
	s.blockedTags.AddTags(def.BlockAbilitiesWithTags)

	s.log.WithFields(logrus.Fields{
		"ability":     spec.Key(),
		"activations": spec.Activations(),
	}).Debug("[ABILITIES] ability activated")

	s.OnAbilityActivated.Notify(AbilityEvent{System: s, Spec: spec})
	spec.Ability().Activate(spec, payload)
}

// handleAbilityEnded is installed as the spec's end callback on activation.
// It does nothing for specs that are no longer granted.
func (s *System) handleAbilityEnded(spec *abilities.Spec, cancelled bool) {
	if !s.HasAbility(spec) {
		return
	}

	def := definitionOf(spec)
	for i := 0; i < spec.Activations(); i++ {
		s.ownedTags.RemoveTags(def.ActivationOwnedTags)
		s.blockedTags.RemoveTags(def.BlockAbilitiesWithTags)
	}

	if ender, ok := spec.Ability().(abilities.Ender); ok {
		ender.Ended(spec, cancelled)
	}

	s.log.WithFields(logrus.Fields{
		"ability":   spec.Key(),
		"cancelled": cancelled,
	}).Debug("[ABILITIES] ability ended")

	s.OnAbilityEnded.Notify(AbilityEvent{System: s, Spec: spec, Cancelled: cancelled})

	if _, pending := s.pendingRemoval[spec]; pending {
		s.removeSpec(spec)
	}
}

// InputPressed routes a pressed input to every ability bound to it: inactive
// abilities are activated, active ones receive InputPressed unless the input
// was already held. It reports whether any ability activated.
func (s *System) InputPressed(binding string) bool {
	activated := false
	for _, spec := range s.boundSpecs(binding) {
		if !s.HasAbility(spec) {
			continue
		}
		held := spec.IsInputHeld()
		spec.SetInputHeld(true)

		if spec.IsActive() {
			if !held {
				spec.Ability().InputPressed(spec)
			}
			continue
		}
		if s.TryActivateAbility(spec, abilities.EventData{Instigator: s}) {
			activated = true
		}
	}
	return activated
}

// InputReleased forwards a released input to every bound ability that is
// active and had the input held
func (s *System) InputReleased(binding string) {
	for _, spec := range s.boundSpecs(binding) {
		if !s.HasAbility(spec) {
			continue
		}
		held := spec.IsInputHeld()
		spec.SetInputHeld(false)
		if held && spec.IsActive() {
			spec.Ability().InputReleased(spec)
		}
	}
}

// boundSpecs copies the specs bound to binding so handlers may grant or
// revoke while the input is routed
func (s *System) boundSpecs(binding string) []*abilities.Spec {
	bound := s.bindings[binding]
	if len(bound) == 0 {
		return nil
	}
	return append([]*abilities.Spec(nil), bound...)
}

// ProcessGameplayEvent offers an activation to every ability triggered by
// tag or one of its ancestors, then runs the callbacks registered for the
// exact tag. It returns the number of abilities activated.
func (s *System) ProcessGameplayEvent(tag *tags.Tag, payload abilities.EventData) int {
	if tag == nil {
		return 0
	}
	if payload.Tag == nil {
		payload.Tag = tag
	}

	activated := 0
	for _, spec := range s.AbilitySpecs() {
		if !definitionOf(spec).HasTrigger(abilities.TriggerGameplayEvent, tag) {
			continue
		}
		if s.TryActivateAbility(spec, payload) {
			activated++
		}
	}

	if callbacks, ok := s.eventCallbacks[tag]; ok {
		callbacks.Notify(payload)
	}

	return activated
}

// RegisterGenericEventCallback subscribes fn to gameplay events with the
// exact tag
func (s *System) RegisterGenericEventCallback(tag *tags.Tag, fn func(abilities.EventData)) observer.Subscription {
	if tag == nil || fn == nil {
		return 0
	}

	callbacks, ok := s.eventCallbacks[tag]
	if !ok {
		callbacks = &observer.List[abilities.EventData]{}
		s.eventCallbacks[tag] = callbacks
	}
	return callbacks.Subscribe(fn)
}

// RemoveGenericEventCallback drops a subscription made by
// RegisterGenericEventCallback
func (s *System) RemoveGenericEventCallback(tag *tags.Tag, sub observer.Subscription) {
	callbacks, ok := s.eventCallbacks[tag]
	if !ok {
		return
	}

	callbacks.Unsubscribe(sub)
	if callbacks.Len() == 0 {
		delete(s.eventCallbacks, tag)
	}
}

// SendGameplayEvent dispatches a gameplay event to target. A nil target
// activates nothing.
func SendGameplayEvent(target *System, tag *tags.Tag, payload abilities.EventData) int {
	if target == nil {
		return 0
	}
	return target.ProcessGameplayEvent(tag, payload)
}

func (s *System) handleTagAdded(ev tags.TagEvent) {
	for _, spec := range s.AbilitySpecs() {
		def := definitionOf(spec)
		if def.HasTrigger(abilities.TriggerTagAdded, ev.Tag) || def.HasTrigger(abilities.TriggerTagPresent, ev.Tag) {
			s.TryActivateAbility(spec, abilities.EventData{Tag: ev.Tag, Instigator: s, Target: s})
		}
	}
}

func (s *System) handleTagRemoved(ev tags.TagEvent) {
	for _, spec := range s.AbilitySpecs() {
		def := definitionOf(spec)
		if def.HasTrigger(abilities.TriggerTagPresent, ev.Tag) && spec.IsActive() && !s.triggerStillPresent(def) {
			spec.End(true)
		}
		if def.HasTrigger(abilities.TriggerTagRemoved, ev.Tag) {
			s.TryActivateAbility(spec, abilities.EventData{Tag: ev.Tag, Instigator: s, Target: s})
		}
	}
}

// triggerStillPresent reports whether any TagPresent trigger of def is still
// satisfied by the owned tags
func (s *System) triggerStillPresent(def *abilities.Definition) bool {
	for _, trigger := range def.Triggers {
		if trigger.Source == abilities.TriggerTagPresent && s.ownedTags.ContainsChildOf(trigger.Tag) {
			return true
		}
	}
	return false
}
