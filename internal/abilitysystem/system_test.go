package abilitysystem_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/abilitysystem"
	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/effects"
	"github.com/KirkDiggler/ability-system/internal/tags"
	"github.com/KirkDiggler/ability-system/internal/uuid"
)

// recorder is an ability that records what the system does with it
type recorder struct {
	abilities.Base
	allow      bool
	endOnStart bool

	activated []abilities.EventData
	pressed   int
	released  int
	ended     []bool
}

func newRecorder(def *abilities.Definition) *recorder {
	return &recorder{Base: abilities.Base{Def: def}, allow: true}
}

func (p *recorder) CanActivate(*abilities.Spec) bool { return p.allow }

func (p *recorder) Activate(spec *abilities.Spec, payload abilities.EventData) {
	p.activated = append(p.activated, payload)
	if p.endOnStart {
		spec.End(false)
	}
}

func (p *recorder) InputPressed(*abilities.Spec)  { p.pressed++ }
func (p *recorder) InputReleased(*abilities.Spec) { p.released++ }

func (p *recorder) Ended(_ *abilities.Spec, cancelled bool) { p.ended = append(p.ended, cancelled) }

type SystemSuite struct {
	suite.Suite
	clock      *effects.SimClock
	collection *tags.Collection
	speed      *attributes.Attribute
	health     *attributes.Attribute
	maxHealth  *attributes.Attribute
	sys        *abilitysystem.System

	activated []abilitysystem.AbilityEvent
	ended     []abilitysystem.AbilityEvent
	failed    []abilitysystem.FailureEvent
}

func TestSystemSuite(t *testing.T) {
	suite.Run(t, new(SystemSuite))
}

func (s *SystemSuite) SetupTest() {
	s.clock = effects.NewSimClock()
	s.collection = tags.NewCollection()
	s.speed = &attributes.Attribute{Name: "MoveSpeed"}
	s.maxHealth = &attributes.Attribute{Name: "MaxHealth"}
	s.health = &attributes.Attribute{Name: "Health", Max: s.maxHealth}
	s.sys = s.newSystem("hero")

	s.activated = nil
	s.ended = nil
	s.failed = nil
	s.sys.OnAbilityActivated.Subscribe(func(ev abilitysystem.AbilityEvent) { s.activated = append(s.activated, ev) })
	s.sys.OnAbilityEnded.Subscribe(func(ev abilitysystem.AbilityEvent) { s.ended = append(s.ended, ev) })
	s.sys.OnAbilityFailed.Subscribe(func(ev abilitysystem.FailureEvent) { s.failed = append(s.failed, ev) })
}

func (s *SystemSuite) newSystem(id string) *abilitysystem.System {
	sys := abilitysystem.New(&abilitysystem.Config{
		EntityID:   id,
		Attributes: []*attributes.Attribute{s.speed, s.maxHealth, s.health},
		Clock:      s.clock,
	})
	sys.AttributeSet().SetBaseValue(s.speed, 10)
	return sys
}

func (s *SystemSuite) tag(path string) *tags.Tag {
	return s.collection.MustEnsure(path)
}

func (s *SystemSuite) grant(def *abilities.Definition) (*recorder, *abilities.Spec) {
	p := newRecorder(def)
	spec := s.sys.GrantAbility(abilities.Grant{Ability: p})
	s.Require().NotNil(spec)
	return p, spec
}

func (s *SystemSuite) TestEndToEndScenario() {
	jump := newRecorder(&abilities.Definition{Key: "Jump"})
	s.Require().NotNil(s.sys.GrantAbility(abilities.Grant{Ability: jump}))
	s.Equal(0, s.sys.ActiveEffects().Len())

	s.Equal(0, s.sys.ProcessGameplayEvent(s.tag("Event.Unrelated"), abilities.EventData{}))
	s.Empty(jump.activated)

	slowed := s.tag("Slowed")
	h := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		Key:            "slow",
		DurationPolicy: effects.DurationHasDuration,
		Duration:       effects.Flat(2.0),
		GrantedTags:    tags.NewContainer(slowed),
		Modifiers: []effects.ModifierInfo{
			{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: effects.Flat(-5)},
		},
	})

	s.True(h.IsValid())
	s.Equal(5.0, s.sys.AttributeSet().CurrentValue(s.speed))
	s.True(s.sys.OwnedTags().ContainsTag(slowed))

	s.clock.Advance(effects.Seconds(2.1))
	s.sys.EarlyTick()

	s.False(h.IsValid())
	s.Equal(10.0, s.sys.AttributeSet().CurrentValue(s.speed))
	s.False(s.sys.OwnedTags().ContainsTag(slowed))
}

func (s *SystemSuite) TestRetrigger() {
	owned := s.tag("State.Casting")

	single, singleSpec := s.grant(&abilities.Definition{Key: "single", ActivationOwnedTags: tags.NewContainer(owned)})
	s.True(s.sys.TryActivateAbility(singleSpec, abilities.EventData{}))
	s.False(s.sys.TryActivateAbility(singleSpec, abilities.EventData{}))
	s.Len(single.activated, 1)
	s.Equal(1, s.sys.OwnedTags().Count(owned))
	s.Equal(abilitysystem.FailureAlreadyActive, s.failed[len(s.failed)-1].Reason)

	_, multiSpec := s.grant(&abilities.Definition{Key: "multi", ActivationOwnedTags: tags.NewContainer(owned), Retriggerable: true})
	s.True(s.sys.TryActivateAbility(multiSpec, abilities.EventData{}))
	s.True(s.sys.TryActivateAbility(multiSpec, abilities.EventData{}))
	s.Equal(3, s.sys.OwnedTags().Count(owned))
	s.Equal(2, multiSpec.Activations())

	multiSpec.End(false)
	singleSpec.End(false)
	s.False(s.sys.OwnedTags().ContainsTag(owned))
	s.Len(s.ended, 2)
}

func (s *SystemSuite) TestActivationGatesInOrder() {
	stunned := s.tag("Status.Stunned")
	alive := s.tag("Status.Alive")
	dashTag := s.tag("Ability.Movement.Dash")

	p, spec := s.grant(&abilities.Definition{
		Key:         "dash",
		AbilityTags: tags.NewContainer(dashTag),
		ActivationRequirements: tags.Requirements{
			Required: tags.NewContainer(alive),
			Ignored:  tags.NewContainer(stunned),
		},
	})

	s.Equal(abilitysystem.FailureMissingAbility, s.sys.CanActivateAbility(nil))
	s.Equal(abilitysystem.FailureNotGranted, s.sys.CanActivateAbility(abilities.NewSpec(abilities.Grant{Ability: p}, s.sys)))
	s.Equal(abilitysystem.FailureTagRequirements, s.sys.CanActivateAbility(spec))

	s.sys.OwnedTags().AddTag(s.tag("Status.Alive.Barely"))
	s.Equal(abilitysystem.FailureNone, s.sys.CanActivateAbility(spec))

	s.sys.OwnedTags().AddTag(s.tag("Status.Stunned.Heavy"))
	s.Equal(abilitysystem.FailureTagRequirements, s.sys.CanActivateAbility(spec))
	s.sys.OwnedTags().RemoveTag(s.tag("Status.Stunned.Heavy"))

	s.sys.BlockedTags().AddTag(dashTag)
	s.Equal(abilitysystem.FailureBlocked, s.sys.CanActivateAbility(spec))
	s.sys.BlockedTags().RemoveTag(dashTag)

	p.allow = false
	s.Equal(abilitysystem.FailureCanActivate, s.sys.CanActivateAbility(spec))
	s.False(s.sys.TryActivateAbility(spec, abilities.EventData{}))
	s.Empty(p.activated)
	s.Empty(s.activated)
}

func (s *SystemSuite) TestGrantRefusesDuplicates() {
	p, _ := s.grant(&abilities.Definition{Key: "jump"})

	s.Nil(s.sys.GrantAbility(abilities.Grant{Ability: p}))
	s.Nil(s.sys.GrantAbility(abilities.Grant{}))
	s.Len(s.sys.AbilitySpecs(), 1)
	s.NotNil(s.sys.FindAbilitySpecByKey("jump"))
}

func (s *SystemSuite) TestActivateOnGranted() {
	p := newRecorder(&abilities.Definition{Key: "aura", ActivateOnGranted: true})
	spec := s.sys.GrantAbility(abilities.Grant{Ability: p})

	s.True(spec.IsActive())
	s.Len(p.activated, 1)
}

func (s *SystemSuite) TestRevokeCancelImmediately() {
	owned := s.tag("State.Busy")
	p := newRecorder(&abilities.Definition{Key: "busy", ActivationOwnedTags: tags.NewContainer(owned)})
	spec := s.sys.GrantAbility(abilities.Grant{Ability: p, RemovalPolicy: abilities.RemovalCancelImmediately})
	s.True(s.sys.TryActivateAbility(spec, abilities.EventData{}))

	s.True(s.sys.RevokeAbility(p))
	s.False(s.sys.HasAbility(spec))
	s.False(spec.IsActive())
	s.Equal([]bool{true}, p.ended)
	s.False(s.sys.OwnedTags().ContainsTag(owned))
	s.Require().Len(s.ended, 1)
	s.True(s.ended[0].Cancelled)

	s.False(s.sys.RevokeAbility(p))
}

func (s *SystemSuite) TestRevokeWaitForEnd() {
	p := newRecorder(&abilities.Definition{Key: "channel"})
	spec := s.sys.GrantAbility(abilities.Grant{Ability: p, RemovalPolicy: abilities.RemovalWaitForEnd})
	s.True(s.sys.TryActivateAbility(spec, abilities.EventData{}))

	s.True(s.sys.RevokeAbility(p))
	s.True(s.sys.HasAbility(spec))
	s.True(spec.IsActive())

	spec.End(false)
	s.False(s.sys.HasAbility(spec))
	s.Len(s.ended, 1)

	spec.End(false)
	s.Len(s.ended, 1)
}

func (s *SystemSuite) TestProcessGameplayEvent() {
	hit := s.tag("Event.Hit")
	critical := s.tag("Event.Hit.Critical")

	onHit, _ := s.grant(&abilities.Definition{
		Key:      "riposte",
		Triggers: []abilities.Trigger{{Tag: hit, Source: abilities.TriggerGameplayEvent}},
	})
	onCrit, _ := s.grant(&abilities.Definition{
		Key:      "bleed",
		Triggers: []abilities.Trigger{{Tag: critical, Source: abilities.TriggerGameplayEvent}},
	})
	blocked, _ := s.grant(&abilities.Definition{
		Key:      "blocked",
		Triggers: []abilities.Trigger{{Tag: hit, Source: abilities.TriggerGameplayEvent}},
	})
	blocked.allow = false

	var exact, parent []abilities.EventData
	s.sys.RegisterGenericEventCallback(critical, func(ev abilities.EventData) { exact = append(exact, ev) })
	sub := s.sys.RegisterGenericEventCallback(hit, func(ev abilities.EventData) { parent = append(parent, ev) })

	s.Equal(2, s.sys.ProcessGameplayEvent(critical, abilities.EventData{Magnitude: 3}))
	s.Require().Len(onHit.activated, 1)
	s.Equal(critical, onHit.activated[0].Tag)
	s.Equal(3.0, onHit.activated[0].Magnitude)
	s.Len(onCrit.activated, 1)
	s.Len(exact, 1)
	s.Empty(parent)

	s.sys.RemoveGenericEventCallback(hit, sub)
	s.Equal(0, abilitysystem.SendGameplayEvent(s.sys, hit, abilities.EventData{}))
	s.Empty(parent)

	s.Equal(0, abilitysystem.SendGameplayEvent(nil, hit, abilities.EventData{}))
	s.Equal(0, s.sys.ProcessGameplayEvent(nil, abilities.EventData{}))
}

func (s *SystemSuite) TestApplyRefusals() {
	cleansed := s.tag("Status.Cleansed")
	wet := s.tag("Status.Wet")

	s.Equal(effects.InvalidHandle, s.sys.ApplyGameplayEffectSpecToSelf(nil))

	broken := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		DurationPolicy: effects.DurationInfinite,
		Modifiers: []effects.ModifierInfo{
			{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: effects.Flat(1)},
			{Method: attributes.MethodAdd, Magnitude: effects.Flat(1)},
		},
	})
	s.False(broken.IsValid())
	s.Equal(10.0, s.sys.AttributeSet().CurrentValue(s.speed), "no partial application")

	needsWet := &effects.Effect{
		DurationPolicy:             effects.DurationInfinite,
		ApplicationTagRequirements: tags.Requirements{Required: tags.NewContainer(wet)},
	}
	s.False(s.sys.ApplyGameplayEffectToSelf(needsWet).IsValid())
	s.sys.OwnedTags().AddTag(wet)
	s.True(s.sys.ApplyGameplayEffectToSelf(needsWet).IsValid())

	s.sys.OwnedTags().AddTag(cleansed)
	s.False(s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		DurationPolicy:         effects.DurationInfinite,
		RemovalTagRequirements: tags.Requirements{Required: tags.NewContainer(cleansed)},
	}).IsValid())
}

func (s *SystemSuite) TestInstantEffect() {
	var executed []abilitysystem.ExecutedEvent
	s.sys.OnEffectExecuted.Subscribe(func(ev abilitysystem.ExecutedEvent) { executed = append(executed, ev) })

	h := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		Key:            "haste",
		DurationPolicy: effects.DurationInstant,
		Modifiers: []effects.ModifierInfo{
			{Attribute: s.speed, Method: attributes.MethodMultiply, Magnitude: effects.Flat(2)},
		},
	})

	s.False(h.IsValid())
	s.Equal(20.0, s.sys.AttributeSet().BaseValue(s.speed))
	s.Equal(0, s.sys.ActiveEffects().Len())
	s.Len(executed, 1)
}

func (s *SystemSuite) TestRemovalByTagReleasesGrantedTags() {
	cleansed := s.tag("Status.Cleansed")
	poisoned := s.tag("Status.Poisoned")

	h := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		Key:                    "poison",
		DurationPolicy:         effects.DurationInfinite,
		GrantedTags:            tags.NewContainer(poisoned),
		RemovalTagRequirements: tags.Requirements{Required: tags.NewContainer(cleansed)},
		Modifiers: []effects.ModifierInfo{
			{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: effects.Flat(-3)},
		},
	})
	s.True(h.IsValid())
	s.Equal(7.0, s.sys.AttributeSet().CurrentValue(s.speed))

	s.sys.OwnedTags().AddTag(s.tag("Status.Cleansed.Holy"))

	s.False(h.IsValid())
	s.False(s.sys.OwnedTags().ContainsTag(poisoned))
	s.Equal(10.0, s.sys.AttributeSet().CurrentValue(s.speed))
}

func (s *SystemSuite) TestSharedGrantedTagsNest() {
	slowed := s.tag("Slowed")
	effect := &effects.Effect{DurationPolicy: effects.DurationInfinite, GrantedTags: tags.NewContainer(slowed)}

	first := s.sys.ApplyGameplayEffectToSelf(effect)
	second := s.sys.ApplyGameplayEffectToSelf(effect)
	s.Equal(2, s.sys.OwnedTags().Count(slowed))

	s.True(s.sys.RemoveActiveEffectByHandle(first))
	s.True(s.sys.OwnedTags().ContainsTag(slowed))
	s.False(s.sys.RemoveActiveEffectByHandle(first))

	s.True(s.sys.RemoveActiveEffectByHandle(second))
	s.False(s.sys.OwnedTags().ContainsTag(slowed))
}

func (s *SystemSuite) TestOngoingRequirementsInhibitModifiers() {
	burning := s.tag("Status.Burning")

	h := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		DurationPolicy:         effects.DurationInfinite,
		OngoingTagRequirements: tags.Requirements{Required: tags.NewContainer(burning)},
		Modifiers: []effects.ModifierInfo{
			{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: effects.Flat(5)},
		},
	})
	s.True(h.IsValid())
	s.Equal(10.0, s.sys.AttributeSet().CurrentValue(s.speed))

	s.sys.OwnedTags().AddTag(burning)
	s.Equal(15.0, s.sys.AttributeSet().CurrentValue(s.speed))

	s.sys.OwnedTags().RemoveTag(burning)
	s.Equal(10.0, s.sys.AttributeSet().CurrentValue(s.speed))
	s.True(h.IsValid())
}

func (s *SystemSuite) TestEffectGrantsAbilities() {
	p := newRecorder(&abilities.Definition{Key: "fly"})
	h := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		DurationPolicy:   effects.DurationInfinite,
		GrantedAbilities: []abilities.Grant{{Ability: p, InputBinding: "space"}},
	})

	spec := s.sys.FindAbilitySpec(p)
	s.Require().NotNil(spec)
	s.Equal([]*abilities.Spec{spec}, s.sys.AbilitiesGrantedBy(h))

	s.True(s.sys.InputPressed("space"))
	s.sys.RemoveActiveEffectByHandle(h)
	s.Nil(s.sys.FindAbilitySpec(p))
	s.False(s.sys.InputPressed("space"))
}

func (s *SystemSuite) TestApplyToTarget() {
	target := s.newSystem("target")

	spec := s.sys.MakeOutgoingSpec(&effects.Effect{
		DurationPolicy: effects.DurationInfinite,
		Modifiers: []effects.ModifierInfo{
			{Attribute: s.speed, Method: attributes.MethodOverride, Magnitude: effects.Flat(1)},
		},
	})
	h := s.sys.ApplyGameplayEffectSpecToTarget(spec, target)

	s.True(h.IsValid())
	s.Equal(s.sys, h.Source)
	s.Equal(target, h.Target)
	s.Equal(1.0, target.AttributeSet().CurrentValue(s.speed))
	s.Equal(10.0, s.sys.AttributeSet().CurrentValue(s.speed))
	s.False(s.sys.ApplyGameplayEffectSpecToTarget(spec, nil).IsValid())
}

func (s *SystemSuite) TestInputRouting() {
	p := newRecorder(&abilities.Definition{Key: "block"})
	spec := s.sys.GrantAbility(abilities.Grant{Ability: p, InputBinding: "mouse2"})

	s.False(s.sys.InputPressed("unbound"))

	s.True(s.sys.InputPressed("mouse2"))
	s.True(spec.IsActive())
	s.True(spec.IsInputHeld())

	s.sys.InputReleased("mouse2")
	s.Equal(1, p.released)
	s.False(spec.IsInputHeld())

	s.False(s.sys.InputPressed("mouse2"))
	s.Equal(1, p.pressed)

	s.sys.InputReleased("mouse2")
	s.sys.InputReleased("mouse2")
	s.Equal(2, p.released)
}

func (s *SystemSuite) TestTagTriggers() {
	stunned := s.tag("Status.Stunned")
	enraged := s.tag("Status.Enraged")

	present, presentSpec := s.grant(&abilities.Definition{
		Key:      "stagger",
		Triggers: []abilities.Trigger{{Tag: stunned, Source: abilities.TriggerTagPresent}},
	})
	removed, _ := s.grant(&abilities.Definition{
		Key:      "recover",
		Triggers: []abilities.Trigger{{Tag: stunned, Source: abilities.TriggerTagRemoved}},
	})
	removed.endOnStart = true
	added, _ := s.grant(&abilities.Definition{
		Key:      "roar",
		Triggers: []abilities.Trigger{{Tag: enraged, Source: abilities.TriggerTagAdded}},
	})
	added.endOnStart = true

	s.sys.OwnedTags().AddTag(stunned)
	s.True(presentSpec.IsActive())
	s.Len(present.activated, 1)
	s.Empty(removed.activated)

	s.sys.OwnedTags().RemoveTag(stunned)
	s.False(presentSpec.IsActive())
	s.Equal([]bool{true}, present.ended)
	s.Len(removed.activated, 1)

	s.sys.OwnedTags().AddTag(enraged)
	s.sys.OwnedTags().AddTag(enraged)
	s.Len(added.activated, 1)
}

func (s *SystemSuite) TestBlockAndCancelAbilitiesWithTags() {
	melee := s.tag("Ability.Attack.Melee")
	castTag := s.tag("Ability.Cast")

	_, attack := s.grant(&abilities.Definition{Key: "attack", AbilityTags: tags.NewContainer(melee)})
	_, cast := s.grant(&abilities.Definition{Key: "cast", AbilityTags: tags.NewContainer(s.tag("Ability.Cast.Fire"))})
	_, shield := s.grant(&abilities.Definition{
		Key:                     "shield",
		BlockAbilitiesWithTags:  tags.NewContainer(melee),
		CancelAbilitiesWithTags: tags.NewContainer(castTag),
	})

	s.True(s.sys.TryActivateAbility(cast, abilities.EventData{}))
	s.True(s.sys.TryActivateAbility(shield, abilities.EventData{}))
	s.False(cast.IsActive())

	s.False(s.sys.TryActivateAbility(attack, abilities.EventData{}))
	s.Equal(abilitysystem.FailureBlocked, s.failed[len(s.failed)-1].Reason)

	shield.End(false)
	s.True(s.sys.TryActivateAbility(attack, abilities.EventData{}))
}

func (s *SystemSuite) TestBlockedDescendantBlocksAncestorAbility() {
	_, movement := s.grant(&abilities.Definition{Key: "move", AbilityTags: tags.NewContainer(s.tag("Ability.Movement"))})
	_, dash := s.grant(&abilities.Definition{Key: "dash", AbilityTags: tags.NewContainer(s.tag("Ability.Movement.Dash"))})
	_, jump := s.grant(&abilities.Definition{Key: "jump", AbilityTags: tags.NewContainer(s.tag("Ability.Movement.Jump"))})

	s.sys.BlockedTags().AddTag(s.tag("Ability.Movement.Dash"))

	s.Equal(abilitysystem.FailureBlocked, s.sys.CanActivateAbility(movement))
	s.False(s.sys.TryActivateAbility(movement, abilities.EventData{}))
	s.Equal(abilitysystem.FailureBlocked, s.sys.CanActivateAbility(dash))
	s.True(s.sys.TryActivateAbility(jump, abilities.EventData{}))

	s.sys.BlockedTags().RemoveTag(s.tag("Ability.Movement.Dash"))
	s.sys.BlockedTags().AddTag(s.tag("Ability.Movement"))
	s.Equal(abilitysystem.FailureBlocked, s.sys.CanActivateAbility(movement))
	s.Equal(abilitysystem.FailureNone, s.sys.CanActivateAbility(dash))
}

func (s *SystemSuite) TestSharedInputBinding() {
	guard := newRecorder(&abilities.Definition{Key: "guard"})
	parry := newRecorder(&abilities.Definition{Key: "parry"})
	guardSpec := s.sys.GrantAbility(abilities.Grant{Ability: guard, InputBinding: "mouse2"})
	parrySpec := s.sys.GrantAbility(abilities.Grant{Ability: parry, InputBinding: "mouse2"})

	s.True(s.sys.InputPressed("mouse2"))
	s.True(guardSpec.IsActive())
	s.True(parrySpec.IsActive())

	s.sys.InputReleased("mouse2")
	s.Equal(1, guard.released)
	s.Equal(1, parry.released)

	s.True(s.sys.RevokeAbility(guard))
	s.False(s.sys.InputPressed("mouse2"))
	s.Equal(0, guard.pressed)
	s.Equal(1, parry.pressed)
}

func (s *SystemSuite) TestRepeatedPressWhileHeld() {
	p := newRecorder(&abilities.Definition{Key: "block"})
	spec := s.sys.GrantAbility(abilities.Grant{Ability: p, InputBinding: "mouse2"})

	s.True(s.sys.InputPressed("mouse2"))
	s.False(s.sys.InputPressed("mouse2"))
	s.False(s.sys.InputPressed("mouse2"))
	s.Equal(0, p.pressed)
	s.True(spec.IsInputHeld())

	s.sys.InputReleased("mouse2")
	s.False(s.sys.InputPressed("mouse2"))
	s.Equal(1, p.pressed)
	s.Len(p.activated, 1)
}

func (s *SystemSuite) TestTagPresentEndsWhenNoDescendantRemains() {
	p, spec := s.grant(&abilities.Definition{
		Key:      "brace",
		Triggers: []abilities.Trigger{{Tag: s.tag("Status.Stunned"), Source: abilities.TriggerTagPresent}},
	})
	light := s.tag("Status.Stunned.Light")
	heavy := s.tag("Status.Stunned.Heavy")

	s.sys.OwnedTags().AddTag(light)
	s.True(spec.IsActive())
	s.sys.OwnedTags().AddTag(heavy)

	s.sys.OwnedTags().RemoveTag(light)
	s.True(spec.IsActive())
	s.Empty(p.ended)

	s.sys.OwnedTags().RemoveTag(heavy)
	s.False(spec.IsActive())
	s.Equal([]bool{true}, p.ended)
}

func (s *SystemSuite) TestSweepMeetingOwnRemovalLeaksNothing() {
	warded := s.tag("Status.Warded")
	blessed := s.tag("Status.Blessed")
	wardTag := s.tag("Effect.Ward")

	ward := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		Key:            "ward",
		DurationPolicy: effects.DurationInfinite,
		EffectTags:     tags.NewContainer(wardTag),
		GrantedTags:    tags.NewContainer(warded),
	})
	s.Require().True(ward.IsValid())

	blessing := newRecorder(&abilities.Definition{Key: "blessing"})
	h := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		Key:                           "bless",
		DurationPolicy:                effects.DurationInfinite,
		RemoveGameplayEffectsWithTags: tags.NewContainer(wardTag),
		RemovalTagRequirements:        tags.Requirements{Ignored: tags.NewContainer(warded)},
		GrantedTags:                   tags.NewContainer(blessed),
		GrantedAbilities:              []abilities.Grant{{Ability: blessing}},
		Modifiers: []effects.ModifierInfo{
			{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: effects.Flat(3)},
		},
	})

	s.False(h.IsValid())
	s.False(ward.IsValid())
	s.Equal(0, s.sys.ActiveEffects().Len())
	s.Equal(0, s.sys.OwnedTags().Count(blessed))
	s.Equal(0, s.sys.OwnedTags().Count(warded))
	s.False(s.sys.HasAbility(s.sys.FindAbilitySpec(blessing)))
	s.Equal(10.0, s.sys.AttributeSet().CurrentValue(s.speed))
}

func (s *SystemSuite) TestLateTickFlushesOnce() {
	var changes []attributes.ChangeEvent
	s.sys.AttributeSet().OnAttributeChanged(s.speed, func(ev attributes.ChangeEvent) { changes = append(changes, ev) })
	s.sys.LateTick()
	changes = nil

	for i := 0; i < 3; i++ {
		s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
			DurationPolicy: effects.DurationInfinite,
			Modifiers: []effects.ModifierInfo{
				{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: effects.Flat(1)},
			},
		})
	}
	s.sys.LateTick()

	s.Require().Len(changes, 1)
	s.Equal(13.0, changes[0].Instance.Current)
	s.Equal("hero", changes[0].Owner.EntityID())
}

func (s *SystemSuite) TestStartupConfig() {
	buff := s.tag("Buff.Startup")
	p := newRecorder(&abilities.Definition{Key: "startup"})

	sys := abilitysystem.New(&abilitysystem.Config{
		Attributes:       []*attributes.Attribute{s.speed},
		Clock:            s.clock,
		StartupAbilities: []abilities.Grant{{Ability: p, InputBinding: "q"}},
		StartupEffects: []*effects.Effect{
			{DurationPolicy: effects.DurationInfinite, GrantedTags: tags.NewContainer(buff)},
		},
	})

	s.NotEmpty(sys.EntityID())
	s.NotNil(sys.FindAbilitySpec(p))
	s.True(sys.OwnedTags().ContainsTag(buff))
	s.True(sys.InputPressed("q"))
}

func (s *SystemSuite) TestSnapshot() {
	slowed := s.tag("Slowed")
	_, spec := s.grant(&abilities.Definition{Key: "jump"})
	s.sys.GrantAbility(abilities.Grant{Ability: newRecorder(&abilities.Definition{Key: "dash"}), InputBinding: "shift"})
	s.True(s.sys.TryActivateAbility(spec, abilities.EventData{}))

	s.clock.Advance(effects.Seconds(1))
	h := s.sys.ApplyGameplayEffectToSelf(&effects.Effect{
		Key:            "slow",
		DurationPolicy: effects.DurationHasDuration,
		Duration:       effects.Flat(2),
		GrantedTags:    tags.NewContainer(slowed),
		Modifiers: []effects.ModifierInfo{
			{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: effects.Flat(-5)},
		},
	})

	snap := s.sys.Snapshot("world-1")
	s.Equal("hero", snap.EntityID)
	s.Equal("world-1", snap.WorldID)
	s.Equal(1.0, snap.TakenAt)
	s.Equal(10.0, snap.Attributes["MoveSpeed"].Base)
	s.Equal(5.0, snap.Attributes["MoveSpeed"].Current)
	s.True(snap.HasTag("Slowed"))
	s.Require().Len(snap.ActiveEffects, 1)
	s.Equal(h.ID, snap.ActiveEffects[0].HandleID)
	s.Equal("slow", snap.ActiveEffects[0].Effect)
	s.Equal(2.0, snap.ActiveEffects[0].Duration)
	s.Require().Len(snap.Abilities, 2)
	s.True(snap.Abilities[0].Active)
	s.Equal("shift", snap.Abilities[1].InputBinding)
}

func (s *SystemSuite) TestGeneratedEntityID() {
	gen := uuid.NewSequenceGenerator("npc")

	first := abilitysystem.New(&abilitysystem.Config{UUIDGenerator: gen, Clock: s.clock})
	second := abilitysystem.New(&abilitysystem.Config{UUIDGenerator: gen, Clock: s.clock})

	s.Equal("npc-1", first.EntityID())
	s.Equal("npc-2", second.EntityID())
	s.NotEmpty(abilitysystem.New(nil).EntityID())
}
