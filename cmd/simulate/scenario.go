package main

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/abilities/library"
	"github.com/KirkDiggler/ability-system/internal/abilitysystem"
	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/catalog"
	"github.com/KirkDiggler/ability-system/internal/effects"
	"github.com/KirkDiggler/ability-system/internal/movement"
	"github.com/KirkDiggler/ability-system/internal/tags"
	"github.com/KirkDiggler/ability-system/internal/world"
)

// Input bindings used by the scripted hero
const (
	inputJump    = "jump"
	inputDash    = "dash"
	inputChannel = "channel"
)

var (
	moveSpeed = &attributes.Attribute{Name: "MoveSpeed"}
	maxHealth = &attributes.Attribute{Name: "MaxHealth"}
	health    = &attributes.Attribute{Name: "Health", Max: maxHealth}
)

// step is one scripted action, run before the first tick at or after At
type step struct {
	At   time.Duration
	Name string
	Do   func()
}

type scenario struct {
	world   *world.World
	catalog *catalog.Catalog
	tags    *tags.Collection
	log     logrus.FieldLogger

	hero  *abilitysystem.System
	dummy *abilitysystem.System

	steps []step
	next  int
}

type scenarioConfig struct {
	World               *world.World
	Tags                *tags.Collection
	MaxTagRemovalPasses int
	Logger              logrus.FieldLogger
}

func newScenario(cfg *scenarioConfig) (*scenario, error) {
	s := &scenario{
		world:   cfg.World,
		catalog: catalog.New(),
		tags:    cfg.Tags,
		log:     cfg.Logger,
	}

	if err := s.registerEffects(); err != nil {
		return nil, err
	}
	if err := s.registerAbilities(); err != nil {
		return nil, err
	}

	var err error
	if s.hero, err = s.spawn("hero", cfg.MaxTagRemovalPasses, []string{"Jump", "Dash", "Frostbolt", "Focus"}); err != nil {
		return nil, err
	}
	if s.dummy, err = s.spawn("dummy", cfg.MaxTagRemovalPasses, nil); err != nil {
		return nil, err
	}

	s.script()
	return s, nil
}

func (s *scenario) registerEffects() error {
	magnitude := s.tags.MustEnsure("Data.Magnitude")

	defs := map[string]*effects.Effect{
		"chill": {
			DurationPolicy: effects.DurationHasDuration,
			Duration:       effects.Flat(2),
			EffectTags:     tags.NewContainer(s.tags.MustEnsure("Effect.Debuff.Chill")),
			GrantedTags:    tags.NewContainer(s.tags.MustEnsure("Status.Slowed")),
			Modifiers: []effects.ModifierInfo{
				{Attribute: moveSpeed, Method: attributes.MethodAdd, Magnitude: effects.FromCaller(magnitude)},
			},
		},
		"focus": {
			DurationPolicy: effects.DurationInfinite,
			GrantedTags:    tags.NewContainer(s.tags.MustEnsure("Status.Channeling")),
			OngoingTagRequirements: tags.Requirements{
				Ignored: tags.NewContainer(s.tags.MustEnsure("Status.Stunned")),
			},
			Modifiers: []effects.ModifierInfo{
				{Attribute: moveSpeed, Method: attributes.MethodMultiply, Magnitude: effects.Flat(0.5)},
			},
		},
		"stun": {
			DurationPolicy: effects.DurationHasDuration,
			Duration:       effects.Flat(0.5),
			GrantedTags:    tags.NewContainer(s.tags.MustEnsure("Status.Stunned")),
		},
		"heal": {
			DurationPolicy: effects.DurationInstant,
			Modifiers: []effects.ModifierInfo{
				{Attribute: health, Method: attributes.MethodAdd, Magnitude: effects.Flat(25)},
			},
		},
	}

	keys := make([]string, 0, len(defs))
	for key := range defs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := s.catalog.RegisterEffect(key, defs[key]); err != nil {
			return err
		}
	}
	return nil
}

func (s *scenario) registerAbilities() error {
	chill, err := s.catalog.Effect("chill")
	if err != nil {
		return err
	}
	focus, err := s.catalog.Effect("focus")
	if err != nil {
		return err
	}

	stunned := tags.NewContainer(s.tags.MustEnsure("Status.Stunned"))

	registry := []abilities.Ability{
		library.NewJump(&abilities.Definition{
			Key:                    "Jump",
			AbilityTags:            tags.NewContainer(s.tags.MustEnsure("Ability.Movement.Jump")),
			ActivationRequirements: tags.Requirements{Ignored: stunned},
		}, 8),
		library.NewDash(&abilities.Definition{
			Key:                    "Dash",
			AbilityTags:            tags.NewContainer(s.tags.MustEnsure("Ability.Movement.Dash")),
			ActivationRequirements: tags.Requirements{Ignored: stunned},
		}, 20, mgl64.Vec3{1, 0, 0}),
		library.NewApplyEffect(&abilities.Definition{
			Key:         "Frostbolt",
			AbilityTags: tags.NewContainer(s.tags.MustEnsure("Ability.Skill.Frostbolt")),
			Triggers: []abilities.Trigger{
				{Tag: s.tags.MustEnsure("Event.Hit"), Source: abilities.TriggerGameplayEvent},
			},
		}, chill, s.tags.MustEnsure("Data.Magnitude")),
		library.NewChannel(&abilities.Definition{
			Key:                     "Focus",
			AbilityTags:             tags.NewContainer(s.tags.MustEnsure("Ability.Skill.Focus")),
			ActivationOwnedTags:     tags.NewContainer(s.tags.MustEnsure("State.Focusing")),
			BlockAbilitiesWithTags: tags.NewContainer(
				s.tags.MustEnsure("Ability.Movement.Jump"),
				s.tags.MustEnsure("Ability.Movement.Dash"),
			),
			CancelAbilitiesWithTags: tags.NewContainer(s.tags.MustEnsure("Ability.Movement")),
		}, focus),
	}

	for _, ability := range registry {
		if err := s.catalog.RegisterAbility(ability.Definition().Key, ability); err != nil {
			return err
		}
	}
	return nil
}

func (s *scenario) spawn(id string, maxPasses int, grants []string) (*abilitysystem.System, error) {
	cfg := &abilitysystem.Config{
		EntityID:            id,
		Attributes:          []*attributes.Attribute{moveSpeed, maxHealth, health},
		Clock:               s.world.Clock(),
		Logger:              s.log,
		Body:                movement.NewBody(&movement.Config{}),
		MaxTagRemovalPasses: maxPasses,
	}
	for _, key := range grants {
		ability, err := s.catalog.Ability(key)
		if err != nil {
			return nil, err
		}
		cfg.StartupAbilities = append(cfg.StartupAbilities, abilities.Grant{
			Ability:      ability,
			InputBinding: bindingFor(key),
		})
	}

	sys := abilitysystem.New(cfg)
	set := sys.AttributeSet()
	set.SetBaseValue(moveSpeed, 10)
	set.SetBaseValue(maxHealth, 100)
	set.SetBaseValue(health, 60)

	if err := s.world.Add(sys); err != nil {
		return nil, err
	}
	return sys, nil
}

func bindingFor(key string) string {
	switch key {
	case "Jump":
		return inputJump
	case "Dash":
		return inputDash
	case "Focus":
		return inputChannel
	default:
		return ""
	}
}

func (s *scenario) script() {
	hit := s.tags.MustEnsure("Event.Hit")

	s.steps = []step{
		{At: 0, Name: "hero jumps", Do: func() { s.hero.InputPressed(inputJump) }},
		{At: 500 * time.Millisecond, Name: "hero dashes", Do: func() { s.hero.InputPressed(inputDash) }},
		{At: time.Second, Name: "hero hits dummy", Do: func() {
			abilitysystem.SendGameplayEvent(s.hero, hit, abilities.EventData{
				Tag:        hit,
				Instigator: s.hero,
				Target:     s.dummy,
				Magnitude:  -4,
			})
		}},
		{At: 1500 * time.Millisecond, Name: "hero starts focusing", Do: func() { s.hero.InputPressed(inputChannel) }},
		{At: 1600 * time.Millisecond, Name: "hero tries to dash while focusing", Do: func() { s.hero.InputPressed(inputDash) }},
		{At: 2 * time.Second, Name: "dummy stuns hero", Do: func() { s.applyFromCatalog(s.dummy, s.hero, "stun") }},
		{At: 3 * time.Second, Name: "hero stops focusing", Do: func() { s.hero.InputReleased(inputChannel) }},
		{At: 3500 * time.Millisecond, Name: "hero heals", Do: func() { s.applyFromCatalog(s.hero, s.hero, "heal") }},
	}
}

func (s *scenario) applyFromCatalog(source, target *abilitysystem.System, key string) {
	effect, err := s.catalog.Effect(key)
	if err != nil {
		s.log.WithError(err).WithField("effect", key).Warn("[SIMULATE] Unknown effect")
		return
	}
	source.ApplyGameplayEffectSpecToTarget(source.MakeOutgoingSpec(effect), target)
}

// run plays the script over ticks fixed steps of interval
func (s *scenario) run(ticks int, interval time.Duration) {
	for i := 0; i < ticks; i++ {
		now := s.world.Clock().Now()
		for s.next < len(s.steps) && s.steps[s.next].At <= now {
			current := s.steps[s.next]
			s.log.WithField("at", now.Seconds()).Info("[SIMULATE] " + current.Name)
			current.Do()
			s.next++
		}
		s.world.Tick(interval)
	}
}
