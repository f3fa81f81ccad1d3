// Package abilitysystem is the per-entity aggregate that owns dynamic tags,
// attributes, active effects and granted abilities, and routes input,
// gameplay events and effect application between them.
package abilitysystem

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/effects"
	"github.com/KirkDiggler/ability-system/internal/movement"
	"github.com/KirkDiggler/ability-system/internal/observer"
	"github.com/KirkDiggler/ability-system/internal/tags"
	"github.com/KirkDiggler/ability-system/internal/uuid"
)

// Config configures a System
type Config struct {
	// EntityID is generated when empty
	EntityID      string
	UUIDGenerator uuid.Generator

	Attributes []*attributes.Attribute
	Clock      effects.Clock
	Logger     logrus.FieldLogger
	// Body is the optional movement state driven by movement abilities
	Body *movement.Body

	MaxTagRemovalPasses int

	// StartupAbilities are granted in order when the system is created
	StartupAbilities []abilities.Grant
	// StartupEffects are applied to self after the startup grants
	StartupEffects []*effects.Effect
}

// System is the ability system of one entity. It is not safe for concurrent
// use; a world confines each system to its tick goroutine.
type System struct {
	id    string
	log   logrus.FieldLogger
	clock effects.Clock
	body  *movement.Body

	ownedTags     *tags.CountingContainer
	blockedTags   *tags.CountingContainer
	attributeSet  *attributes.Set
	activeEffects *effects.ActiveContainer

	specs          []*abilities.Spec
	bindings       map[string][]*abilities.Spec
	pendingRemoval map[*abilities.Spec]struct{}
	effectGrants   map[effects.Handle][]*abilities.Spec
	eventCallbacks map[*tags.Tag]*observer.List[abilities.EventData]
	lastTick       time.Duration

	OnAbilityActivated observer.List[AbilityEvent]
	OnAbilityEnded     observer.List[AbilityEvent]
	OnAbilityFailed    observer.List[FailureEvent]
	OnEffectExecuted   observer.List[ExecutedEvent]
}

// New creates a System, grants its startup abilities and applies its
// startup effects
func New(cfg *Config) *System {
	if cfg == nil {
		cfg = &Config{}
	}

	id := cfg.EntityID
	if id == "" {
		gen := cfg.UUIDGenerator
		if gen == nil {
			gen = uuid.NewGoogleUUIDGenerator()
		}
		id = gen.New()
	}

	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	clock := cfg.Clock
	if clock == nil {
		clock = effects.NewSimClock()
	}

	s := &System{
		id:             id,
		log:            log.WithField("entity_id", id),
		clock:          clock,
		body:           cfg.Body,
		ownedTags:      tags.NewCountingContainer(),
		blockedTags:    tags.NewCountingContainer(),
		bindings:       make(map[string][]*abilities.Spec),
		pendingRemoval: make(map[*abilities.Spec]struct{}),
		effectGrants:   make(map[effects.Handle][]*abilities.Spec),
		eventCallbacks: make(map[*tags.Tag]*observer.List[abilities.EventData]),
		lastTick:       clock.Now(),
	}

	s.attributeSet = attributes.NewSet(cfg.Attributes...)
	s.attributeSet.SetLogger(s.log)
	s.attributeSet.Initialize(s)

	s.activeEffects = effects.NewActiveContainer(&effects.ContainerConfig{
		Owner:            s,
		Clock:            clock,
		Tags:             s.ownedTags,
		Values:           s.attributeSet,
		MaxRemovalPasses: cfg.MaxTagRemovalPasses,
		Logger:           s.log,
	})
	s.activeEffects.OnAdded.Subscribe(s.handleEffectAdded)
	s.activeEffects.OnRemoved.Subscribe(s.handleEffectRemoved)
	s.activeEffects.OnInhibitionChanged.Subscribe(s.handleInhibitionChanged)

	s.ownedTags.TagAdded.Subscribe(s.handleTagAdded)
	s.ownedTags.TagRemoved.Subscribe(s.handleTagRemoved)

	for _, grant := range cfg.StartupAbilities {
		s.GrantAbility(grant)
	}
	for _, effect := range cfg.StartupEffects {
		s.ApplyGameplayEffectToSelf(effect)
	}

	return s
}

// EntityID returns the owning entity's id
func (s *System) EntityID() string { return s.id }

// OwnedTags returns the dynamic tag set
func (s *System) OwnedTags() *tags.CountingContainer { return s.ownedTags }

// BlockedTags returns the activation-blocked tag set
func (s *System) BlockedTags() *tags.CountingContainer { return s.blockedTags }

// AttributeSet returns the entity's attributes
func (s *System) AttributeSet() *attributes.Set { return s.attributeSet }

// ActiveEffects returns the container of active effects
func (s *System) ActiveEffects() *effects.ActiveContainer { return s.activeEffects }

// Clock returns the simulation clock
func (s *System) Clock() effects.Clock { return s.clock }

// Body returns the movement body, nil when the entity cannot move
func (s *System) Body() *movement.Body { return s.body }

// Logger returns the entity scoped logger
func (s *System) Logger() logrus.FieldLogger { return s.log }

// EarlyTick expires timed-out effects and advances the movement body
func (s *System) EarlyTick() {
	s.activeEffects.RemoveExpired()

	now := s.clock.Now()
	if s.body != nil {
		s.body.Step(now-s.lastTick, now)
	}
	s.lastTick = now
}

// LateTick flushes the attribute changes accumulated during the tick
func (s *System) LateTick() {
	s.attributeSet.FlushDirtyAttributes()
}
