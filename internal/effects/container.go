package effects

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/observer"
	"github.com/KirkDiggler/ability-system/internal/tags"
)

// DefaultMaxRemovalPasses bounds how many tag-driven evaluations one tag
// transition may cascade into
const DefaultMaxRemovalPasses = 256

// AddedEvent is fired after an effect became active
type AddedEvent struct {
	Handle Handle
	Spec   *Spec
}

// RemovedEvent is fired after an effect left the container
type RemovedEvent struct {
	Handle Handle
	Spec   *Spec
}

// InhibitionEvent is fired when ongoing requirements toggle an effect
type InhibitionEvent struct {
	Handle    Handle
	Spec      *Spec
	Inhibited bool
}

// ContainerConfig configures an ActiveContainer
type ContainerConfig struct {
	Owner Owner
	Clock Clock
	// Tags is the owner's dynamic tag set, watched for requirement changes
	Tags *tags.CountingContainer
	// Values resolves durations at insertion time
	Values           attributes.Reader
	MaxRemovalPasses int
	Logger           logrus.FieldLogger
}

// ActiveContainer owns the duration and infinite effects active on one entity
type ActiveContainer struct {
	owner     Owner
	clock     Clock
	tags      *tags.CountingContainer
	values    attributes.Reader
	maxPasses int
	log       logrus.FieldLogger

	nextID    int
	specs     map[Handle]*Spec
	order     []Handle
	listeners map[*tags.Tag][]Handle

	queue    []Handle
	draining bool
	// adding holds effects inserted but not yet announced through OnAdded
	adding map[Handle]struct{}

	OnAdded             observer.List[AddedEvent]
	OnRemoved           observer.List[RemovedEvent]
	OnInhibitionChanged observer.List[InhibitionEvent]
}

// NewActiveContainer creates a container and subscribes it to the owner's
// tag transitions
func NewActiveContainer(cfg *ContainerConfig) *ActiveContainer {
	if cfg == nil {
		cfg = &ContainerConfig{}
	}

	c := &ActiveContainer{
		owner:     cfg.Owner,
		clock:     cfg.Clock,
		tags:      cfg.Tags,
		values:    cfg.Values,
		maxPasses: cfg.MaxRemovalPasses,
		log:       cfg.Logger,
		specs:     make(map[Handle]*Spec),
		listeners: make(map[*tags.Tag][]Handle),
		adding:    make(map[Handle]struct{}),
	}

	if c.clock == nil {
		c.clock = NewSimClock()
	}
	if c.tags == nil {
		c.tags = tags.NewCountingContainer()
	}
	if c.maxPasses <= 0 {
		c.maxPasses = DefaultMaxRemovalPasses
	}
	if c.log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		c.log = discard
	}

	c.tags.TagAdded.Subscribe(c.onTagTransition)
	c.tags.TagRemoved.Subscribe(c.onTagTransition)

	return c
}

// Len returns the number of active effects
func (c *ActiveContainer) Len() int {
	return len(c.order)
}

// Spec looks up an active effect, nil when absent
func (c *ActiveContainer) Spec(h Handle) *Spec {
	return c.specs[h]
}

// Handles returns the active handles in insertion order
func (c *ActiveContainer) Handles() []Handle {
	handles := make([]Handle, len(c.order))
	copy(handles, c.order)
	return handles
}

// Specs returns the active specs in insertion order
func (c *ActiveContainer) Specs() []*Spec {
	specs := make([]*Spec, 0, len(c.order))
	for _, h := range c.order {
		specs = append(specs, c.specs[h])
	}
	return specs
}

// Add makes spec active on the container's owner and returns its handle.
//
// The spec is inserted before other effects matching its
// RemoveGameplayEffectsWithTags are swept, so the sweep never matches it. If
// the sweep meets its removal requirements it is dropped without any
// notification and InvalidHandle is returned.
func (c *ActiveContainer) Add(spec *Spec) Handle {
	if spec == nil || spec.effect == nil {
		c.log.Error("[EFFECTS] cannot add a nil effect spec")
		return InvalidHandle
	}
	if spec.effect.IsInstant() {
		c.log.WithField("effect", spec.effect.Key).Warn("[EFFECTS] instant effects are never active")
		return InvalidHandle
	}

	spec.appliedAt = c.clock.Now()
	spec.resolveDuration(c.values)

	h := Handle{ID: c.nextID, Source: spec.source, Target: c.owner}
	c.nextID++
	spec.handle = h

	c.specs[h] = spec
	c.order = append(c.order, h)

	for _, tag := range spec.effect.ListenedTags() {
		c.listeners[tag] = append(c.listeners[tag], h)
	}

	ongoing := spec.effect.OngoingTagRequirements
	spec.inhibited = !ongoing.IsEmpty() && !ongoing.Met(c.tags)

	c.adding[h] = struct{}{}
	c.removeMatching(spec.effect.RemoveGameplayEffectsWithTags, h)
	delete(c.adding, h)

	// the sweep can release tags that meet the new effect's own removal
	// requirements
	if _, ok := c.specs[h]; !ok {
		c.log.WithFields(logrus.Fields{
			"effect": spec.effect.Key,
			"handle": h.ID,
		}).Debug("[EFFECTS] effect removed by its own sweep")
		return InvalidHandle
	}

	c.log.WithFields(logrus.Fields{
		"effect":    spec.effect.Key,
		"handle":    h.ID,
		"inhibited": spec.inhibited,
	}).Debug("[EFFECTS] effect added")

	c.OnAdded.Notify(AddedEvent{Handle: h, Spec: spec})
	return h
}

// RemoveExpired removes every duration effect whose lifetime has elapsed
func (c *ActiveContainer) RemoveExpired() int {
	now := c.clock.Now()

	var expired []Handle
	for _, h := range c.order {
		spec := c.specs[h]
		if spec.effect.DurationPolicy != DurationHasDuration {
			continue
		}
		if now-spec.appliedAt >= spec.duration {
			expired = append(expired, h)
		}
	}

	removed := 0
	for _, h := range expired {
		if c.RemoveByHandle(h) {
			removed++
		}
	}
	return removed
}

// RemoveByHandle removes an active effect. Absent handles are ignored.
func (c *ActiveContainer) RemoveByHandle(h Handle) bool {
	spec, ok := c.specs[h]
	if !ok {
		return false
	}

	delete(c.specs, h)
	c.order = without(c.order, h)
	for _, tag := range spec.effect.ListenedTags() {
		c.listeners[tag] = without(c.listeners[tag], h)
		if len(c.listeners[tag]) == 0 {
			delete(c.listeners, tag)
		}
	}

	if _, pending := c.adding[h]; pending {
		return true
	}

	c.log.WithFields(logrus.Fields{
		"effect": spec.effect.Key,
		"handle": h.ID,
	}).Debug("[EFFECTS] effect removed")

	c.OnRemoved.Notify(RemovedEvent{Handle: h, Spec: spec})
	return true
}

// RemoveEffectsWithTags removes every active effect whose effect tags match
// any of removeTags
func (c *ActiveContainer) RemoveEffectsWithTags(removeTags tags.Container) int {
	return c.removeMatching(removeTags, InvalidHandle)
}

func (c *ActiveContainer) removeMatching(removeTags tags.Container, keep Handle) int {
	if removeTags.IsEmpty() {
		return 0
	}

	var matched []Handle
	for _, h := range c.order {
		if h == keep {
			continue
		}
		if c.specs[h].effect.EffectTags.AnyTagsMatch(removeTags) {
			matched = append(matched, h)
		}
	}

	removed := 0
	for _, h := range matched {
		if c.RemoveByHandle(h) {
			removed++
		}
	}
	return removed
}

// onTagTransition queues every effect listening to the tag or one of its
// ancestors for re-evaluation. Nested transitions raised while draining join
// the same queue instead of recursing.
func (c *ActiveContainer) onTagTransition(ev tags.TagEvent) {
	for tag := ev.Tag; tag != nil; tag = tag.Parent() {
		c.queue = append(c.queue, c.listeners[tag]...)
	}
	if c.draining {
		return
	}

	c.draining = true
	defer func() { c.draining = false }()

	for passes := 0; len(c.queue) > 0; passes++ {
		if passes >= c.maxPasses {
			c.log.WithFields(logrus.Fields{
				"max_passes": c.maxPasses,
				"dropped":    len(c.queue),
			}).Warn("[EFFECTS] tag-driven removal exceeded pass limit")
			c.queue = nil
			return
		}

		h := c.queue[0]
		c.queue = c.queue[1:]
		c.evaluate(h)
	}
}

func (c *ActiveContainer) evaluate(h Handle) {
	spec, ok := c.specs[h]
	if !ok {
		return
	}

	removal := spec.effect.RemovalTagRequirements
	if !removal.IsEmpty() && removal.Met(c.tags) {
		c.RemoveByHandle(h)
		return
	}

	ongoing := spec.effect.OngoingTagRequirements
	if ongoing.IsEmpty() {
		return
	}

	inhibited := !ongoing.Met(c.tags)
	if inhibited == spec.inhibited {
		return
	}

	spec.inhibited = inhibited
	if _, pending := c.adding[h]; pending {
		return
	}
	c.OnInhibitionChanged.Notify(InhibitionEvent{Handle: h, Spec: spec, Inhibited: inhibited})
}

func without(handles []Handle, h Handle) []Handle {
	for i, candidate := range handles {
		if candidate == h {
			return append(handles[:i:i], handles[i+1:]...)
		}
	}
	return handles
}
