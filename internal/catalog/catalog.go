// Package catalog is a registry of immutable effect and ability templates
// addressed by key
package catalog

import (
	"sort"
	"sync"

	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/effects"
	apperr "github.com/KirkDiggler/ability-system/internal/errors"
)

// Catalog holds templates. It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	effects   map[string]*effects.Effect
	abilities map[string]abilities.Ability
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		effects:   make(map[string]*effects.Effect),
		abilities: make(map[string]abilities.Ability),
	}
}

// RegisterEffect stores effect under key and stamps the key on the effect
// when it has none
func (c *Catalog) RegisterEffect(key string, effect *effects.Effect) error {
	if key == "" {
		return apperr.MissingParam("key")
	}
	if effect == nil {
		return apperr.InvalidArgument("effect cannot be nil").WithMeta("key", key)
	}
	if !effect.HasValidModifiers() {
		return apperr.InvalidArgumentf("effect %q has a modifier without an attribute", key).WithMeta("key", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.effects[key]; exists {
		return apperr.AlreadyExistsf("effect %q already registered", key).WithMeta("key", key)
	}
	if effect.Key == "" {
		effect.Key = key
	}
	c.effects[key] = effect

	return nil
}

// RegisterAbility stores ability under key
func (c *Catalog) RegisterAbility(key string, ability abilities.Ability) error {
	if key == "" {
		return apperr.MissingParam("key")
	}
	if ability == nil {
		return apperr.InvalidArgument("ability cannot be nil").WithMeta("key", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.abilities[key]; exists {
		return apperr.AlreadyExistsf("ability %q already registered", key).WithMeta("key", key)
	}
	c.abilities[key] = ability

	return nil
}

// Effect returns the effect registered under key
func (c *Catalog) Effect(key string) (*effects.Effect, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	effect, ok := c.effects[key]
	if !ok {
		return nil, apperr.NotFoundf("effect %q not found", key).WithMeta("key", key)
	}
	return effect, nil
}

// Ability returns the ability registered under key
func (c *Catalog) Ability(key string) (abilities.Ability, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ability, ok := c.abilities[key]
	if !ok {
		return nil, apperr.NotFoundf("ability %q not found", key).WithMeta("key", key)
	}
	return ability, nil
}

// EffectKeys returns the registered effect keys, sorted
func (c *Catalog) EffectKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.effects))
	for key := range c.effects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// AbilityKeys returns the registered ability keys, sorted
func (c *Catalog) AbilityKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.abilities))
	for key := range c.abilities {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
