package effects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/effects"
	"github.com/KirkDiggler/ability-system/internal/tags"
)

func TestSpec_RecalculateModifiers(t *testing.T) {
	col := tags.NewCollection()
	damage := col.MustEnsure("Data.Damage")
	strength := &attributes.Attribute{Name: "Strength"}
	health := &attributes.Attribute{Name: "Health"}

	set := attributes.NewSet(strength, health)
	set.Initialize(&testEntity{id: "hero"})
	set.SetBaseValue(strength, 7)
	set.SetBaseValue(health, 30)

	calls := 0
	effect := &effects.Effect{
		DurationPolicy: effects.DurationInstant,
		Modifiers: []effects.ModifierInfo{
			{Attribute: health, Method: attributes.MethodAdd, Magnitude: effects.Flat(3)},
			{Attribute: health, Method: attributes.MethodAdd, Magnitude: effects.FromAttribute(strength)},
			{Attribute: health, Method: attributes.MethodMultiply, Magnitude: effects.FromAttribute(nil)},
			{Attribute: health, Method: attributes.MethodAdd, Magnitude: effects.FromCaller(damage)},
			{Attribute: health, Method: attributes.MethodAdd, Magnitude: effects.FromCaller(col.MustEnsure("Data.Missing"))},
			{Attribute: health, Method: attributes.MethodAdd, Magnitude: effects.FromCalculator(effects.MagnitudeFunc(func() float64 {
				calls++
				return float64(calls)
			}))},
		},
	}

	spec := effects.NewSpec(effect, nil).SetByCallerMagnitude(damage, -4)
	spec.RecalculateModifiers(set)

	got := spec.Modifiers()
	require.Len(t, got, 6)
	assert.Equal(t, 3.0, got[0].Magnitude)
	assert.Equal(t, 7.0, got[1].Magnitude)
	assert.Equal(t, 30.0, got[2].Magnitude)
	assert.Equal(t, -4.0, got[3].Magnitude)
	assert.Equal(t, 0.0, got[4].Magnitude)
	assert.Equal(t, 1.0, got[5].Magnitude)

	spec.RecalculateModifiers(set)
	assert.Equal(t, 2.0, spec.Modifiers()[5].Magnitude)
	assert.Len(t, spec.Modifiers(), 6)

	value, ok := spec.SetByCaller(damage)
	assert.True(t, ok)
	assert.Equal(t, -4.0, value)
	assert.Equal(t, map[string]float64{"Data.Damage": -4}, spec.SetByCallerValues())
}

func TestEffect_HasValidModifiers(t *testing.T) {
	speed := &attributes.Attribute{Name: "MoveSpeed"}

	valid := &effects.Effect{Modifiers: []effects.ModifierInfo{{Attribute: speed}}}
	invalid := &effects.Effect{Modifiers: []effects.ModifierInfo{{Attribute: speed}, {}}}

	assert.True(t, valid.HasValidModifiers())
	assert.False(t, invalid.HasValidModifiers())

	var missing *effects.Effect
	assert.False(t, missing.HasValidModifiers())
	assert.False(t, missing.IsInstant())
}

func TestEffect_ListenedTagsDeduplicates(t *testing.T) {
	col := tags.NewCollection()
	a := col.MustEnsure("A")
	b := col.MustEnsure("B")

	effect := &effects.Effect{
		RemovalTagRequirements: tags.Requirements{Required: tags.NewContainer(a)},
		OngoingTagRequirements: tags.Requirements{Required: tags.NewContainer(a), Ignored: tags.NewContainer(b)},
	}

	assert.Equal(t, tags.NewContainer(a, b), effect.ListenedTags())
}

func TestSimClock_Advance(t *testing.T) {
	clock := effects.NewSimClock()
	clock.Advance(effects.Seconds(1.5))
	clock.Advance(-effects.Seconds(1))

	assert.Equal(t, effects.Seconds(1.5), clock.Now())
}
