package attributes_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/ability-system/internal/attributes"
)

type testOwner string

func (o testOwner) EntityID() string { return string(o) }

// fixedSource is a modifier source with static modifiers that counts how
// often it was re-derived
type fixedSource struct {
	mods         []attributes.Modifier
	recalculated int
}

func (f *fixedSource) RecalculateModifiers(attributes.Reader) { f.recalculated++ }
func (f *fixedSource) Modifiers() []attributes.Modifier       { return f.mods }

func source(mods ...attributes.Modifier) *fixedSource {
	return &fixedSource{mods: mods}
}

type SetSuite struct {
	suite.Suite
	health    *attributes.Attribute
	maxHealth *attributes.Attribute
	speed     *attributes.Attribute
	set       *attributes.Set
	changes   []attributes.ChangeEvent
}

func TestSetSuite(t *testing.T) {
	suite.Run(t, new(SetSuite))
}

func (s *SetSuite) SetupTest() {
	s.maxHealth = &attributes.Attribute{Name: "MaxHealth"}
	s.health = &attributes.Attribute{Name: "Health", Max: s.maxHealth}
	s.speed = &attributes.Attribute{Name: "MoveSpeed"}
	s.set = attributes.NewSet(s.maxHealth, s.health, s.speed)
	s.set.Initialize(testOwner("hero"))
	s.changes = nil

	for _, attr := range []*attributes.Attribute{s.maxHealth, s.health, s.speed} {
		s.set.OnAttributeChanged(attr, func(ev attributes.ChangeEvent) {
			s.changes = append(s.changes, ev)
		})
	}
}

func (s *SetSuite) TestInitializeZeroes() {
	for _, attr := range s.set.Attributes() {
		inst, ok := s.set.Instance(attr)
		s.True(ok)
		s.Equal(attributes.Instance{}, inst)
	}
	s.Equal([]*attributes.Attribute{s.health}, s.set.Dependents(s.maxHealth))
}

func (s *SetSuite) TestInstantOrderDependence() {
	s.set.ExecuteEffectSpec(source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodOverride, Magnitude: 10}))
	s.set.ExecuteEffectSpec(source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: 5}))
	s.Equal(15.0, s.set.BaseValue(s.speed))

	s.SetupTest()
	s.set.ExecuteEffectSpec(source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: 5}))
	s.set.ExecuteEffectSpec(source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodOverride, Magnitude: 10}))
	s.Equal(10.0, s.set.BaseValue(s.speed))
}

func (s *SetSuite) TestMaxClamp() {
	s.set.ExecuteEffectSpec(source(attributes.Modifier{Attribute: s.maxHealth, Method: attributes.MethodOverride, Magnitude: 50}))
	s.set.ExecuteEffectSpec(source(attributes.Modifier{Attribute: s.health, Method: attributes.MethodAdd, Magnitude: 1000}))

	s.Equal(50.0, s.set.BaseValue(s.health))
	s.Equal(50.0, s.set.CurrentValue(s.health))
}

func (s *SetSuite) TestActiveClampUsesCapSoFar() {
	s.set.SetBaseValue(s.maxHealth, 50)
	s.set.SetBaseValue(s.health, 40)

	buff := source(attributes.Modifier{Attribute: s.health, Method: attributes.MethodAdd, Magnitude: 30})
	s.set.ApplyActiveEffectSpec(buff)
	s.Equal(50.0, s.set.CurrentValue(s.health))
	s.Equal(40.0, s.set.BaseValue(s.health))

	s.set.RemoveActiveEffectSpec(buff)
	s.Equal(40.0, s.set.CurrentValue(s.health))
}

func (s *SetSuite) TestActiveApplyAndRemove() {
	s.set.SetBaseValue(s.speed, 10)

	slow := source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: -5})
	haste := source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodMultiply, Magnitude: 2})

	s.set.ApplyActiveEffectSpec(slow)
	s.set.ApplyActiveEffectSpec(haste)
	s.Equal(10.0, s.set.CurrentValue(s.speed), "(10 - 5) * 2")
	s.Equal(2, s.set.AppliedCount())
	s.True(s.set.IsApplied(slow))

	s.set.RemoveActiveEffectSpec(slow)
	s.Equal(20.0, s.set.CurrentValue(s.speed))

	s.set.RemoveActiveEffectSpec(slow)
	s.Equal(1, s.set.AppliedCount())
	s.Equal(10.0, s.set.BaseValue(s.speed))
}

func (s *SetSuite) TestStructuralChangeRederivesActiveSpecs() {
	first := source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: 1})
	second := source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: 1})

	s.set.ApplyActiveEffectSpec(first)
	s.set.ApplyActiveEffectSpec(second)
	s.set.RemoveActiveEffectSpec(second)

	s.Equal(3, first.recalculated)
}

func (s *SetSuite) TestSourceWithoutModifiersIsNotKept() {
	s.set.ApplyActiveEffectSpec(source())
	s.Equal(0, s.set.AppliedCount())
}

func (s *SetSuite) TestRecomputeIdempotent() {
	s.set.SetBaseValue(s.speed, 10)
	s.set.ApplyActiveEffectSpec(source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodDivide, Magnitude: 4}))

	s.set.Recompute()
	s.set.FlushDirtyAttributes()
	before := s.set.CurrentValue(s.speed)
	s.changes = nil

	s.set.Recompute()
	s.Empty(s.set.DirtyAttributes())
	s.set.FlushDirtyAttributes()
	s.Empty(s.changes)
	s.Equal(before, s.set.CurrentValue(s.speed))
}

func (s *SetSuite) TestFlushDeduplicates() {
	for i := 0; i < 3; i++ {
		s.set.ExecuteEffectSpec(source(attributes.Modifier{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: 1}))
	}
	s.set.FlushDirtyAttributes()

	s.Require().Len(s.changes, 1)
	s.Equal(s.speed, s.changes[0].Attribute)
	s.Equal(3.0, s.changes[0].Instance.Current)
	s.Equal("hero", s.changes[0].Owner.EntityID())

	s.set.FlushDirtyAttributes()
	s.Len(s.changes, 1)
}

func (s *SetSuite) TestUnregisteredAttributeSkipped() {
	stranger := &attributes.Attribute{Name: "Mana"}
	s.set.ExecuteEffectSpec(source(
		attributes.Modifier{Attribute: stranger, Method: attributes.MethodAdd, Magnitude: 5},
		attributes.Modifier{Attribute: s.speed, Method: attributes.MethodAdd, Magnitude: 5},
	))

	s.Equal(5.0, s.set.CurrentValue(s.speed))
	s.False(s.set.Has(stranger))
	s.Equal(0.0, s.set.CurrentValue(stranger))
}

func (s *SetSuite) TestNilSpecIsNoop() {
	s.NotPanics(func() {
		s.set.ExecuteEffectSpec(nil)
		s.set.ApplyActiveEffectSpec(nil)
	})
	s.Equal(0, s.set.AppliedCount())
}

func (s *SetSuite) TestRemoveAttributeChanged() {
	var calls int
	sub := s.set.OnAttributeChanged(s.speed, func(attributes.ChangeEvent) { calls++ })
	s.set.RemoveAttributeChanged(s.speed, sub)

	s.set.SetBaseValue(s.speed, 3)
	s.set.FlushDirtyAttributes()
	s.Equal(0, calls)
	s.Len(s.changes, 1)
}

func TestMethod_Apply(t *testing.T) {
	tests := []struct {
		name      string
		method    attributes.Method
		value     float64
		magnitude float64
		want      float64
	}{
		{name: "add", method: attributes.MethodAdd, value: 2, magnitude: 3, want: 5},
		{name: "multiply", method: attributes.MethodMultiply, value: 2, magnitude: 3, want: 6},
		{name: "divide", method: attributes.MethodDivide, value: 9, magnitude: 3, want: 3},
		{name: "divide by zero", method: attributes.MethodDivide, value: 9, magnitude: 0, want: math.Inf(1)},
		{name: "negative divide by zero", method: attributes.MethodDivide, value: -9, magnitude: 0, want: math.Inf(-1)},
		{name: "override", method: attributes.MethodOverride, value: 9, magnitude: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.method.Apply(tt.value, tt.magnitude))
		})
	}
}

func TestMethod_DivideZeroByZero(t *testing.T) {
	assert.True(t, math.IsNaN(attributes.MethodDivide.Apply(0, 0)))
}

func TestSet_InitializeTwice(t *testing.T) {
	speed := &attributes.Attribute{Name: "MoveSpeed"}
	set := attributes.NewSet(speed)
	set.Initialize(testOwner("a"))
	require.True(t, set.SetBaseValue(speed, 4))

	set.Initialize(testOwner("b"))
	assert.Equal(t, 4.0, set.BaseValue(speed))
	assert.True(t, set.IsInitialized())
}
