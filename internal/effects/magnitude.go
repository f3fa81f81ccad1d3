package effects

import (
	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/tags"
)

// MagnitudeKind selects how a magnitude is resolved
type MagnitudeKind int

const (
	// MagnitudeScalableFloat is a fixed authored value
	MagnitudeScalableFloat MagnitudeKind = iota
	// MagnitudeAttributeBased reads the current value of an attribute on the
	// evaluating entity
	MagnitudeAttributeBased
	// MagnitudeCustom delegates to a MagnitudeCalculator
	MagnitudeCustom
	// MagnitudeSetByCaller reads a value the caller stored on the spec
	MagnitudeSetByCaller
)

// MagnitudeCalculator computes custom magnitudes
type MagnitudeCalculator interface {
	ModifierMagnitude() float64
}

// MagnitudeFunc adapts a plain function to MagnitudeCalculator
type MagnitudeFunc func() float64

// ModifierMagnitude implements MagnitudeCalculator
func (f MagnitudeFunc) ModifierMagnitude() float64 {
	return f()
}

// Magnitude is the authored description of a number resolved at calculation
// time
type Magnitude struct {
	Kind           MagnitudeKind
	Value          float64
	Attribute      *attributes.Attribute
	SetByCallerTag *tags.Tag
	Calculator     MagnitudeCalculator
}

// Flat returns a scalable float magnitude
func Flat(value float64) Magnitude {
	return Magnitude{Kind: MagnitudeScalableFloat, Value: value}
}

// FromAttribute returns an attribute based magnitude. A nil attribute reads
// the attribute the modifier targets.
func FromAttribute(attr *attributes.Attribute) Magnitude {
	return Magnitude{Kind: MagnitudeAttributeBased, Attribute: attr}
}

// FromCalculator returns a custom magnitude
func FromCalculator(calc MagnitudeCalculator) Magnitude {
	return Magnitude{Kind: MagnitudeCustom, Calculator: calc}
}

// FromCaller returns a set-by-caller magnitude keyed by tag
func FromCaller(tag *tags.Tag) Magnitude {
	return Magnitude{Kind: MagnitudeSetByCaller, SetByCallerTag: tag}
}

// Resolve computes the magnitude. Missing inputs resolve to zero.
func (m Magnitude) Resolve(values attributes.Reader, fallback *attributes.Attribute, setByCaller map[*tags.Tag]float64) float64 {
	switch m.Kind {
	case MagnitudeScalableFloat:
		return m.Value
	case MagnitudeAttributeBased:
		attr := m.Attribute
		if attr == nil {
			attr = fallback
		}
		if values == nil || attr == nil {
			return 0
		}
		return values.CurrentValue(attr)
	case MagnitudeCustom:
		if m.Calculator == nil {
			return 0
		}
		return m.Calculator.ModifierMagnitude()
	case MagnitudeSetByCaller:
		return setByCaller[m.SetByCallerTag]
	default:
		return 0
	}
}
