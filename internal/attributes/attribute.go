// Package attributes holds per-entity numeric attributes and the modifier
// pipeline that derives their current values.
package attributes

// Method is how a modifier combines with an attribute value
type Method int

const (
	MethodAdd Method = iota
	MethodMultiply
	MethodDivide
	MethodOverride
)

// String implements fmt.Stringer
func (m Method) String() string {
	switch m {
	case MethodAdd:
		return "add"
	case MethodMultiply:
		return "multiply"
	case MethodDivide:
		return "divide"
	case MethodOverride:
		return "override"
	default:
		return "unknown"
	}
}

// Apply combines value with magnitude. Division follows IEEE 754, so a zero
// divisor yields an infinity or NaN.
func (m Method) Apply(value, magnitude float64) float64 {
	switch m {
	case MethodAdd:
		return value + magnitude
	case MethodMultiply:
		return value * magnitude
	case MethodDivide:
		return value / magnitude
	case MethodOverride:
		return magnitude
	default:
		return value
	}
}

// Attribute is an immutable attribute definition. When Max is set, both base
// and current values are clamped to Max's current value.
type Attribute struct {
	Name string
	Max  *Attribute
}

// String implements fmt.Stringer
func (a *Attribute) String() string {
	if a == nil {
		return "<nil>"
	}
	return a.Name
}

// Instance is the runtime value pair of one attribute
type Instance struct {
	Base    float64 `json:"base"`
	Current float64 `json:"current"`
}

// Modifier is a resolved modification ready to be folded into a value
type Modifier struct {
	Attribute *Attribute
	Method    Method
	Magnitude float64
}

// Reader exposes attribute values to magnitude calculations
type Reader interface {
	CurrentValue(attr *Attribute) float64
	BaseValue(attr *Attribute) float64
}

// ModifierSource is anything that contributes modifiers to a Set, in
// practice a gameplay effect spec. RecalculateModifiers re-resolves the
// cached modifiers against the given values.
type ModifierSource interface {
	RecalculateModifiers(values Reader)
	Modifiers() []Modifier
}

// Owner is the entity a Set belongs to
type Owner interface {
	EntityID() string
}

// ChangeEvent is delivered once per tick for each attribute that changed
type ChangeEvent struct {
	Attribute *Attribute
	Instance  Instance
	Owner     Owner
}
