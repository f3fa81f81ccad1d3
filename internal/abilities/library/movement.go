package library

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KirkDiggler/ability-system/internal/abilities"
)

// Jump launches the owner's body upward
type Jump struct {
	abilities.Base
	Speed float64
}

// NewJump creates a jump ability
func NewJump(def *abilities.Definition, speed float64) *Jump {
	return &Jump{Base: abilities.Base{Def: def}, Speed: speed}
}

// CanActivate requires a grounded body
func (j *Jump) CanActivate(spec *abilities.Spec) bool {
	body := bodyOf(spec)
	return body != nil && body.CanJump()
}

// Activate jumps and ends immediately
func (j *Jump) Activate(spec *abilities.Spec, _ abilities.EventData) {
	if body := bodyOf(spec); body != nil {
		body.Jump(j.Speed)
	}
	spec.End(false)
}

// Dash moves the owner's body quickly along its heading
type Dash struct {
	abilities.Base
	Speed float64
	// Heading is used when the body is standing still
	Heading mgl64.Vec3
}

// NewDash creates a dash ability
func NewDash(def *abilities.Definition, speed float64, heading mgl64.Vec3) *Dash {
	return &Dash{Base: abilities.Base{Def: def}, Speed: speed, Heading: heading}
}

// CanActivate requires a body whose dash cooldown has elapsed
func (d *Dash) CanActivate(spec *abilities.Spec) bool {
	body := bodyOf(spec)
	return body != nil && body.CanDash(nowOf(spec))
}

// Activate dashes and ends immediately
func (d *Dash) Activate(spec *abilities.Spec, _ abilities.EventData) {
	if body := bodyOf(spec); body != nil {
		heading := mgl64.Vec3{body.Velocity.X(), 0, body.Velocity.Z()}
		if heading.Len() == 0 {
			heading = d.Heading
		}
		body.Dash(heading, d.Speed, nowOf(spec))
	}
	spec.End(false)
}

func nowOf(spec *abilities.Spec) time.Duration {
	if clocked, ok := spec.Owner().(Clocked); ok && clocked.Clock() != nil {
		return clocked.Clock().Now()
	}
	return 0
}
