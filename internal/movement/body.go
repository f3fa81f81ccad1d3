// Package movement is a minimal kinematic body that movement abilities
// drive. It is not a physics integration: positions move along velocity,
// gravity pulls toward the ground plane at y=0.
package movement

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Defaults used when a Body is built without a Config
const (
	DefaultGravity      = 20.0
	DefaultDashCooldown = time.Second
	DefaultDashDuration = 200 * time.Millisecond
)

// Config configures a Body
type Config struct {
	Position     mgl64.Vec3
	Gravity      float64
	DashCooldown time.Duration
	DashDuration time.Duration
}

// Body is the movement state of one entity
type Body struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3

	gravity      float64
	dashCooldown time.Duration
	dashDuration time.Duration

	grounded     bool
	dashing      bool
	dashEndsAt   time.Duration
	nextDashAt   time.Duration
	preDashSpeed mgl64.Vec3
}

// NewBody creates a grounded body
func NewBody(cfg *Config) *Body {
	if cfg == nil {
		cfg = &Config{}
	}

	b := &Body{
		Position:     cfg.Position,
		gravity:      cfg.Gravity,
		dashCooldown: cfg.DashCooldown,
		dashDuration: cfg.DashDuration,
		grounded:     cfg.Position.Y() <= 0,
	}
	if b.gravity <= 0 {
		b.gravity = DefaultGravity
	}
	if b.dashCooldown <= 0 {
		b.dashCooldown = DefaultDashCooldown
	}
	if b.dashDuration <= 0 {
		b.dashDuration = DefaultDashDuration
	}
	return b
}

// IsGrounded reports whether the body rests on the ground plane
func (b *Body) IsGrounded() bool {
	return b.grounded
}

// IsDashing reports whether a dash is in progress
func (b *Body) IsDashing() bool {
	return b.dashing
}

// CanJump reports whether the body may jump
func (b *Body) CanJump() bool {
	return b.grounded && !b.dashing
}

// Jump launches the body upward with the given speed
func (b *Body) Jump(speed float64) bool {
	if !b.CanJump() || speed <= 0 {
		return false
	}

	b.Velocity = mgl64.Vec3{b.Velocity.X(), speed, b.Velocity.Z()}
	b.grounded = false
	return true
}

// CanDash reports whether the dash cooldown has elapsed at now
func (b *Body) CanDash(now time.Duration) bool {
	return !b.dashing && now >= b.nextDashAt
}

// Dash moves the body along direction at speed until the dash duration
// elapses
func (b *Body) Dash(direction mgl64.Vec3, speed float64, now time.Duration) bool {
	if !b.CanDash(now) || speed <= 0 || direction.Len() == 0 {
		return false
	}

	b.preDashSpeed = b.Velocity
	b.Velocity = direction.Normalize().Mul(speed)
	b.dashing = true
	b.dashEndsAt = now + b.dashDuration
	b.nextDashAt = now + b.dashCooldown
	return true
}

// Step integrates the body over dt ending at now
func (b *Body) Step(dt, now time.Duration) {
	if b.dashing && now >= b.dashEndsAt {
		b.dashing = false
		b.Velocity = b.preDashSpeed
	}

	seconds := dt.Seconds()
	if !b.grounded && !b.dashing {
		b.Velocity = b.Velocity.Sub(mgl64.Vec3{0, b.gravity * seconds, 0})
	}

	b.Position = b.Position.Add(b.Velocity.Mul(seconds))
	if b.Position.Y() <= 0 && b.Velocity.Y() <= 0 {
		b.Position = mgl64.Vec3{b.Position.X(), 0, b.Position.Z()}
		b.Velocity = mgl64.Vec3{b.Velocity.X(), 0, b.Velocity.Z()}
		b.grounded = true
	}
}
