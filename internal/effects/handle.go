package effects

// Handle identifies an active effect. Equality covers the id and both
// endpoints. Holders must treat a handle as possibly stale and check IsValid.
type Handle struct {
	ID     int
	Source Owner
	Target Owner
}

// InvalidHandle is returned when an effect was not made active
var InvalidHandle = Handle{ID: -1}

// IsValid reports whether the handle still refers to an active effect on
// its target
func (h Handle) IsValid() bool {
	if h.ID < 0 || h.Target == nil {
		return false
	}
	container := h.Target.ActiveEffects()
	return container != nil && container.Spec(h) != nil
}
