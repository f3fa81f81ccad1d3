// Package library holds the concrete abilities shipped with the runtime
package library

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/abilities"
	"github.com/KirkDiggler/ability-system/internal/effects"
	"github.com/KirkDiggler/ability-system/internal/movement"
)

// Mover is an owner with a movement body
type Mover interface {
	Body() *movement.Body
}

// Clocked is an owner that exposes the simulation clock
type Clocked interface {
	Clock() effects.Clock
}

// EffectApplier is an owner that can build and apply effect specs
type EffectApplier interface {
	MakeOutgoingSpec(effect *effects.Effect) *effects.Spec
	ApplyGameplayEffectSpecToSelf(spec *effects.Spec) effects.Handle
	RemoveActiveEffectByHandle(h effects.Handle) bool
}

type logged interface {
	Logger() logrus.FieldLogger
}

var discard = func() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func loggerOf(owner abilities.Owner) logrus.FieldLogger {
	if l, ok := owner.(logged); ok && l.Logger() != nil {
		return l.Logger()
	}
	return discard
}

// bodyOf returns the owner's body, logging a warning when there is none
func bodyOf(spec *abilities.Spec) *movement.Body {
	mover, ok := spec.Owner().(Mover)
	if !ok || mover.Body() == nil {
		loggerOf(spec.Owner()).WithField("ability", spec.Key()).Warn("[ABILITIES] owner has no movement body")
		return nil
	}
	return mover.Body()
}

func applierOf(owner abilities.Owner) EffectApplier {
	applier, ok := owner.(EffectApplier)
	if !ok {
		return nil
	}
	return applier
}
