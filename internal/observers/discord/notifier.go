// Package discord mirrors ability system notifications to a Discord channel
package discord

//go:generate mockgen -destination=mock/mock_sender.go -package=mockdiscord -source=notifier.go

import (
	"fmt"
	"io"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/abilitysystem"
	"github.com/KirkDiggler/ability-system/internal/attributes"
	"github.com/KirkDiggler/ability-system/internal/effects"
	apperr "github.com/KirkDiggler/ability-system/internal/errors"
	"github.com/KirkDiggler/ability-system/internal/observer"
)

// Sender is the part of a discordgo session the notifier posts through
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Config holds the notifier dependencies
type Config struct {
	Sender    Sender
	ChannelID string
	Logger    logrus.FieldLogger
}

// Notifier posts one line per notification of the systems it watches
type Notifier struct {
	sender    Sender
	channelID string
	log       logrus.FieldLogger
}

// NewSession opens a bot session usable as a Sender
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, apperr.MissingParam("token")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to create Discord session")
	}
	return session, nil
}

// New creates a Notifier
func New(cfg *Config) (*Notifier, error) {
	if cfg == nil {
		return nil, apperr.MissingParam("cfg")
	}
	if cfg.Sender == nil {
		return nil, apperr.MissingParam("cfg.Sender")
	}
	if cfg.ChannelID == "" {
		return nil, apperr.MissingParam("cfg.ChannelID")
	}

	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Notifier{
		sender:    cfg.Sender,
		channelID: cfg.ChannelID,
		log:       log.WithField("channel_id", cfg.ChannelID),
	}, nil
}

// Watch subscribes to a system's notifications and to the flushed changes
// of the given attributes. The returned func unsubscribes everything.
func (n *Notifier) Watch(sys *abilitysystem.System, attrs ...*attributes.Attribute) func() {
	if sys == nil {
		return func() {}
	}

	activated := sys.OnAbilityActivated.Subscribe(n.abilityActivated)
	ended := sys.OnAbilityEnded.Subscribe(n.abilityEnded)
	failed := sys.OnAbilityFailed.Subscribe(n.abilityFailed)
	executed := sys.OnEffectExecuted.Subscribe(n.effectExecuted)

	id := sys.EntityID()
	added := sys.ActiveEffects().OnAdded.Subscribe(func(ev effects.AddedEvent) {
		n.post("**%s** gained effect `%s`", id, ev.Spec.Effect().Key)
	})
	removed := sys.ActiveEffects().OnRemoved.Subscribe(func(ev effects.RemovedEvent) {
		n.post("**%s** lost effect `%s`", id, ev.Spec.Effect().Key)
	})

	changed := make(map[*attributes.Attribute]observer.Subscription, len(attrs))
	set := sys.AttributeSet()
	for _, attr := range attrs {
		sub := set.OnAttributeChanged(attr, func(ev attributes.ChangeEvent) {
			n.post("**%s** %s is now %g (base %g)", id, ev.Attribute.Name, ev.Instance.Current, ev.Instance.Base)
		})
		if sub != 0 {
			changed[attr] = sub
		}
	}

	return func() {
		sys.OnAbilityActivated.Unsubscribe(activated)
		sys.OnAbilityEnded.Unsubscribe(ended)
		sys.OnAbilityFailed.Unsubscribe(failed)
		sys.OnEffectExecuted.Unsubscribe(executed)
		sys.ActiveEffects().OnAdded.Unsubscribe(added)
		sys.ActiveEffects().OnRemoved.Unsubscribe(removed)
		for attr, sub := range changed {
			set.RemoveAttributeChanged(attr, sub)
		}
	}
}

func (n *Notifier) abilityActivated(ev abilitysystem.AbilityEvent) {
	n.post("**%s** activated `%s`", ev.System.EntityID(), ev.Spec.Key())
}

func (n *Notifier) abilityEnded(ev abilitysystem.AbilityEvent) {
	if ev.Cancelled {
		n.post("**%s** cancelled `%s`", ev.System.EntityID(), ev.Spec.Key())
		return
	}
	n.post("**%s** finished `%s`", ev.System.EntityID(), ev.Spec.Key())
}

func (n *Notifier) abilityFailed(ev abilitysystem.FailureEvent) {
	key := "unknown"
	if ev.Spec != nil {
		key = ev.Spec.Key()
	}
	n.post("**%s** could not activate `%s`: %s", ev.System.EntityID(), key, ev.Reason)
}

func (n *Notifier) effectExecuted(ev abilitysystem.ExecutedEvent) {
	n.post("**%s** took instant effect `%s`", ev.System.EntityID(), ev.Spec.Effect().Key)
}

// post sends a line; failures are logged and never reach the simulation
func (n *Notifier) post(format string, args ...any) {
	content := fmt.Sprintf(format, args...)
	if _, err := n.sender.ChannelMessageSend(n.channelID, content); err != nil {
		n.log.WithError(err).WithField("content", content).Warn("[DISCORD] Failed to post notification")
	}
}
