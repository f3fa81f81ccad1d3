// Command simulate runs a scripted ability system scenario on a fixed tick
// and persists the resulting entity snapshots
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/ability-system/internal/clients/srd"
	"github.com/KirkDiggler/ability-system/internal/config"
	"github.com/KirkDiggler/ability-system/internal/logging"
	"github.com/KirkDiggler/ability-system/internal/observers/discord"
	"github.com/KirkDiggler/ability-system/internal/repositories/snapshots"
	"github.com/KirkDiggler/ability-system/internal/tags"
	"github.com/KirkDiggler/ability-system/internal/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	log := logging.New(cfg.Log)
	log.WithFields(logrus.Fields{
		"tick_rate": cfg.Simulation.TickRate,
		"duration":  cfg.Simulation.Duration.String(),
		"world_id":  cfg.Simulation.WorldID,
	}).Info("Starting simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collection := tags.NewCollection()
	if cfg.SRD.Import {
		importSRD(cfg.SRD, collection, log)
	}

	repo, closeRepo := openRepository(ctx, cfg.Redis, log)
	defer closeRepo()

	w := world.New(&world.Config{
		ID:     cfg.Simulation.WorldID,
		Logger: log,
	})

	sc, err := newScenario(&scenarioConfig{
		World:               w,
		Tags:                collection,
		MaxTagRemovalPasses: cfg.Simulation.MaxTagRemovalPasses,
		Logger:              log,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to build scenario")
	}

	if cfg.Discord.Enabled() {
		watchOnDiscord(cfg.Discord, sc, log)
	}

	interval := cfg.Simulation.TickInterval()
	ticks := int(cfg.Simulation.Duration / interval)
	sc.run(ticks, interval)

	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := w.SaveAll(saveCtx, repo); err != nil {
		log.WithError(err).Error("Failed to save snapshots")
		return
	}

	saved, err := repo.ListByWorld(saveCtx, w.ID())
	if err != nil {
		log.WithError(err).Error("Failed to list snapshots")
		return
	}
	for _, snapshot := range saved {
		log.WithFields(logrus.Fields{
			"entity_id":  snapshot.EntityID,
			"taken_at":   snapshot.TakenAt,
			"tags":       snapshot.TagPaths(),
			"effects":    len(snapshot.ActiveEffects),
			"move_speed": snapshot.Attributes[moveSpeed.Name].Current,
			"health":     snapshot.Attributes[health.Name].Current,
		}).Info("Final state")
	}
}

// openRepository connects to Redis when configured and falls back to the
// in-memory repository otherwise
func openRepository(ctx context.Context, cfg config.RedisConfig, log logrus.FieldLogger) (snapshots.Repository, func()) {
	if cfg.URL == "" {
		log.Info("No REDIS_URL found, using in-memory snapshots")
		return snapshots.NewInMemoryRepository(), func() {}
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.WithError(err).Warn("Failed to parse Redis URL, falling back to in-memory snapshots")
		return snapshots.NewInMemoryRepository(), func() {}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, falling back to in-memory snapshots")
		_ = client.Close()
		return snapshots.NewInMemoryRepository(), func() {}
	}

	log.Info("Using Redis for snapshots")
	return snapshots.NewRedis(client), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

// importSRD extends the tag tree with the SRD classes and races. Failures
// only cost the extra tags.
func importSRD(cfg config.SRDConfig, collection *tags.Collection, log logrus.FieldLogger) {
	client, err := srd.New(&srd.Config{
		HttpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	})
	if err != nil {
		log.WithError(err).Warn("Failed to create SRD client")
		return
	}

	importer, err := srd.NewImporter(&srd.ImporterConfig{
		Client: client,
		Logger: log,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to create SRD importer")
		return
	}

	count, err := importer.Import(collection)
	if err != nil {
		log.WithError(err).Warn("SRD import failed")
		return
	}
	log.WithField("tags", count).Info("Imported SRD tags")
}

// watchOnDiscord mirrors both entities' notifications to the configured
// channel
func watchOnDiscord(cfg config.DiscordConfig, sc *scenario, log logrus.FieldLogger) {
	session, err := discord.NewSession(cfg.Token)
	if err != nil {
		log.WithError(err).Warn("Discord mirror disabled")
		return
	}

	notifier, err := discord.New(&discord.Config{
		Sender:    session,
		ChannelID: cfg.ChannelID,
		Logger:    log,
	})
	if err != nil {
		log.WithError(err).Warn("Discord mirror disabled")
		return
	}

	notifier.Watch(sc.hero, moveSpeed, health)
	notifier.Watch(sc.dummy, moveSpeed, health)
	log.WithField("channel_id", cfg.ChannelID).Info("Mirroring notifications to Discord")
}
