// Package srd imports tag trees from the D&D 5e System Reference Document
// API, so classes and races can gate abilities and effects.
package srd

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	apperr "github.com/KirkDiggler/ability-system/internal/errors"
	"github.com/KirkDiggler/ability-system/internal/tags"
)

// Tag roots created by the importer
const (
	ClassRoot = "Class"
	RaceRoot  = "Race"
)

// ImporterConfig configures an Importer
type ImporterConfig struct {
	Client Client
	Logger logrus.FieldLogger
}

// Importer adds SRD entries to a tag collection
type Importer struct {
	client Client
	log    logrus.FieldLogger
}

// NewImporter creates an importer
func NewImporter(cfg *ImporterConfig) (*Importer, error) {
	if cfg == nil {
		return nil, apperr.MissingParam("cfg")
	}
	if cfg.Client == nil {
		return nil, apperr.MissingParam("cfg.Client")
	}

	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Importer{client: cfg.Client, log: log}, nil
}

// ImportClasses adds Class.<key> for every SRD class
func (i *Importer) ImportClasses(col *tags.Collection) ([]*tags.Tag, error) {
	refs, err := i.client.ListClasses()
	if err != nil {
		return nil, err
	}
	return i.ensure(col, ClassRoot, refs)
}

// ImportRaces adds Race.<key> for every SRD race
func (i *Importer) ImportRaces(col *tags.Collection) ([]*tags.Tag, error) {
	refs, err := i.client.ListRaces()
	if err != nil {
		return nil, err
	}
	return i.ensure(col, RaceRoot, refs)
}

// Import runs every import and returns the number of tags ensured
func (i *Importer) Import(col *tags.Collection) (int, error) {
	classes, err := i.ImportClasses(col)
	if err != nil {
		return 0, err
	}

	races, err := i.ImportRaces(col)
	if err != nil {
		return len(classes), err
	}

	return len(classes) + len(races), nil
}

func (i *Importer) ensure(col *tags.Collection, root string, refs []*Reference) ([]*tags.Tag, error) {
	if col == nil {
		return nil, apperr.MissingParam("col")
	}

	imported := make([]*tags.Tag, 0, len(refs))
	for _, ref := range refs {
		key := tagName(ref.Key)
		if key == "" {
			i.log.WithField("name", ref.Name).Warn("[SRD] skipping entry without key")
			continue
		}

		tag, err := col.Ensure(root + tags.Separator + key)
		if err != nil {
			return imported, apperr.Wrapf(err, "failed to import %s %q", strings.ToLower(root), ref.Key)
		}
		imported = append(imported, tag)
	}

	i.log.WithFields(logrus.Fields{
		"root":  root,
		"count": len(imported),
	}).Info("[SRD] imported tags")

	return imported, nil
}

// tagName turns an SRD key into a single tag segment
func tagName(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), tags.Separator, "-")
}
