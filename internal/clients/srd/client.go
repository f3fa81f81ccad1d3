package srd

import (
	"net/http"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"

	apperr "github.com/KirkDiggler/ability-system/internal/errors"
)

//go:generate mockgen -destination=mock/mock_client.go -package=mocksrd -source=client.go

// Reference is a keyed SRD entry
type Reference struct {
	Key  string
	Name string
}

// Client lists SRD reference entries
type Client interface {
	ListClasses() ([]*Reference, error)
	ListRaces() ([]*Reference, error)
}

type client struct {
	client dnd5e.Interface
}

// Config configures the SRD client
type Config struct {
	HttpClient *http.Client
}

// New creates a client backed by the D&D 5e SRD API
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, apperr.MissingParam("cfg")
	}

	dndClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client: cfg.HttpClient,
	})
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to create SRD client")
	}

	return &client{
		client: dndClient,
	}, nil
}

func (c *client) ListClasses() ([]*Reference, error) {
	response, err := c.client.ListClasses()
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to list classes")
	}

	return referencesFromAPI(response), nil
}

func (c *client) ListRaces() ([]*Reference, error) {
	response, err := c.client.ListRaces()
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to list races")
	}

	return referencesFromAPI(response), nil
}

func referencesFromAPI(input []*apiEntities.ReferenceItem) []*Reference {
	output := make([]*Reference, 0, len(input))
	for _, item := range input {
		if item == nil {
			continue
		}
		output = append(output, &Reference{Key: item.Key, Name: item.Name})
	}
	return output
}
