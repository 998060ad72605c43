// Package project provides the public API for the GitHub Projects storage
// backend. It wires the configured transport and client to the adapter
// while keeping implementation details internal.
package project

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ghsql/internal/github"
	"github.com/mesh-intelligence/ghsql/internal/project"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// UserAgent is sent with every HTTP request.
var UserAgent = "ghsql"

// requestTimeout bounds a single HTTP round trip.
const requestTimeout = 60 * time.Second

// NewBackend validates cfg and returns a storage backend for the project it
// names. Nothing is fetched until the first call.
//
// Example:
//
//	storage, err := project.NewBackend(types.Config{
//	    Owner:         "octo-org",
//	    ProjectNumber: 7,
//	    Transport:     types.TransportGH,
//	}, log)
func NewBackend(cfg types.Config, log *zap.SugaredLogger) (types.Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	client := github.NewClient(NewTransport(cfg), log.Named("github"))
	return project.NewBackend(cfg, client, log.Named("project")), nil
}

// NewTransport returns the transport selected by cfg.Transport. cfg must be
// valid.
func NewTransport(cfg types.Config) github.Transport {
	if cfg.Transport == types.TransportGH {
		return &github.GHTransport{}
	}
	return &github.HTTPTransport{
		Endpoint:  cfg.Endpoint,
		Token:     cfg.Token,
		UserAgent: UserAgent,
		Client:    &http.Client{Timeout: requestTimeout},
	}
}
