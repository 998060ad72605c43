package types

import (
	"errors"
	"fmt"
)

// Config identifies the remote project and how to reach it.
type Config struct {
	Owner         string `json:"owner" yaml:"owner"`
	ProjectNumber int    `json:"project_number" yaml:"project_number"`
	Transport     string `json:"transport" yaml:"transport"`
	Endpoint      string `json:"endpoint" yaml:"endpoint"`
	Token         string `json:"-" yaml:"-"`

	// MaxPages caps the number of item pages fetched per cache fill.
	// Zero means unlimited.
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// Supported transports.
const (
	TransportHTTP = "http"
	TransportGH   = "gh"
)

// DefaultEndpoint is the public GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// Config validation errors.
var (
	ErrOwnerEmpty           = errors.New("owner must not be empty")
	ErrProjectNumberInvalid = errors.New("project number must be positive")
	ErrTransportUnknown     = errors.New("unknown transport")
	ErrEndpointEmpty        = errors.New("endpoint must not be empty")
	ErrTokenEmpty           = errors.New("token must not be empty for the http transport")
	ErrMaxPagesInvalid      = errors.New("max pages must not be negative")
)

// knownTransports lists the transports that Validate accepts.
var knownTransports = map[string]bool{
	TransportHTTP: true,
	TransportGH:   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Owner == "" {
		return ErrOwnerEmpty
	}
	if c.ProjectNumber <= 0 {
		return fmt.Errorf("%w: %d", ErrProjectNumberInvalid, c.ProjectNumber)
	}
	if !knownTransports[c.Transport] {
		return fmt.Errorf("%w: %q", ErrTransportUnknown, c.Transport)
	}
	if c.MaxPages < 0 {
		return ErrMaxPagesInvalid
	}
	if c.Transport == TransportHTTP {
		if c.Endpoint == "" {
			return ErrEndpointEmpty
		}
		if c.Token == "" {
			return ErrTokenEmpty
		}
	}
	return nil
}
