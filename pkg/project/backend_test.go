package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ghsql/internal/github"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name  string
		cfg   types.Config
		check func(t *testing.T, s types.Storage, err error)
	}{
		{
			name: "http transport",
			cfg: types.Config{
				Owner: "octo-org", ProjectNumber: 7,
				Transport: types.TransportHTTP, Endpoint: types.DefaultEndpoint, Token: "ghp_x",
			},
			check: func(t *testing.T, s types.Storage, err error) {
				require.NoError(t, err)
				assert.NotNil(t, s)
			},
		},
		{
			name: "gh transport needs no token",
			cfg:  types.Config{Owner: "octo-org", ProjectNumber: 7, Transport: types.TransportGH},
			check: func(t *testing.T, s types.Storage, err error) {
				require.NoError(t, err)
				assert.NotNil(t, s)
			},
		},
		{
			name: "missing token is rejected",
			cfg: types.Config{
				Owner: "octo-org", ProjectNumber: 7,
				Transport: types.TransportHTTP, Endpoint: types.DefaultEndpoint,
			},
			check: func(t *testing.T, s types.Storage, err error) {
				require.ErrorIs(t, err, types.ErrTokenEmpty)
				assert.Nil(t, s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewBackend(tt.cfg, nil)
			tt.check(t, s, err)
		})
	}
}

func TestNewTransport(t *testing.T) {
	gh := NewTransport(types.Config{Transport: types.TransportGH})
	assert.IsType(t, &github.GHTransport{}, gh)

	h := NewTransport(types.Config{Transport: types.TransportHTTP, Endpoint: "https://ghe.example.com/api/graphql", Token: "t"})
	ht, ok := h.(*github.HTTPTransport)
	require.True(t, ok)
	assert.Equal(t, "https://ghe.example.com/api/graphql", ht.Endpoint)
	assert.Equal(t, UserAgent, ht.UserAgent)
	assert.NotZero(t, ht.Client.Timeout)
}
