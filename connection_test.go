package elastiq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerResolveRegisteredClient(t *testing.T) {
	client := &fakeClient{}
	manager := NewManager(&Config{DefaultConnection: "default"})
	manager.RegisterClient("default", client)

	got, err := manager.Resolve("")
	require.NoError(t, err)
	assert.Same(t, Client(client), got)

	got, err = manager.Resolve("default")
	require.NoError(t, err)
	assert.Same(t, Client(client), got)
}

func TestManagerResolveUnknownConnection(t *testing.T) {
	manager := NewManager(&Config{DefaultConnection: "default"})

	_, err := manager.Resolve("reporting")
	require.Error(t, err)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrUnknownConnection, ce.Code)
	assert.Contains(t, ce.Message, "reporting")
}

func TestManagerResolveBuildsFromConfigAndMemoizes(t *testing.T) {
	manager := NewManager(&Config{
		DefaultConnection: "default",
		Connections: map[string]ConnectionConfig{
			"default": {Addresses: []string{"http://localhost:9200"}},
		},
	})

	first, err := manager.Resolve("default")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := manager.Resolve("default")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestManagerStoreUnregistered(t *testing.T) {
	manager := NewManager(nil)

	_, err := manager.Store("redis")
	require.Error(t, err)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrNoCacheStore, ce.Code)
}

func TestManagerQueryBindsDefaultConnection(t *testing.T) {
	client := &fakeClient{}
	manager := NewManager(&Config{DefaultConnection: "default"})
	manager.RegisterClient("default", client)

	qb, err := manager.Query()
	require.NoError(t, err)
	assert.Same(t, Client(client), qb.client)

	mb, err := manager.Multi()
	require.NoError(t, err)
	assert.Same(t, Client(client), mb.client)
}

func TestManagerQueryOnUnknownConnection(t *testing.T) {
	manager := NewManager(&Config{DefaultConnection: "default"})
	_, err := manager.QueryOn("missing")
	assert.Error(t, err)
}
