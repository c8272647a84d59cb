package elastiq

import (
	"sync"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/elastiq/elastiq/cachestore"
)

// Resolver resolves a named connection to a Client.
type Resolver interface {
	Resolve(name string) (Client, error)
}

// Manager resolves named connections to clients and named drivers to cache
// stores. Clients are constructed lazily and memoized; Manager is safe for
// concurrent use.
type Manager struct {
	cfg *Config

	mu      sync.Mutex
	clients map[string]Client
	stores  map[string]cachestore.Store
}

// NewManager creates a Manager over the given configuration.
func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Manager{
		cfg:     cfg,
		clients: make(map[string]Client),
		stores:  make(map[string]cachestore.Store),
	}
}

// RegisterClient binds a pre-built client under a connection name, taking
// precedence over configuration-driven construction. Useful for tests and
// custom transports.
func (m *Manager) RegisterClient(name string, client Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[name] = client
}

// RegisterStore binds a cache store under a driver name.
func (m *Manager) RegisterStore(name string, store cachestore.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[name] = store
}

// Resolve returns the client for the named connection, constructing it from
// configuration on first use. An empty name resolves the default connection.
func (m *Manager) Resolve(name string) (Client, error) {
	if name == "" {
		name = m.cfg.DefaultConnection
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[name]; ok {
		return client, nil
	}

	conn, ok := m.cfg.Connections[name]
	if !ok {
		return nil, newConfigError(ErrUnknownConnection, "connection %q is not configured", name)
	}

	client, err := NewESClient(elasticsearch.Config{
		Addresses: conn.Addresses,
		Username:  conn.Username,
		Password:  conn.Password,
		CloudID:   conn.CloudID,
		APIKey:    conn.APIKey,
	})
	if err != nil {
		return nil, err
	}

	m.clients[name] = client
	return client, nil
}

// Store returns the cache store registered under the driver name.
func (m *Manager) Store(name string) (cachestore.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[name]; ok {
		return store, nil
	}
	return nil, newConfigError(ErrNoCacheStore, "cache store %q is not registered", name)
}

// Query returns a QueryBuilder bound to the default connection.
func (m *Manager) Query() (*QueryBuilder, error) {
	client, err := m.Resolve("")
	if err != nil {
		return nil, err
	}
	return &QueryBuilder{client: client, manager: m}, nil
}

// QueryOn returns a QueryBuilder bound to the named connection.
func (m *Manager) QueryOn(name string) (*QueryBuilder, error) {
	client, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	return &QueryBuilder{client: client, manager: m}, nil
}

// Multi returns a MultiQueryBuilder bound to the default connection.
func (m *Manager) Multi() (*MultiQueryBuilder, error) {
	return m.MultiOn("")
}

// MultiOn returns a MultiQueryBuilder bound to the named connection.
func (m *Manager) MultiOn(name string) (*MultiQueryBuilder, error) {
	client, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	return &MultiQueryBuilder{
		client:  client,
		manager: m,
		entries: make(map[string]*QueryBuilder),
	}, nil
}
