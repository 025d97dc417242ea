package providers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/framework/config"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/providers"
	"github.com/km-arc/go-resolver/framework/routing"
)

type session struct{ n int }

func newRegistry(t *testing.T) (*container.Container, *container.ProviderRegistry) {
	t.Helper()
	c := container.MustNew()
	return c, container.NewProviderRegistry(c)
}

// ── Config ───────────────────────────────────────────────────────────────────

func TestConfigServiceProvider(t *testing.T) {
	c, reg := newRegistry(t)
	cfg := &config.Config{App: config.AppConfig{Name: "demo", Env: "testing"}}
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: cfg}))

	for _, id := range []string{"config", "configuration", container.KeyOf[*config.Config]()} {
		got, err := container.Resolve[*config.Config](c, id)
		require.NoError(t, err, id)
		assert.Same(t, cfg, got, id)
	}

	name, err := c.Call(func(cfg *config.Config) string { return cfg.App.Name }, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", name, "typed parameters receive the bound config")
}

func TestConfigServiceProvider_LoadsEnvFiles(t *testing.T) {
	t.Setenv("APP_NAME", "FromEnv")
	c, reg := newRegistry(t)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{EnvFiles: []string{"testdata/app.env"}}))

	cfg, err := container.Resolve[*config.Config](c, "config")
	require.NoError(t, err)
	assert.Equal(t, "FromEnv", cfg.App.Name)
}

// ── Env ──────────────────────────────────────────────────────────────────────

func TestEnvServiceProvider(t *testing.T) {
	c, reg := newRegistry(t)
	require.NoError(t, reg.Register(&providers.EnvServiceProvider{Files: []string{"testdata/app.env"}}))

	from, err := container.Resolve[string](c, "env.MAIL_FROM")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", from)
	assert.True(t, c.Has("env.MAIL_PORT"))
}

func TestEnvServiceProvider_MissingFile(t *testing.T) {
	_, reg := newRegistry(t)
	err := reg.Register(&providers.EnvServiceProvider{Files: []string{"testdata/missing.env"}})
	assert.ErrorContains(t, err, "env provider")
}

// ── Definitions ──────────────────────────────────────────────────────────────

func TestDefinitionsServiceProvider(t *testing.T) {
	c, reg := newRegistry(t)
	before := c.Chain().Len()
	p := &providers.DefinitionsServiceProvider{Path: "testdata/container.yaml"}
	require.NoError(t, reg.Register(p))

	name, err := container.Resolve[string](c, "name")
	require.NoError(t, err)
	assert.Equal(t, "demo", name)

	tagged, err := c.Tagged("mail")
	require.NoError(t, err)
	assert.Equal(t, []any{"ops@example.com"}, tagged)

	assert.Equal(t, []string{"app.name", "mail.from", "features"}, p.Provides())
	assert.Equal(t, before+2, c.Chain().Len(), "shared ids install a shared resolver pair")
}

func TestDefinitionsServiceProvider_NoPath(t *testing.T) {
	c, reg := newRegistry(t)
	before := c.IDs()
	p := &providers.DefinitionsServiceProvider{}
	require.NoError(t, reg.Register(p))
	assert.Equal(t, before, c.IDs())
	assert.Empty(t, p.Provides())
}

func TestDefinitionsServiceProvider_MissingFile(t *testing.T) {
	_, reg := newRegistry(t)
	err := reg.Register(&providers.DefinitionsServiceProvider{Path: "testdata/missing.yaml"})
	assert.Error(t, err)
}

// ── Shared ───────────────────────────────────────────────────────────────────

func TestSharedServiceProvider(t *testing.T) {
	c, reg := newRegistry(t)
	c.Set("session", func() *session { return &session{} })
	c.Set("scratch", func() *session { return &session{} })
	require.NoError(t, reg.Register(&providers.SharedServiceProvider{IDs: []string{"session"}}))

	a, _ := c.Get("session")
	b, _ := c.Get("session")
	assert.Same(t, a, b)

	x, _ := c.Get("scratch")
	y, _ := c.Get("scratch")
	assert.NotSame(t, x, y)

	shared, err := container.Resolve[*container.Shared](c, "container.shared")
	require.NoError(t, err)
	shared.Forget("session")
	again, _ := c.Get("session")
	assert.NotSame(t, a, again)
}

func TestSharedServiceProvider_Wildcard(t *testing.T) {
	c, reg := newRegistry(t)
	c.Set("scratch", func() *session { return &session{} })
	require.NoError(t, reg.Register(&providers.SharedServiceProvider{IDs: []string{"*"}}))

	x, _ := c.Get("scratch")
	y, _ := c.Get("scratch")
	assert.Same(t, x, y)
}

func TestSharedServiceProvider_NoIDs(t *testing.T) {
	c, reg := newRegistry(t)
	before := c.Chain().Len()
	require.NoError(t, reg.Register(&providers.SharedServiceProvider{}))
	assert.Equal(t, before, c.Chain().Len())
	assert.False(t, c.Has("container.shared"))
}

// ── Routing ──────────────────────────────────────────────────────────────────

func TestRoutingServiceProvider_IsDeferred(t *testing.T) {
	c, reg := newRegistry(t)
	p := &providers.RoutingServiceProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())
	assert.NotContains(t, reg.Providers(), container.ServiceProvider(p), "not loaded before first use")

	router, err := container.Resolve[*routing.Router](c, "router")
	require.NoError(t, err)

	typed, err := container.Resolve[*routing.Router](c, container.KeyOf[*routing.Router]())
	require.NoError(t, err)
	assert.Same(t, router, typed)

	again, err := container.Resolve[*routing.Router](c, "router")
	require.NoError(t, err)
	assert.Same(t, router, again)
	assert.Contains(t, reg.Providers(), container.ServiceProvider(p))
}
