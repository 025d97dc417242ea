package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalls     int
}

func (p *eagerProvider) Provides() []string { return []string{"eager-svc"} }

func (p *eagerProvider) Register(c *container.Container) error {
	p.registerCalls++
	c.Set("eager-svc", func() string { return "eager" })
	return nil
}

func (p *eagerProvider) Boot(_ *container.Container) error {
	p.bootCalls++
	return nil
}

// deferredProvider is registered the first time one of its ids is resolved.
type deferredProvider struct {
	container.BaseProvider
	registerCalls int
	bootCalls     int
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc", "deferred-other"} }

func (p *deferredProvider) Register(c *container.Container) error {
	p.registerCalls++
	c.Set("deferred-svc", func() string { return "deferred-value" })
	c.Set("deferred-other", 42)
	return nil
}

func (p *deferredProvider) Boot(_ *container.Container) error {
	p.bootCalls++
	return nil
}

// lyingProvider claims an id it never sets.
type lyingProvider struct{ container.BaseProvider }

func (p *lyingProvider) IsDeferred() bool                    { return true }
func (p *lyingProvider) Provides() []string                  { return []string{"ghost"} }
func (p *lyingProvider) Register(_ *container.Container) error { return nil }

type failingProvider struct{ container.BaseProvider }

var errProviderBroken = errors.New("provider broken")

func (p *failingProvider) Register(_ *container.Container) error { return errProviderBroken }

// multiProvider registers multiple ids.
type multiProvider struct{ container.BaseProvider }

func (p *multiProvider) Register(c *container.Container) error {
	c.Set("alpha", "α")
	c.Set("beta", "β")
	return nil
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisteredImmediately(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.registerCalls)
	assert.Zero(t, p.bootCalls, "Boot must wait for registry.Boot()")

	require.NoError(t, reg.Boot())
	assert.Equal(t, 1, p.bootCalls)
}

func TestRegistry_EagerProvider_ServiceResolvable(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	got, err := container.Resolve[string](c, "eager-svc")
	require.NoError(t, err)
	assert.Equal(t, "eager", got)
}

func TestRegistry_Boot_Idempotent(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)
	assert.False(t, reg.Booted())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())
	require.NoError(t, reg.Boot())

	assert.True(t, reg.Booted())
	assert.Equal(t, 1, p.bootCalls)
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.registerCalls)
	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_RegisterError_Wrapped(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)

	err := reg.Register(&failingProvider{})
	require.ErrorIs(t, err, errProviderBroken)
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProvider_NotRegisteredEagerly(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	assert.Zero(t, p.registerCalls)
	assert.True(t, c.Has("deferred-svc"), "deferred ids are visible before loading")
	assert.Empty(t, reg.Providers())
}

func TestRegistry_DeferredProvider_LoadedOnFirstGet(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	require.NoError(t, reg.Register(p))
	require.NoError(t, reg.Boot())

	got, err := c.Get("deferred-svc")
	require.NoError(t, err)
	assert.Equal(t, "deferred-value", got)

	other, err := c.Get("deferred-other")
	require.NoError(t, err)
	assert.Equal(t, 42, other)

	assert.Equal(t, 1, p.registerCalls, "one load for all provided ids")
	assert.Equal(t, 1, p.bootCalls, "booted on load since the registry already booted")
	assert.Len(t, reg.Providers(), 1)
}

func TestRegistry_DeferredProvider_MissingEntryIsNotFound(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&lyingProvider{}))

	_, err := c.Get("ghost")

	var nf *container.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.ID)
	assert.Error(t, nf.Cause)
}

// ── Multiple providers ────────────────────────────────────────────────────────

func TestRegistry_MultipleProviders_AllServicesResolvable(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&multiProvider{}))
	require.NoError(t, reg.Register(&eagerProvider{}))
	require.NoError(t, reg.Boot())

	for id, want := range map[string]string{"alpha": "α", "beta": "β", "eager-svc": "eager"} {
		got, err := container.Resolve[string](c, id)
		require.NoError(t, err, id)
		assert.Equal(t, want, got, id)
	}
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider

	assert.NoError(t, p.Boot(container.MustNew()))
	assert.False(t, p.IsDeferred())
	assert.Empty(t, p.Provides())
}

// ── Boot after registration (late provider) ───────────────────────────────────

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	c := container.MustNew()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Boot())

	p := &eagerProvider{}
	require.NoError(t, reg.Register(p))

	assert.Equal(t, 1, p.bootCalls)
}

// ── Container.Register ────────────────────────────────────────────────────────

func TestContainer_Register_CallsProvider(t *testing.T) {
	c := container.MustNew()
	require.NoError(t, c.Register(&multiProvider{}))

	assert.True(t, c.Has("alpha"))
	assert.ErrorIs(t, c.Register(&failingProvider{}), errProviderBroken)
}

func TestNewProviderRegistry_InstallsDeferredLoader(t *testing.T) {
	c := container.MustNew()
	before := c.Chain().Len()

	var reg *container.ProviderRegistry
	require.NotPanics(t, func() { reg = container.NewProviderRegistry(c) })
	require.NotNil(t, reg)
	assert.Equal(t, before+1, c.Chain().Len())

	first := c.Resolvers()[0]
	assert.Equal(t, "deferred-providers", first.(*container.ResolverFunc).String())
	p, ok := c.Chain().Priority(first)
	require.True(t, ok)
	assert.Equal(t, container.PriorityDeferred, p)
}
