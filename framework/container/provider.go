package container

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related entries. Provides lists the ids the
// provider sets; Register sets them.
//
//	// Laravel:
//	// class MailServiceProvider extends ServiceProvider {
//	//     public function register(): void { $this->app->bind(Mailer::class, ...); }
//	// }
//
//	type MailServiceProvider struct{ container.BaseProvider }
//
//	func (p *MailServiceProvider) Provides() []string { return []string{"mailer"} }
//
//	func (p *MailServiceProvider) Register(c *container.Container) error {
//	    c.Set("mailer", NewMailer)
//	    return nil
//	}
type ServiceProvider interface {
	// Provides returns the ids this provider registers.
	//
	//	// Laravel: public function provides(): array { return [Mailer::class]; }
	Provides() []string

	// Register sets entries. Do not resolve other entries here; use Boot.
	Register(c *Container) error
}

// BootableProvider is a provider with work to do once every provider of the
// registry has been registered.
type BootableProvider interface {
	ServiceProvider
	Boot(c *Container) error
}

// DeferrableProvider is a provider registered lazily, the first time one of
// its Provides ids is resolved.
//
//	// Laravel: class MailServiceProvider extends ServiceProvider implements DeferrableProvider
type DeferrableProvider interface {
	ServiceProvider
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is embeddable and implements Provides, Boot and IsDeferred as
// no-ops.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(c *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// PriorityDeferred runs the deferred provider loader ahead of every other
// resolver.
const PriorityDeferred = 4096

// deferredEntry is the placeholder set for each id of a deferred provider.
type deferredEntry struct {
	provider ServiceProvider
}

// ProviderRegistry registers and boots providers, including deferred ones.
//
// It mirrors Laravel's Application::registerConfiguredProviders and
// Application::bootProviders.
type ProviderRegistry struct {
	c *Container

	mu         sync.Mutex
	eager      []ServiceProvider
	registered map[ServiceProvider]bool
	loads      map[ServiceProvider]*deferredLoad
	booted     bool
	loader     *ResolverFunc
}

type deferredLoad struct {
	once sync.Once
	err  error
}

// NewProviderRegistry creates a registry bound to c and installs the
// resolver loading deferred providers. It panics if the loader cannot be
// added, like MustNew.
func NewProviderRegistry(c *Container) *ProviderRegistry {
	r := &ProviderRegistry{
		c:          c,
		registered: make(map[ServiceProvider]bool),
		loads:      make(map[ServiceProvider]*deferredLoad),
	}
	r.loader = NewResolverFunc("deferred-providers", PriorityDeferred, r.resolveDeferred)
	if err := c.AddResolver(r.loader); err != nil {
		panic(err)
	}
	return r
}

// Register adds a provider. Eager providers are registered immediately, and
// booted too when the registry already booted. Registering the same provider
// twice is a no-op.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if d, ok := provider.(DeferrableProvider); ok && d.IsDeferred() {
		for _, id := range provider.Provides() {
			r.c.Set(id, &deferredEntry{provider: provider})
		}
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	return r.load(provider)
}

// load registers provider and boots it when the registry already booted.
func (r *ProviderRegistry) load(provider ServiceProvider) error {
	if err := r.c.Register(provider); err != nil {
		return err
	}
	r.c.log.Debug("provider registered", zap.String("provider", fmt.Sprintf("%T", provider)))

	r.mu.Lock()
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if booted {
		return boot(r.c, provider)
	}
	return nil
}

// resolveDeferred replaces a deferred placeholder with the entry its provider
// sets. Each deferred provider is loaded once, whichever of its ids comes
// first.
func (r *ProviderRegistry) resolveDeferred(c *Container, req *Request, value any) (any, error) {
	entry, ok := value.(*deferredEntry)
	if !ok {
		return value, nil
	}

	r.mu.Lock()
	l, ok := r.loads[entry.provider]
	if !ok {
		l = &deferredLoad{}
		r.loads[entry.provider] = l
	}
	r.mu.Unlock()

	l.once.Do(func() { l.err = r.load(entry.provider) })
	if l.err != nil {
		return nil, &NotFoundError{ID: req.Requested, Cause: l.err}
	}

	value = c.store.Get(req.ID)
	if _, still := value.(*deferredEntry); still {
		return nil, &NotFoundError{
			ID:    req.Requested,
			Cause: fmt.Errorf("deferred provider %T did not register [%s]", entry.provider, req.ID),
		}
	}
	return value, nil
}

// Boot boots every registered provider in registration order. It must be
// called once all providers are registered.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := boot(r.c, provider); err != nil {
			return err
		}
	}
	return nil
}

func boot(c *Container, provider ServiceProvider) error {
	b, ok := provider.(BootableProvider)
	if !ok {
		return nil
	}
	if err := b.Boot(c); err != nil {
		return fmt.Errorf("container: boot %T: %w", provider, err)
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the providers registered so far, in order. Deferred
// providers appear once they are loaded.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
