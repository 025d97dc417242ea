package container

import (
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Well-known entry ids.
const (
	// ContainerID resolves to the container itself.
	ContainerID = "container"

	// LoggerID is the entry injected into LoggerAware values.
	LoggerID = "logger"
)

// Factory builds a value from the container. Any func taking nothing or a
// single *Container is treated the same way by the ClosureResolver; Factory
// only names the common shape.
type Factory func(c *Container) (any, error)

// Extender decorates a resolved value.
type Extender func(value any, c *Container) (any, error)

// ── Container ─────────────────────────────────────────────────────────────────

// Container stores raw definitions and resolves them through a
// priority-ordered chain of resolvers.
//
// Entries are not singletons: every Get runs the full chain unless a
// resolver caches (see Share). Resolution is synchronous and re-entrant,
// and concurrent Get calls are safe once registration is done.
type Container struct {
	id    string
	store *EntryStore
	chain *ResolverChain
	types *typeTable
	log   *zap.Logger

	mu sync.RWMutex

	// tag → []id
	tags map[string][]string

	// id → decorators, in registration order
	extenders map[string][]Extender
}

// Option configures a Container.
type Option func(*Container) error

// WithLogger sets the diagnostic sink and registers logger as the LoggerID
// entry injected into LoggerAware values.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) error {
		if logger == nil {
			return fmt.Errorf("container: nil logger")
		}
		c.log = logger.With(zap.String("container", c.id))
		c.store.Set(LoggerID, logger)
		return nil
	}
}

// WithResolvers replaces the default resolver set. Each resolver is added
// with its default priority.
func WithResolvers(resolvers ...Resolver) Option {
	return func(c *Container) error {
		c.chain = NewResolverChain()
		for _, r := range resolvers {
			if err := c.chain.Add(r); err != nil {
				return err
			}
		}
		return nil
	}
}

// DefaultResolvers returns a fresh instance of every built-in resolver.
func DefaultResolvers() []Resolver {
	return []Resolver{
		NewPropertyInjectionResolver(),
		&ClassNameResolver{},
		&ClosureResolver{},
		&ParameterResolver{},
		&ExtendResolver{},
		&LoggerInjectionResolver{},
		&NotFoundResolver{},
	}
}

// New creates a container with the default resolvers. The container is
// bound to itself as ContainerID and under its own TypeKey.
func New(opts ...Option) (*Container, error) {
	c := &Container{
		id:        uuid.NewString(),
		store:     NewEntryStore(),
		chain:     NewResolverChain(),
		types:     newTypeTable(),
		log:       zap.NewNop(),
		tags:      make(map[string][]string),
		extenders: make(map[string][]Extender),
	}
	for _, r := range DefaultResolvers() {
		if err := c.chain.Add(r); err != nil {
			return nil, err
		}
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	// Laravel: $this->instance('app', $this)
	c.store.Set(ContainerID, c)
	c.store.Alias(ContainerID, KeyOf[*Container]())
	return c, nil
}

// MustNew is New for static setups that cannot fail.
func MustNew(opts ...Option) *Container {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the unique id of this container instance.
func (c *Container) ID() string { return c.id }

// Logger returns the diagnostic logger.
func (c *Container) Logger() *zap.Logger { return c.log }

// ── Registration ──────────────────────────────────────────────────────────────

// Set stores a definition: a value, a factory, any func, a *Function or the
// name of a defined type.
//
//	c.Set("name", "demo")
//	c.Set("mailer", func(c *container.Container) (any, error) { return NewMailer(), nil })
//	c.Set("transport", "SMTPTransport")
func (c *Container) Set(id string, definition any) {
	c.store.Set(id, definition)
}

// SetMany stores every pair in iteration order; later duplicates win.
func (c *Container) SetMany(entries iter.Seq2[string, any]) {
	c.store.SetMany(entries)
}

// Alias makes each alias resolve to target. Aliases are a single hop.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("Cache", "cache")
func (c *Container) Alias(target string, aliases ...string) {
	c.store.Alias(target, aliases...)
}

// Unset removes an entry.
func (c *Container) Unset(id string) {
	c.store.Unset(id)
	c.mu.Lock()
	delete(c.extenders, id)
	c.mu.Unlock()
}

// IDs returns the explicitly registered ids (for debugging).
func (c *Container) IDs() []string {
	return c.store.IDs()
}

// Define registers type descriptors so their names can be auto-wired.
func (c *Container) Define(descriptors ...*Descriptor) error {
	for _, d := range descriptors {
		if err := c.types.define(d); err != nil {
			return err
		}
	}
	return nil
}

// Descriptor returns the descriptor registered under name.
func (c *Container) Descriptor(name string) (*Descriptor, bool) {
	return c.types.lookup(name)
}

// Register hands the container to a service provider.
func (c *Container) Register(provider ServiceProvider) error {
	if err := provider.Register(c); err != nil {
		return fmt.Errorf("container: provider %T: %w", provider, err)
	}
	return nil
}

// AddResolver adds r to the chain with priority, or its default priority.
func (c *Container) AddResolver(r Resolver, priority ...int) error {
	return c.chain.Add(r, priority...)
}

// RemoveResolver removes r from the chain.
func (c *Container) RemoveResolver(r Resolver) bool {
	return c.chain.Remove(r)
}

// Resolvers returns the resolvers in execution order.
func (c *Container) Resolvers() []Resolver {
	return c.chain.Resolvers()
}

// Chain exposes the resolver chain.
func (c *Container) Chain() *ResolverChain {
	return c.chain
}

// Share installs a Shared resolver pair caching ids (every id when none is
// given) for ttl; a ttl of zero never expires.
func (c *Container) Share(ttl time.Duration, ids ...string) (*Shared, error) {
	s := NewShared(ttl, ids...)
	if err := s.Install(c); err != nil {
		return nil, err
	}
	return s, nil
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag groups ids under a tag.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag("reports", "CpuReport", "MemoryReport")
func (c *Container) Tag(tag string, ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], ids...)
}

// Tagged resolves every id under tag, in tagging order.
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.RLock()
	ids := append([]string(nil), c.tags[tag]...)
	c.mu.RUnlock()

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		v, err := c.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates every value resolved for id.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(v any, c *container.Container) (any, error) {
//	    return &TimestampLogger{Inner: v.(Logger)}, nil
//	})
func (c *Container) Extend(id string, fn Extender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extenders[id] = append(c.extenders[id], fn)
}

func (c *Container) extendersOf(id string) []Extender {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.extenders[id]
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves id through the resolver chain.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Get("UserRepository")
func (c *Container) Get(id string) (any, error) {
	return c.resolve(&Request{Requested: id})
}

// Make resolves id with explicit constructor parameters, bypassing any
// cached shared instance.
//
//	m, err := c.Make("Mailer", container.Parameters{"from": "ops@example.com"})
func (c *Container) Make(id string, params Parameters) (any, error) {
	return c.resolve(&Request{Requested: id, Parameters: params, Fresh: true})
}

func (c *Container) resolve(req *Request) (any, error) {
	req.ID = c.store.Canonical(req.Requested)

	value, err := c.chain.Run(c, req, c.store.Get(req.ID))
	if err != nil {
		return nil, boundary(req.Requested, err)
	}
	return value, nil
}

// Has reports whether id can be resolved: it has an entry, or it names an
// instantiable type.
func (c *Container) Has(id string) bool {
	if c.store.Has(id) {
		return true
	}
	return c.types.instantiable(c.store.Canonical(id))
}

// Call invokes callable with its parameters resolved from the container;
// explicit params take precedence. callable is a func, a *Function, or the
// id of an entry holding one (the entry is read, not resolved, since
// resolving would invoke it). Errors returned by the callable itself are
// returned unchanged.
//
//	// Laravel: $app->call([$controller, 'show'], ['id' => 1])
//	out, err := c.Call(container.MustFunc(show, container.Param("id")), container.Parameters{"id": 1})
func (c *Container) Call(callable any, params Parameters) (any, error) {
	if id, ok := callable.(string); ok {
		callable = c.store.Lookup(id)
		if IsAbsent(callable) {
			return nil, &NotFoundError{ID: id}
		}
	}
	f, err := Func(callable)
	if err != nil {
		return nil, err
	}
	args, err := c.arguments("", f, params)
	if err != nil {
		return nil, boundary(f.name, err)
	}
	return f.call(args)
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve calls Get and type-asserts the result.
//
//	// Instead of: v, err := c.Get("db"); db := v.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	v, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%T]: [%s] resolved to %T", zero, id, v)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](c *Container, id string) T {
	v, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return v
}
