package container

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultSharedCleanupInterval is how often expired shared instances are purged.
const DefaultSharedCleanupInterval = 10 * time.Minute

// Shared caches resolved values so later Get calls return the same instance.
//
// Caching is not part of the container: it is a pair of resolvers placed at
// both ends of the chain. Lookup serves a cached instance and marks the
// request Cached so decorating resolvers leave it alone; Store records what
// the chain produced. Make bypasses both.
//
//	// Laravel: $app->singleton(Mailer::class, ...)
//	c.Set("mailer", NewMailer)
//	c.Share(0, "mailer")
type Shared struct {
	ids   map[string]bool
	ttl   time.Duration
	cache *gocache.Cache

	lookup *sharedLookup
	store  *sharedStore
}

// NewShared caches ids (every id when none is given). A ttl of zero keeps
// instances until they are forgotten.
func NewShared(ttl time.Duration, ids ...string) *Shared {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s := &Shared{
		ids:   make(map[string]bool, len(ids)),
		ttl:   ttl,
		cache: gocache.New(ttl, DefaultSharedCleanupInterval),
	}
	for _, id := range ids {
		s.ids[id] = true
	}
	s.lookup = &sharedLookup{s}
	s.store = &sharedStore{s}
	return s
}

// Lookup returns the resolver serving cached instances.
func (s *Shared) Lookup() Resolver { return s.lookup }

// Store returns the resolver recording resolved instances.
func (s *Shared) Store() Resolver { return s.store }

// Install adds both resolvers to c at their default priorities.
func (s *Shared) Install(c *Container) error {
	if err := c.AddResolver(s.lookup); err != nil {
		return err
	}
	if err := c.AddResolver(s.store); err != nil {
		c.RemoveResolver(s.lookup)
		return err
	}
	return nil
}

// Uninstall removes both resolvers from c.
func (s *Shared) Uninstall(c *Container) {
	c.RemoveResolver(s.lookup)
	c.RemoveResolver(s.store)
}

// Shares reports whether id is cached by s.
func (s *Shared) Shares(id string) bool {
	return len(s.ids) == 0 || s.ids[id]
}

// Forget drops the cached instance of id.
func (s *Shared) Forget(id string) {
	s.cache.Delete(id)
}

// Flush drops every cached instance.
func (s *Shared) Flush() {
	s.cache.Flush()
}

// Len returns the number of cached instances.
func (s *Shared) Len() int {
	return s.cache.ItemCount()
}

type sharedLookup struct{ s *Shared }

func (r *sharedLookup) DefaultPriority() int { return PrioritySharedLookup }

func (r *sharedLookup) Resolve(c *Container, req *Request, value any) (any, error) {
	if req.Fresh || !r.s.Shares(req.ID) {
		return value, nil
	}
	cached, ok := r.s.cache.Get(req.ID)
	if !ok {
		return value, nil
	}
	c.log.Debug("shared instance served", zap.String("id", req.Requested))
	req.Cached = true
	return cached, nil
}

type sharedStore struct{ s *Shared }

func (r *sharedStore) DefaultPriority() int { return PrioritySharedStore }

func (r *sharedStore) Resolve(_ *Container, req *Request, value any) (any, error) {
	if req.Fresh || req.Cached || IsAbsent(value) || !r.s.Shares(req.ID) {
		return value, nil
	}
	r.s.cache.Set(req.ID, value, gocache.DefaultExpiration)
	return value, nil
}
