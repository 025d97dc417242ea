package container

import (
	"cmp"
	"slices"
	"sync"
)

type registration struct {
	resolver Resolver
	priority int
	seq      uint64
}

// ResolverChain is the priority-ordered registry of resolvers.
//
// Resolvers run by descending priority; equal priorities keep their
// registration order. Run folds over an immutable snapshot, so adding or
// removing a resolver only affects resolutions that start afterwards.
type ResolverChain struct {
	mu     sync.RWMutex
	sorted []registration
	seq    uint64
}

// NewResolverChain creates an empty chain.
func NewResolverChain() *ResolverChain {
	return &ResolverChain{}
}

// Add registers r with the given priority, or r.DefaultPriority() when
// priority is omitted. Adding an instance that is already registered
// returns a *DuplicateResolverError and leaves the chain unchanged.
func (ch *ResolverChain) Add(r Resolver, priority ...int) error {
	p := r.DefaultPriority()
	if len(priority) > 0 {
		p = priority[0]
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	for _, reg := range ch.sorted {
		if sameResolver(reg.resolver, r) {
			return &DuplicateResolverError{Resolver: describeResolver(r)}
		}
	}

	ch.seq++
	next := make([]registration, len(ch.sorted), len(ch.sorted)+1)
	copy(next, ch.sorted)
	next = append(next, registration{resolver: r, priority: p, seq: ch.seq})
	slices.SortStableFunc(next, func(a, b registration) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	ch.sorted = next
	return nil
}

// Remove unregisters r. It reports whether r was registered.
func (ch *ResolverChain) Remove(r Resolver) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	i := slices.IndexFunc(ch.sorted, func(reg registration) bool {
		return sameResolver(reg.resolver, r)
	})
	if i < 0 {
		return false
	}
	ch.sorted = slices.Delete(slices.Clone(ch.sorted), i, i+1)
	return true
}

// Len returns the number of registered resolvers.
func (ch *ResolverChain) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.sorted)
}

// Resolvers returns the registered resolvers in execution order.
func (ch *ResolverChain) Resolvers() []Resolver {
	snapshot := ch.snapshot()
	out := make([]Resolver, len(snapshot))
	for i, reg := range snapshot {
		out[i] = reg.resolver
	}
	return out
}

// Priority returns the priority r was registered with.
func (ch *ResolverChain) Priority(r Resolver) (int, bool) {
	for _, reg := range ch.snapshot() {
		if sameResolver(reg.resolver, r) {
			return reg.priority, true
		}
	}
	return 0, false
}

func (ch *ResolverChain) snapshot() []registration {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.sorted
}

// Run threads value through every resolver in priority order. The first
// error aborts the fold and is returned unchanged.
func (ch *ResolverChain) Run(c *Container, req *Request, value any) (any, error) {
	var err error
	for _, reg := range ch.snapshot() {
		value, err = reg.resolver.Resolve(c, req, value)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}
