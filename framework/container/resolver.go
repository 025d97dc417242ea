package container

import (
	"fmt"
	"reflect"
)

// Default priorities. Higher priorities run first.
const (
	PrioritySharedLookup = 2048
	PriorityLoadFirst    = 1024 // property injection
	PriorityClassName    = 512
	PriorityClosure      = 256
	PriorityParameter    = 128
	PriorityExtend       = 64
	PriorityLogger       = 32
	PriorityDefault      = 0
	PrioritySharedStore  = -512
	PriorityLoadLast     = -1024 // not found
)

// Request is the state of one pass through the resolver chain.
type Request struct {
	// ID is the canonical identifier, after the alias hop.
	ID string

	// Requested is the identifier as the caller asked for it.
	Requested string

	// Parameters are explicit arguments for the constructor or factory of ID.
	// They never leak into nested resolutions.
	Parameters Parameters

	// Fresh is set by Make: cached instances must not be served or recorded.
	Fresh bool

	// Cached is set by a resolver that replaced the value with a previously
	// resolved instance. Decorating resolvers skip such values.
	Cached bool
}

// Resolver is one stage of the resolution pipeline.
//
// Resolve receives the value produced so far (Absent when nothing has been
// produced) and returns the value handed to the next resolver. A resolver
// with nothing to do returns value unchanged.
type Resolver interface {
	Resolve(c *Container, req *Request, value any) (any, error)
	DefaultPriority() int
}

// ResolverFunc adapts a function to a named Resolver. It is always used
// through a pointer, which gives it an identity in the chain.
type ResolverFunc struct {
	Name     string
	Priority int
	Fn       func(c *Container, req *Request, value any) (any, error)
}

// NewResolverFunc wraps fn in a resolver with the given default priority.
func NewResolverFunc(name string, priority int, fn func(c *Container, req *Request, value any) (any, error)) *ResolverFunc {
	return &ResolverFunc{Name: name, Priority: priority, Fn: fn}
}

func (r *ResolverFunc) Resolve(c *Container, req *Request, value any) (any, error) {
	return r.Fn(c, req, value)
}

func (r *ResolverFunc) DefaultPriority() int { return r.Priority }

func (r *ResolverFunc) String() string { return r.Name }

// describeResolver names a resolver in errors and diagnostics.
func describeResolver(r Resolver) string {
	if s, ok := r.(fmt.Stringer); ok {
		return fmt.Sprintf("%T(%s)", r, s.String())
	}
	return fmt.Sprintf("%T", r)
}

// sameResolver compares resolver identities without panicking on
// non-comparable dynamic types.
func sameResolver(a, b Resolver) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Pointer:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
