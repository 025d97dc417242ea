package container

import (
	"reflect"
	"strings"
	"sync"
)

// Descriptor declares a type the container may instantiate by name.
//
// Go cannot look a type up from its name at runtime, so instantiable types
// are registered up front:
//
//	c.Define(
//	    container.TypeOf[*SMTPTransport](),
//	    container.TypeOf[*Mailer]().Constructor(NewMailer,
//	        container.Param("transport").Hint("SMTPTransport|NullTransport")),
//	    container.TypeOf[Transport]().Named("transport"), // interface: resolvable only via entries
//	)
type Descriptor struct {
	name string
	typ  reflect.Type
	ctor *Function
	err  error
}

// TypeOf starts a descriptor for T named after TypeKey.
func TypeOf[T any]() *Descriptor {
	t := reflect.TypeFor[T]()
	return &Descriptor{name: typeKey(t), typ: t}
}

// Named overrides the identifier the type is registered under.
func (d *Descriptor) Named(name string) *Descriptor {
	d.name = name
	return d
}

// Constructor sets the function used to build the type. Its parameters are
// resolved through the container; it must return the type (and optionally
// an error).
func (d *Descriptor) Constructor(fn any, params ...*ParamSpec) *Descriptor {
	f, err := Func(fn, params...)
	if err != nil {
		d.err = err
		return d
	}
	if f.result == nil || !f.result.AssignableTo(d.typ) {
		d.err = &DefinitionError{Name: d.name, Reason: "constructor " + f.name + " does not return " + d.typ.String()}
		return d
	}
	d.ctor = f
	return d
}

// Name returns the identifier of the descriptor.
func (d *Descriptor) Name() string { return d.name }

// Type returns the Go type built by the descriptor.
func (d *Descriptor) Type() reflect.Type { return d.typ }

// Instantiable reports whether the container can build the type on its own.
func (d *Descriptor) Instantiable() bool {
	if d.ctor != nil {
		return true
	}
	t := d.typ
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// typeTable indexes descriptors by name and by Go type.
type typeTable struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
	byType map[reflect.Type]string
}

func newTypeTable() *typeTable {
	return &typeTable{
		byName: make(map[string]*Descriptor),
		byType: make(map[reflect.Type]string),
	}
}

func (tt *typeTable) define(d *Descriptor) error {
	if d.err != nil {
		return d.err
	}
	if d.name == "" {
		return &DefinitionError{Name: d.typ.String(), Reason: "empty name"}
	}
	if isBuiltin(d.name) || isSelfReference(d.name) {
		return &DefinitionError{Name: d.name, Reason: "reserved type name"}
	}
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.byName[d.name] = d
	tt.byType[d.typ] = d.name
	return nil
}

func (tt *typeTable) lookup(name string) (*Descriptor, bool) {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	d, ok := tt.byName[name]
	return d, ok
}

func (tt *typeTable) instantiable(name string) bool {
	d, ok := tt.lookup(name)
	return ok && d.Instantiable()
}

// hint returns the type id used to resolve a value of Go type t.
// Empty means untyped.
func (tt *typeTable) hint(t reflect.Type) string {
	if tt != nil {
		tt.mu.RLock()
		name, ok := tt.byType[t]
		tt.mu.RUnlock()
		if ok {
			return name
		}
	}
	return derivedHint(t)
}

// derivedHint names t without a descriptor table.
func derivedHint(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return ""
	}
	base := t
	if base.Kind() == reflect.Pointer && base.Name() == "" {
		base = base.Elem()
	}
	if base.Name() == "" || base.PkgPath() == "" {
		// unnamed composites and predeclared types
		if base.Name() != "" {
			return base.Name()
		}
		return base.Kind().String()
	}
	return base.PkgPath() + "." + base.Name()
}

// TypeKey returns the package-qualified type name of v, the identifier the
// container derives for values of that type.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "example.com/app.UserRepository"
//	c.Set(key, repo)
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return typeKey(t)
}

// KeyOf is TypeKey for a type parameter, useful for interfaces.
func KeyOf[T any]() string {
	return typeKey(reflect.TypeFor[T]())
}

func typeKey(t reflect.Type) string {
	if h := derivedHint(t); h != "" {
		return h
	}
	return t.String()
}

var builtins = map[string]bool{
	"bool": true, "string": true, "error": true, "any": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
	"byte": true, "rune": true, "unsafe.Pointer": true,
	"array": true, "slice": true, "map": true, "func": true, "chan": true,
	"struct": true, "interface": true, "ptr": true, "null": true, "mixed": true,
}

// isBuiltin reports whether a type name can never be resolved from the
// container.
func isBuiltin(name string) bool {
	return builtins[strings.ToLower(name)]
}

// isSelfReference reports the names that point back at the declaring type.
// Skipping them only prevents a type from re-entering its own resolution; it
// is not cycle detection, and longer cycles recurse until the stack gives out.
func isSelfReference(name string) bool {
	switch strings.ToLower(name) {
	case "self", "parent", "static":
		return true
	}
	return false
}
