package container

import (
	"errors"
	"reflect"
	"strconv"
)

// Parameters are explicit arguments for Make and Call. Keys are parameter
// names, zero-based positions ("0", "1", ...) or a type id declared by the
// parameter, which is how unnamed Go parameters are usually targeted:
//
//	c.Call(handler, container.Parameters{
//	    container.KeyOf[http.ResponseWriter](): w,
//	    "id": chi.URLParam(r, "id"),
//	})
type Parameters map[string]any

// Arguments builds positional Parameters.
func Arguments(values ...any) Parameters {
	p := make(Parameters, len(values))
	for i, v := range values {
		p[strconv.Itoa(i)] = v
	}
	return p
}

// lookup finds the explicit value for p: by name, then position, then type.
func (ps Parameters) lookup(p parameter) (any, bool) {
	if len(ps) == 0 {
		return nil, false
	}
	if v, ok := ps[p.name]; ok {
		return v, true
	}
	if v, ok := ps[strconv.Itoa(p.position)]; ok {
		return v, true
	}
	for _, t := range p.types {
		if v, ok := ps[t]; ok {
			return v, true
		}
	}
	return nil, false
}

// attempt is the outcome of a non-authoritative resolution: either a value
// was resolved, or the caller moves on and cause explains why.
type attempt struct {
	value    any
	resolved bool
	cause    error
}

func (c *Container) try(id string) attempt {
	v, err := c.Get(id)
	if err != nil {
		return attempt{cause: err}
	}
	return attempt{value: v, resolved: true}
}

// arguments resolves the parameters of f. id is the entry being built; a
// parameter typed with it is skipped like self/parent/static.
func (c *Container) arguments(id string, f *Function, explicit Parameters) ([]reflect.Value, error) {
	params := f.bind(c.types)

	for _, p := range params {
		if p.intersection {
			return nil, &UnsupportedTypeError{Function: f.name, Parameter: p.name, Type: p.hint}
		}
	}

	args := make([]reflect.Value, len(params))
	for i, p := range params {
		v, err := c.argument(id, f, p, explicit)
		if err != nil {
			return nil, err
		}
		arg, ok := assign(v, p.typ)
		if !ok {
			return nil, &ResolutionError{
				ID: id, Function: f.name, Position: p.position, Parameter: p.name, Type: p.hint,
				Cause: errors.New("resolved value of type " + reflect.TypeOf(v).String() + " is not assignable to " + p.typ.String()),
			}
		}
		args[i] = arg
	}
	return args, nil
}

func (c *Container) argument(id string, f *Function, p parameter, explicit Parameters) (any, error) {
	if v, ok := explicit.lookup(p); ok {
		return v, nil
	}

	if len(p.types) == 0 {
		switch {
		case p.hasDefault:
			return p.def, nil
		case p.position == 0 && !(f.variadic && len(f.params) == 1):
			return c, nil
		}
		return Absent, nil
	}

	var cause error
	for _, t := range p.types {
		if isBuiltin(t) {
			if p.hasDefault {
				return p.def, nil
			}
			continue
		}
		if isSelfReference(t) || (id != "" && t == id) {
			continue
		}
		a := c.try(t)
		if !a.resolved {
			cause = a.cause
			continue
		}
		if _, ok := assign(a.value, p.typ); !ok {
			continue
		}
		return a.value, nil
	}

	switch {
	case p.nullable:
		return Absent, nil
	case p.hasDefault:
		return p.def, nil
	}
	return nil, &ResolutionError{
		ID: id, Function: f.name, Position: p.position, Parameter: p.name, Type: p.hint, Cause: cause,
	}
}

// assign converts v into a reflect.Value usable as an argument of type t.
// Absent and nil become the zero value.
func assign(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil || IsAbsent(v) {
		return reflect.Zero(t), true
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	f := kindFamily(rv.Kind())
	if f == 0 || f != kindFamily(t.Kind()) || !rv.Type().ConvertibleTo(t) {
		return reflect.Value{}, false
	}
	cv := rv.Convert(t)
	if f == numericFamily && !lossless(rv, cv) {
		return reflect.Value{}, false
	}
	return cv, true
}

// lossless reports whether the numeric conversion of from into to kept its
// value: same sign, and converting back gives the original.
func lossless(from, to reflect.Value) bool {
	if negative(from) != negative(to) {
		return false
	}
	return to.Convert(from.Type()).Equal(from)
}

func negative(v reflect.Value) bool {
	switch {
	case v.CanInt():
		return v.Int() < 0
	case v.CanFloat():
		return v.Float() < 0
	}
	return false
}

const numericFamily = 3

// kindFamily groups scalar kinds that convert without changing meaning.
func kindFamily(k reflect.Kind) int {
	switch k {
	case reflect.Bool:
		return 1
	case reflect.String:
		return 2
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return numericFamily
	}
	return 0
}

// isNil reports nil values, including typed nil pointers held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
