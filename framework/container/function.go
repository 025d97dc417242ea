package container

import (
	"reflect"
	"runtime"
	"strconv"
	"strings"
)

var errorType = reflect.TypeFor[error]()

// ParamSpec declares metadata Go reflection cannot recover: the name of a
// parameter, its type hint and its default value.
//
//	container.Func(NewMailer,
//	    container.Param("transport").Hint("SMTPTransport|NullTransport"),
//	    container.Param("from").Default("noreply@example.com"),
//	)
type ParamSpec struct {
	name       string
	hint       string
	hasHint    bool
	def        any
	hasDefault bool
}

// Param starts the spec of the next positional parameter.
// An empty name keeps the generated one ("arg0", "arg1", ...).
func Param(name string) *ParamSpec {
	return &ParamSpec{name: name}
}

// Hint sets the type hint: "Foo", "?Foo", "Foo|Bar", "Foo|null" or "Foo&Bar".
// An empty hint declares the parameter untyped.
func (p *ParamSpec) Hint(hint string) *ParamSpec {
	p.hint = hint
	p.hasHint = true
	return p
}

// Default sets the value used when the parameter cannot be resolved.
func (p *ParamSpec) Default(v any) *ParamSpec {
	p.def = v
	p.hasDefault = true
	return p
}

// parameter is the resolved metadata of one declared parameter.
type parameter struct {
	name         string
	position     int
	typ          reflect.Type
	hint         string
	derive       bool
	types        []string
	nullable     bool
	intersection bool
	def          any
	hasDefault   bool
}

// Function is a callable together with the metadata needed to resolve its
// parameters through the container.
type Function struct {
	name         string
	fn           reflect.Value
	params       []parameter
	result       reflect.Type
	returnsError bool
	variadic     bool
}

// Func describes fn. Specs are matched to parameters by position; parameters
// without a spec get a generated name and a hint derived from their Go type.
// Supported results are (), (T), (error) and (T, error).
func Func(fn any, params ...*ParamSpec) (*Function, error) {
	if f, ok := fn.(*Function); ok && len(params) == 0 {
		return f, nil
	}
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, ErrNotCallable
	}
	t := v.Type()
	f := &Function{
		name:     funcName(v),
		fn:       v,
		variadic: t.IsVariadic(),
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			f.returnsError = true
		} else {
			f.result = t.Out(0)
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, &DefinitionError{Name: f.name, Reason: "second result must be error"}
		}
		f.result = t.Out(0)
		f.returnsError = true
	default:
		return nil, &DefinitionError{Name: f.name, Reason: "too many results"}
	}

	if len(params) > t.NumIn() {
		return nil, &DefinitionError{Name: f.name, Reason: "more parameter specs than parameters"}
	}

	f.params = make([]parameter, t.NumIn())
	for i := range f.params {
		p := parameter{
			name:     "arg" + strconv.Itoa(i),
			position: i,
			typ:      t.In(i),
		}
		var spec *ParamSpec
		if i < len(params) {
			spec = params[i]
		}
		if spec != nil {
			if spec.name != "" {
				p.name = spec.name
			}
			if spec.hasHint {
				p.hint = spec.hint
			}
			p.def, p.hasDefault = spec.def, spec.hasDefault
		}
		p.derive = spec == nil || !spec.hasHint
		f.params[i] = p
	}
	return f, nil
}

// MustFunc is like Func but panics on an invalid callable.
func MustFunc(fn any, params ...*ParamSpec) *Function {
	f, err := Func(fn, params...)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the runtime name of the function.
func (f *Function) Name() string { return f.name }

// NumParams returns the number of declared parameters.
func (f *Function) NumParams() int { return len(f.params) }

// bind fills in hints derived from Go types against the container's table.
func (f *Function) bind(tt *typeTable) []parameter {
	out := make([]parameter, len(f.params))
	for i, p := range f.params {
		if p.derive {
			p.hint = tt.hint(p.typ)
			if f.variadic && i == len(f.params)-1 {
				p.hint = ""
			}
		}
		p.types, p.nullable, p.intersection = parseHint(p.hint)
		out[i] = p
	}
	return out
}

func (f *Function) call(args []reflect.Value) (any, error) {
	var out []reflect.Value
	if f.variadic {
		out = f.fn.CallSlice(args)
	} else {
		out = f.fn.Call(args)
	}
	var result any
	if f.result != nil {
		result = out[0].Interface()
	}
	if f.returnsError {
		if errV := out[len(out)-1]; !errV.IsNil() {
			return result, errV.Interface().(error)
		}
	}
	return result, nil
}

func funcName(v reflect.Value) string {
	if rf := runtime.FuncForPC(v.Pointer()); rf != nil {
		return rf.Name()
	}
	return v.Type().String()
}

// parseHint splits a type hint into its alternatives.
//
//	"Foo|Bar"  → [Foo Bar]
//	"?Foo"     → [Foo], nullable
//	"Foo|null" → [Foo], nullable
//	"Foo&Bar"  → intersection
func parseHint(hint string) (types []string, nullable, intersection bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil, false, false
	}
	if strings.HasPrefix(hint, "?") {
		nullable = true
		hint = hint[1:]
	}
	if strings.Contains(hint, "&") {
		intersection = true
	}
	for _, part := range strings.Split(hint, "|") {
		part = strings.TrimSpace(strings.Trim(part, "()"))
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "null") {
			nullable = true
			continue
		}
		types = append(types, part)
	}
	return types, nullable, intersection
}
