package container

import (
	"reflect"

	"go.uber.org/zap"
)

// ── ClassNameResolver ─────────────────────────────────────────────────────────

// ClassNameResolver resolves string values that name an instantiable type.
// It is non-authoritative: when the named type cannot be resolved the string
// is passed on unchanged.
type ClassNameResolver struct {
	_ byte // distinct instances need distinct addresses
}

func (r *ClassNameResolver) DefaultPriority() int { return PriorityClassName }

func (r *ClassNameResolver) Resolve(c *Container, req *Request, value any) (any, error) {
	name, ok := value.(string)
	if !ok || req.Cached || name == req.ID || !c.types.instantiable(name) {
		return value, nil
	}
	a := c.try(name)
	if !a.resolved {
		c.log.Debug("type reference left unresolved",
			zap.String("id", req.Requested), zap.String("type", name), zap.Error(a.cause))
		return value, nil
	}
	return a.value, nil
}

// ── ClosureResolver ───────────────────────────────────────────────────────────

var containerType = reflect.TypeFor[*Container]()

// ClosureResolver invokes factories that take nothing or the container.
// Other functions are left to the ParameterResolver.
type ClosureResolver struct {
	_ byte
}

func (r *ClosureResolver) DefaultPriority() int { return PriorityClosure }

func (r *ClosureResolver) Resolve(c *Container, req *Request, value any) (any, error) {
	if value == nil || req.Cached {
		return value, nil
	}
	if f, ok := value.(Factory); ok {
		v, err := f(c)
		return closureResult(req, v, err)
	}
	if f, ok := value.(func(*Container) any); ok {
		return f(c), nil
	}
	t := reflect.TypeOf(value)
	if t.Kind() != reflect.Func || t.IsVariadic() {
		return value, nil
	}
	if t.NumIn() > 1 || (t.NumIn() == 1 && t.In(0) != containerType) {
		return value, nil
	}
	f, err := Func(value)
	if err != nil {
		return value, nil
	}
	var args []reflect.Value
	if t.NumIn() == 1 {
		args = []reflect.Value{reflect.ValueOf(c)}
	}
	v, err := f.call(args)
	return closureResult(req, v, err)
}

func closureResult(req *Request, v any, err error) (any, error) {
	if err != nil {
		return nil, &NotFoundError{ID: req.Requested, Cause: err}
	}
	return v, nil
}

// ── ParameterResolver ─────────────────────────────────────────────────────────

// ParameterResolver auto-wires: it builds instantiable types that have no
// entry, and invokes factories with parameters resolved from the container.
// Any failure is reported as a *NotFoundError wrapping the cause.
type ParameterResolver struct {
	_ byte
}

func (r *ParameterResolver) DefaultPriority() int { return PriorityParameter }

func (r *ParameterResolver) Resolve(c *Container, req *Request, value any) (any, error) {
	if IsAbsent(value) {
		d, ok := c.types.lookup(req.ID)
		if !ok || !d.Instantiable() {
			return value, nil
		}
		v, err := c.instantiate(d, req.Parameters)
		if err != nil {
			return nil, &NotFoundError{ID: req.Requested, Cause: err}
		}
		return v, nil
	}

	if req.Cached || !callable(value) {
		return value, nil
	}
	f, err := Func(value)
	if err != nil {
		return nil, &NotFoundError{ID: req.Requested, Cause: err}
	}
	args, err := c.arguments(req.ID, f, req.Parameters)
	if err != nil {
		return nil, &NotFoundError{ID: req.Requested, Cause: err}
	}
	v, err := f.call(args)
	if err != nil {
		return nil, &NotFoundError{ID: req.Requested, Cause: err}
	}
	if isNil(v) {
		return nil, &NotFoundError{ID: req.Requested, Cause: ErrEmptyFactory}
	}
	return v, nil
}

func callable(v any) bool {
	if _, ok := v.(*Function); ok {
		return true
	}
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// instantiate builds the type described by d.
func (c *Container) instantiate(d *Descriptor, params Parameters) (any, error) {
	if d.ctor == nil {
		if d.typ.Kind() == reflect.Pointer {
			return reflect.New(d.typ.Elem()).Interface(), nil
		}
		return reflect.New(d.typ).Elem().Interface(), nil
	}
	args, err := c.arguments(d.name, d.ctor, params)
	if err != nil {
		return nil, err
	}
	v, err := d.ctor.call(args)
	if err != nil {
		return nil, err
	}
	if isNil(v) {
		return nil, ErrEmptyFactory
	}
	return v, nil
}

// ── ExtendResolver ────────────────────────────────────────────────────────────

// ExtendResolver applies the decorators registered with Container.Extend.
type ExtendResolver struct {
	_ byte
}

func (r *ExtendResolver) DefaultPriority() int { return PriorityExtend }

func (r *ExtendResolver) Resolve(c *Container, req *Request, value any) (any, error) {
	if IsAbsent(value) || req.Cached {
		return value, nil
	}
	var err error
	for _, ext := range c.extendersOf(req.ID) {
		if value, err = ext(value, c); err != nil {
			return nil, &NotFoundError{ID: req.Requested, Cause: err}
		}
	}
	return value, nil
}

// ── LoggerInjectionResolver ───────────────────────────────────────────────────

// LoggerAware is implemented by values that accept the container logger.
type LoggerAware interface {
	SetLogger(logger *zap.Logger)
}

// LoggerInjectionResolver hands the LoggerID entry to LoggerAware values.
type LoggerInjectionResolver struct {
	_ byte
}

func (r *LoggerInjectionResolver) DefaultPriority() int { return PriorityLogger }

func (r *LoggerInjectionResolver) Resolve(c *Container, req *Request, value any) (any, error) {
	aware, ok := value.(LoggerAware)
	if !ok || req.Cached || req.ID == LoggerID || !c.Has(LoggerID) {
		return value, nil
	}
	a := c.try(LoggerID)
	logger, ok := a.value.(*zap.Logger)
	if !a.resolved || !ok {
		c.log.Debug("logger not injected", zap.String("id", req.Requested), zap.Error(a.cause))
		return value, nil
	}
	aware.SetLogger(logger)
	return value, nil
}

// ── NotFoundResolver ──────────────────────────────────────────────────────────

// NotFoundResolver turns a value that is still Absent into a *NotFoundError.
type NotFoundResolver struct {
	_ byte
}

func (r *NotFoundResolver) DefaultPriority() int { return PriorityLoadLast }

func (r *NotFoundResolver) Resolve(_ *Container, req *Request, value any) (any, error) {
	if IsAbsent(value) {
		return nil, &NotFoundError{ID: req.Requested}
	}
	return value, nil
}
