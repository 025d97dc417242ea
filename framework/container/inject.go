package container

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// InjectTag marks struct fields the PropertyInjectionResolver fills.
//
//	type ReportService struct {
//	    Repo   Repository `inject:""`                 // id derived from the field type
//	    Mailer Mailer     `inject:"SMTPMailer|mailer"` // first resolvable id wins
//	}
const InjectTag = "inject"

// injectField describes one tagged field of a struct type.
type injectField struct {
	index    []int
	name     string
	typ      reflect.Type
	tag      string
	exported bool
}

// fieldCache caches the injectable fields of struct types.
type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]injectField
}

func newFieldCache() *fieldCache {
	return &fieldCache{fields: make(map[reflect.Type][]injectField)}
}

func (fc *fieldCache) get(t reflect.Type) []injectField {
	fc.mu.RLock()
	fields, ok := fc.fields[t]
	fc.mu.RUnlock()
	if ok {
		return fields
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fields, ok = fc.fields[t]; ok {
		return fields
	}
	fields = injectFields(t)
	fc.fields[t] = fields
	return fields
}

// injectFields walks t breadth first through embedded structs. A field name
// declared at a shallower depth shadows the same name further down.
func injectFields(t reflect.Type) []injectField {
	type level struct {
		typ   reflect.Type
		index []int
	}

	var out []injectField
	seen := make(map[string]bool)
	queue := []level{{typ: t}}

	for len(queue) > 0 {
		var next []level
		declared := make(map[string]bool)
		for _, lv := range queue {
			for i := range lv.typ.NumField() {
				f := lv.typ.Field(i)
				if seen[f.Name] {
					continue
				}
				declared[f.Name] = true
				index := append(append([]int(nil), lv.index...), i)

				if tag, ok := f.Tag.Lookup(InjectTag); ok {
					out = append(out, injectField{
						index:    index,
						name:     f.Name,
						typ:      f.Type,
						tag:      tag,
						exported: f.IsExported(),
					})
					continue
				}
				if f.Anonymous && f.Type.Kind() == reflect.Struct {
					next = append(next, level{typ: f.Type, index: index})
				}
			}
		}
		for name := range declared {
			seen[name] = true
		}
		queue = next
	}
	return out
}

// ── PropertyInjectionResolver ─────────────────────────────────────────────────

// PropertyInjectionResolver fills `inject`-tagged fields of pointer-to-struct
// values. It never fails: fields it cannot fill are reported at debug level
// and left as they are. Non-zero fields are never overwritten.
type PropertyInjectionResolver struct {
	cache *fieldCache
}

// NewPropertyInjectionResolver creates the resolver with an empty field cache.
func NewPropertyInjectionResolver() *PropertyInjectionResolver {
	return &PropertyInjectionResolver{cache: newFieldCache()}
}

func (r *PropertyInjectionResolver) DefaultPriority() int { return PriorityLoadFirst }

func (r *PropertyInjectionResolver) Resolve(c *Container, req *Request, value any) (any, error) {
	if value == nil || req.Cached {
		return value, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return value, nil
	}
	if _, isContainer := value.(*Container); isContainer {
		return value, nil
	}

	elem := rv.Elem()
	for _, f := range r.cache.get(elem.Type()) {
		r.inject(c, req, elem, f)
	}
	return value, nil
}

func (r *PropertyInjectionResolver) inject(c *Container, req *Request, elem reflect.Value, f injectField) {
	log := c.log.With(zap.String("id", req.Requested), zap.String("field", f.name))

	if !f.exported {
		log.Debug("unexported field cannot be injected")
		return
	}
	field := elem.FieldByIndex(f.index)
	if !field.IsZero() {
		return
	}

	hint := f.tag
	if hint == "" {
		hint = c.types.hint(f.typ)
	}
	candidates, _, _ := parseHint(hint)

	var cause error
	for _, id := range candidates {
		if isBuiltin(id) || isSelfReference(id) || id == req.ID {
			continue
		}
		a := c.try(id)
		if !a.resolved {
			cause = a.cause
			continue
		}
		v, ok := assign(a.value, f.typ)
		if !ok {
			log.Debug("injected value not assignable", zap.String("candidate", id),
				zap.String("type", reflect.TypeOf(a.value).String()))
			continue
		}
		field.Set(v)
		return
	}
	log.Debug("field left unresolved", zap.String("hint", hint), zap.Error(cause))
}
