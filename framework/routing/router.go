package routing

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/framework/container"
)

var (
	writerKey  = container.KeyOf[http.ResponseWriter]()
	requestKey = container.KeyOf[*http.Request]()
	inputKey   = container.KeyOf[*Request]()
)

// Router wraps chi.Router and dispatches actions through the container.
//
// An action is a plain handler, or any func whose parameters the container
// can resolve. The ResponseWriter, the *http.Request, its *Request wrapper
// and the URL params (by parameter name) are passed as explicit parameters:
//
//	// Laravel: Route::get('/users/{id}', [UserController::class, 'show'])
//	r.Get("/users/{id}", container.MustFunc(func(repo *UserRepository, id string) (*User, error) {
//	    return repo.Find(id)
//	}, container.Param("repo"), container.Param("id")))
//
// A non-nil result is written as {"data": result}; an error as
// {"message": ...} with the status of an *HTTPError, or 500. A nil result
// answers 204 unless the action wrote the response itself.
type Router struct {
	mux chi.Router
	c   *container.Container
	log *zap.Logger
}

// New creates a Router with sane defaults (RequestID, RealIP, request
// logging, Recoverer).
func New(c *container.Container) *Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(c.Logger()))
	r.Use(middleware.Recoverer)
	return &Router{mux: r, c: c, log: c.Logger()}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, action any)    { r.mux.Get(pattern, r.handler(action)) }
func (r *Router) Post(pattern string, action any)   { r.mux.Post(pattern, r.handler(action)) }
func (r *Router) Put(pattern string, action any)    { r.mux.Put(pattern, r.handler(action)) }
func (r *Router) Patch(pattern string, action any)  { r.mux.Patch(pattern, r.handler(action)) }
func (r *Router) Delete(pattern string, action any) { r.mux.Delete(pattern, r.handler(action)) }

// Any registers an action for all common HTTP methods.
func (r *Router) Any(pattern string, action any) {
	h := r.handler(action)
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		r.mux.Method(m, pattern, h)
	}
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group. Laravel: Route::group([], fn)
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(&Router{mux: mx, c: r.c, log: r.log})
	})
}

// Prefix creates a sub-router with a URL prefix. Laravel: Route::prefix('/api')
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx, c: r.c, log: r.log})
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// RequestLogger logs every request at info level.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, req)
			log.Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(req.Context())),
			)
		})
	}
}

// ── Resource routes ──────────────────────────────────────────────────────────

// ResourceController handles the standard RESTful routes of a resource.
type ResourceController interface {
	Index(w http.ResponseWriter, r *http.Request)
	Store(w http.ResponseWriter, r *http.Request)
	Show(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// Resource registers the RESTful routes of a controller. A string is the id
// of the controller entry, resolved on every request.
//
//	GET    /photos           → c.Index
//	POST   /photos           → c.Store
//	GET    /photos/{id}      → c.Show
//	PUT    /photos/{id}      → c.Update
//	DELETE /photos/{id}      → c.Destroy
func (r *Router) Resource(pattern string, controller any) {
	action := func(method func(ResourceController) http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			rc, err := r.controller(controller)
			if err != nil {
				r.fail(NewResponse(w), req, err)
				return
			}
			method(rc)(w, req)
		}
	}
	r.mux.Get(pattern, action(func(c ResourceController) http.HandlerFunc { return c.Index }))
	r.mux.Post(pattern, action(func(c ResourceController) http.HandlerFunc { return c.Store }))
	r.mux.Get(pattern+"/{id}", action(func(c ResourceController) http.HandlerFunc { return c.Show }))
	r.mux.Put(pattern+"/{id}", action(func(c ResourceController) http.HandlerFunc { return c.Update }))
	r.mux.Patch(pattern+"/{id}", action(func(c ResourceController) http.HandlerFunc { return c.Update }))
	r.mux.Delete(pattern+"/{id}", action(func(c ResourceController) http.HandlerFunc { return c.Destroy }))
}

func (r *Router) controller(controller any) (ResourceController, error) {
	if rc, ok := controller.(ResourceController); ok {
		return rc, nil
	}
	id, ok := controller.(string)
	if !ok {
		return nil, fmt.Errorf("routing: %T is not a resource controller", controller)
	}
	return container.Resolve[ResourceController](r.c, id)
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param, like $request->route('id')
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

// handler adapts action to an http.HandlerFunc. Invalid actions panic at
// registration, like invalid chi patterns.
func (r *Router) handler(action any) http.HandlerFunc {
	switch h := action.(type) {
	case http.HandlerFunc:
		return h
	case func(http.ResponseWriter, *http.Request):
		return h
	case http.Handler:
		return h.ServeHTTP
	}

	f, err := container.Func(action)
	if err != nil {
		panic(fmt.Sprintf("routing: invalid action %T: %v", action, err))
	}
	return func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		params := container.Parameters{writerKey: ww, requestKey: req, inputKey: NewRequest(req)}
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				params[key] = rctx.URLParams.Values[i]
			}
		}

		res := NewResponse(ww)
		out, err := r.c.Call(f, params)
		switch {
		case err != nil:
			r.fail(res, req, err)
		case !isNil(out):
			res.Success(out)
		case ww.Status() == 0:
			// nothing returned and nothing written
			res.NoContent()
		}
	}
}

// isNil reports nil results, including typed nil pointers. Nil slices and
// maps are still written as data.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func (r *Router) fail(res *Response, req *http.Request, err error) {
	var he *HTTPError
	if errors.As(err, &he) {
		res.Error(he.Status, he.Message)
		return
	}
	r.log.Error("action failed",
		zap.String("path", req.URL.Path),
		zap.String("request_id", middleware.GetReqID(req.Context())),
		zap.Error(err))
	res.ServerError()
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.ListenAndServe.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler (for testing etc.).
func (r *Router) Handler() http.Handler {
	return r.mux
}
