package routing_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func newRouter(t *testing.T) (*routing.Router, *container.Container) {
	t.Helper()
	c := container.MustNew()
	return routing.New(c), c
}

func do(t *testing.T, router *routing.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Verbs(t *testing.T) {
	r, _ := newRouter(t)
	r.Get("/users", okHandler)
	r.Post("/users", okHandler)
	r.Put("/users/{id}", okHandler)
	r.Patch("/users/{id}", okHandler)
	r.Delete("/users/{id}", http.HandlerFunc(okHandler))

	tests := []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodPost, "/users"},
		{http.MethodPut, "/users/1"},
		{http.MethodPatch, "/users/1"},
		{http.MethodDelete, "/users/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, do(t, r, tt.method, tt.path).Code)
		})
	}
}

func TestRouter_Any(t *testing.T) {
	r, _ := newRouter(t)
	r.Any("/ping", okHandler)

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		assert.Equal(t, http.StatusOK, do(t, r, method, "/ping").Code, method)
	}
}

func TestRouter_NotFound(t *testing.T) {
	r, _ := newRouter(t)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/not-registered").Code)
}

// ── Container actions ─────────────────────────────────────────────────────────

type Greeter struct{ Greeting string }

func TestRouter_ActionResolvesDependencies(t *testing.T) {
	r, c := newRouter(t)
	c.Set(container.KeyOf[*Greeter](), &Greeter{Greeting: "hello"})

	r.Get("/greet/{name}", container.MustFunc(func(g *Greeter, name string) string {
		return g.Greeting + " " + name
	}, container.Param("greeter"), container.Param("name")))

	rr := do(t, r, http.MethodGet, "/greet/ops")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "hello ops", decodeJSON(t, rr)["data"])
}

func TestRouter_ActionReceivesWriterAndRequest(t *testing.T) {
	r, _ := newRouter(t)
	r.Get("/raw", func(w http.ResponseWriter, req *http.Request, c *container.Container) {
		w.Header().Set("X-Container", c.ID())
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(req.URL.Path))
	})

	rr := do(t, r, http.MethodGet, "/raw")
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "/raw", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Container"))
}

func TestRouter_ActionAbort(t *testing.T) {
	r, _ := newRouter(t)
	r.Get("/users/{id}", container.MustFunc(func(id string) (any, error) {
		return nil, routing.Abort(http.StatusNotFound, "user "+id+" not found")
	}, container.Param("id")))
	r.Get("/teapot", func() error { return routing.Abort(http.StatusTeapot) })

	rr := do(t, r, http.MethodGet, "/users/7")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "user 7 not found", decodeJSON(t, rr)["message"])

	rr = do(t, r, http.MethodGet, "/teapot")
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, http.StatusText(http.StatusTeapot), decodeJSON(t, rr)["message"])
}

func TestRouter_ActionErrors(t *testing.T) {
	r, _ := newRouter(t)
	r.Get("/boom", func() error { return errors.New("boom") })
	r.Get("/unresolvable", func(g *Greeter) string { return g.Greeting })

	for _, path := range []string{"/boom", "/unresolvable"} {
		rr := do(t, r, http.MethodGet, path)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, path)
		assert.Equal(t, "Server Error.", decodeJSON(t, rr)["message"], path)
	}
}

func TestRouter_NilResultIsNoContent(t *testing.T) {
	r, _ := newRouter(t)
	r.Get("/greeter", func() (*Greeter, error) { return nil, nil })
	r.Get("/done", func() error { return nil })
	r.Get("/written", func(w http.ResponseWriter) error {
		w.WriteHeader(http.StatusAccepted)
		return nil
	})
	r.Get("/empty", func() []string { return nil })

	for _, path := range []string{"/greeter", "/done"} {
		rr := do(t, r, http.MethodGet, path)
		assert.Equal(t, http.StatusNoContent, rr.Code, path)
		assert.Empty(t, rr.Body.String(), path)
	}
	assert.Equal(t, http.StatusAccepted, do(t, r, http.MethodGet, "/written").Code)

	rr := do(t, r, http.MethodGet, "/empty")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":null}`, rr.Body.String())
}

func TestRouter_InvalidActionPanics(t *testing.T) {
	r, _ := newRouter(t)
	assert.Panics(t, func() { r.Get("/bad", 42) })
}

// ── Route params ─────────────────────────────────────────────────────────────

func TestRouter_Param(t *testing.T) {
	r, _ := newRouter(t)
	r.Get("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(routing.Param(req, "id")))
	})

	rr := do(t, r, http.MethodGet, "/users/42")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", rr.Body.String())
}

// ── Prefix / Group ───────────────────────────────────────────────────────────

func TestRouter_Prefix(t *testing.T) {
	r, _ := newRouter(t)
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users", okHandler)
	})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/v1/users").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/users").Code)
}

func TestRouter_Group_Middleware(t *testing.T) {
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	r, _ := newRouter(t)
	r.Group(func(g *routing.Router) {
		g.Middleware(mw)
		g.Get("/protected", okHandler)
	})

	do(t, r, http.MethodGet, "/protected")
	assert.True(t, called)
}

// ── Resource routes ───────────────────────────────────────────────────────────

type stubController struct{}

func (s *stubController) Index(w http.ResponseWriter, r *http.Request)   { w.WriteHeader(200) }
func (s *stubController) Store(w http.ResponseWriter, r *http.Request)   { w.WriteHeader(201) }
func (s *stubController) Show(w http.ResponseWriter, r *http.Request)    { w.WriteHeader(200) }
func (s *stubController) Update(w http.ResponseWriter, r *http.Request)  { w.WriteHeader(200) }
func (s *stubController) Destroy(w http.ResponseWriter, r *http.Request) { w.WriteHeader(204) }

func TestRouter_Resource(t *testing.T) {
	r, c := newRouter(t)
	r.Resource("/photos", &stubController{})
	c.Set("videos.controller", func() *stubController { return &stubController{} })
	r.Resource("/videos", "videos.controller")
	r.Resource("/broken", "missing.controller")

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/photos", 200},
		{"POST", "/photos", 201},
		{"GET", "/photos/1", 200},
		{"PUT", "/photos/1", 200},
		{"PATCH", "/photos/1", 200},
		{"DELETE", "/photos/1", 204},
		{"POST", "/videos", 201},
		{"GET", "/broken", 500},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, r, tt.method, tt.path).Code)
		})
	}
}

// ── Handler() returns http.Handler ───────────────────────────────────────────

func TestRouter_HandlerInterface(t *testing.T) {
	r, _ := newRouter(t)
	r.Get("/ping", okHandler)
	var _ http.Handler = r.Handler()
}
