package routing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxMemory = 32 << 20 // 32 MB

// ErrEmptyBody is returned by Bind for a JSON request without a body.
var ErrEmptyBody = errors.New("empty request body")

// Request is handed to actions that declare a *routing.Request parameter.
//
//	r.Post("/users", func(in *routing.Request, repo *UserRepository) error {
//	    var body NewUser
//	    if err := in.Bind(&body); err != nil {
//	        return routing.Abort(http.StatusBadRequest, err.Error())
//	    }
//	    ...
//	})
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Bind decodes the body into v: JSON by `json` tags, forms by field name.
func (req *Request) Bind(v any) error {
	ct := req.raw.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		defer req.raw.Body.Close()
		err := json.NewDecoder(req.raw.Body).Decode(v)
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}

	if err := req.raw.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	form := make(map[string]any, len(req.raw.PostForm))
	for k, vals := range req.raw.PostForm {
		if len(vals) == 1 {
			form[k] = vals[0]
		} else {
			form[k] = vals
		}
	}
	b, err := json.Marshal(form)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Query returns a query-string value, or the fallback when it is empty.
func (req *Request) Query(key string, fallback ...string) string {
	if v := req.raw.URL.Query().Get(key); v != "" || len(fallback) == 0 {
		return v
	}
	return fallback[0]
}

// RouteParam returns a URL route parameter. Laravel: $request->route('id')
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (req *Request) BearerToken() string {
	token, ok := strings.CutPrefix(req.raw.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}
