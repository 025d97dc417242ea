package cmd

import (
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-resolver/framework/app"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/routing"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo HTTP application",
		Long: `Serve the demo HTTP application on HTTP_PORT until interrupted.

Routes:
  GET  /                    welcome message
  GET  /api/v1/users        list users
  POST /api/v1/users        create a user (JSON or form body)
  GET  /api/v1/users/{id}   show a user
  GET  /profile             requires Authorization: Bearer <token>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(envFiles(cmd)...)
			if err != nil {
				return err
			}
			if err := Routes(application); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}
}

// ── Demo application ─────────────────────────────────────────────────────────

// User is the demo resource.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserRepository is an in-memory user store.
type UserRepository struct {
	mu    sync.RWMutex
	users []User
}

// NewUserRepository seeds the demo users.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: []User{
		{ID: 1, Name: "Alice", Email: "alice@example.com"},
		{ID: 2, Name: "Bob", Email: "bob@example.com"},
	}}
}

func (r *UserRepository) All() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]User(nil), r.users...)
}

func (r *UserRepository) Find(id int) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (r *UserRepository) Create(name, email string) User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := User{ID: len(r.users) + 1, Name: name, Email: email}
	r.users = append(r.users, u)
	return u
}

// Routes binds the demo services and registers the demo routes.
func Routes(application *app.Application) error {
	users := NewUserRepository()
	application.Set(container.KeyOf[*UserRepository](), users)

	r, err := application.Router()
	if err != nil {
		return err
	}

	r.Get("/", func() map[string]any {
		return map[string]any{"message": "Welcome to go-resolver!"}
	})

	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users", func(repo *UserRepository) []User {
			return repo.All()
		})

		api.Post("/users", func(w http.ResponseWriter, in *routing.Request, repo *UserRepository) error {
			var body struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := in.Bind(&body); err != nil {
				return routing.Abort(http.StatusBadRequest, err.Error())
			}
			if body.Name == "" || body.Email == "" {
				return routing.Abort(http.StatusUnprocessableEntity, "name and email are required.")
			}
			routing.NewResponse(w).Created(repo.Create(body.Name, body.Email))
			return nil
		})

		api.Get("/users/{id}", container.MustFunc(func(repo *UserRepository, id string) (User, error) {
			n, err := strconv.Atoi(id)
			if err != nil {
				return User{}, routing.Abort(http.StatusBadRequest, "id must be numeric.")
			}
			u, ok := repo.Find(n)
			if !ok {
				return User{}, routing.Abort(http.StatusNotFound)
			}
			return u, nil
		}, container.Param("repo"), container.Param("id")))
	})

	r.Group(func(protected *routing.Router) {
		protected.Middleware(AuthMiddleware)
		protected.Get("/profile", func() map[string]any {
			return map[string]any{"user": "authenticated"}
		})
	})
	return nil
}

// AuthMiddleware is an example token guard.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if routing.NewRequest(r).BearerToken() == "" {
			routing.NewResponse(w).Error(http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
