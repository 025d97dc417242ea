package providers

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/km-arc/go-resolver/framework/config"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/definitions"
	"github.com/km-arc/go-resolver/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration.
//
// Bound ids:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
//   - KeyOf[*config.Config]() → alias of "config", for typed parameters
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->instance('config', $config = new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider

	// Config is bound as is when set; otherwise it is loaded from EnvFiles.
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Provides() []string {
	return []string{"config", "configuration", container.KeyOf[*config.Config]()}
}

func (p *ConfigServiceProvider) Register(c *container.Container) error {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load(p.EnvFiles...)
	}
	c.Set("config", cfg)
	c.Alias("config", "configuration", container.KeyOf[*config.Config]())
	return nil
}

// ── EnvServiceProvider ────────────────────────────────────────────────────────

// EnvServiceProvider binds every pair of the given dotenv files as
// "env.<KEY>" without touching the process environment.
//
//	// .env: MAIL_FROM=ops@example.com
//	from, _ := container.Resolve[string](c, "env.MAIL_FROM")
type EnvServiceProvider struct {
	container.BaseProvider
	Files []string
}

func (p *EnvServiceProvider) Register(c *container.Container) error {
	for _, file := range p.Files {
		pairs, err := config.ReadEnvFile(file)
		if err != nil {
			return fmt.Errorf("env provider: %w", err)
		}
		for _, key := range slices.Sorted(maps.Keys(pairs)) {
			c.Set("env."+key, pairs[key])
		}
	}
	return nil
}

// ── DefinitionsServiceProvider ────────────────────────────────────────────────

// DefinitionsServiceProvider applies a YAML definitions file. Ids listed
// under "shared" are served as shared instances expiring after SharedTTL.
type DefinitionsServiceProvider struct {
	container.BaseProvider
	Path      string
	SharedTTL time.Duration

	defs *definitions.Definitions
}

func (p *DefinitionsServiceProvider) Provides() []string {
	if p.defs == nil {
		return nil
	}
	ids := make([]string, 0, len(p.defs.Entries))
	for _, e := range p.defs.Entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func (p *DefinitionsServiceProvider) Register(c *container.Container) error {
	if p.Path == "" {
		return nil
	}
	defs, err := definitions.Load(p.Path)
	if err != nil {
		return err
	}
	p.defs = defs
	defs.Apply(c)

	if len(defs.Shared) > 0 {
		if _, err := c.Share(p.SharedTTL, defs.Shared...); err != nil {
			return err
		}
	}
	return nil
}

// ── SharedServiceProvider ─────────────────────────────────────────────────────

// SharedServiceProvider serves the configured ids as shared instances.
// "*" shares every id. The installed *container.Shared is bound as
// "container.shared" so cached instances can be forgotten.
//
// Laravel equivalent:
//
//	$app->singleton(Mailer::class, ...)
type SharedServiceProvider struct {
	container.BaseProvider
	IDs []string
	TTL time.Duration
}

func (p *SharedServiceProvider) Provides() []string { return []string{"container.shared"} }

func (p *SharedServiceProvider) Register(c *container.Container) error {
	if len(p.IDs) == 0 {
		return nil
	}
	ids := p.IDs
	if slices.Contains(ids, "*") {
		ids = nil
	}
	s, err := c.Share(p.TTL, ids...)
	if err != nil {
		return err
	}
	c.Set("container.shared", s)
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. It is deferred: the
// router is built the first time "router" is resolved.
//
// Bound ids:
//   - "router"                  → *routing.Router
//   - KeyOf[*routing.Router]()  → the same router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) IsDeferred() bool { return true }

func (p *RoutingServiceProvider) Provides() []string {
	return []string{"router", container.KeyOf[*routing.Router]()}
}

func (p *RoutingServiceProvider) Register(c *container.Container) error {
	router := routing.New(c)
	for _, id := range p.Provides() {
		c.Set(id, router)
	}
	return nil
}
