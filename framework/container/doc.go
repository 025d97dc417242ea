// Package container provides a dependency-resolution container whose
// behaviour is assembled from a priority-ordered chain of resolvers.
//
// # Overview
//
// The container stores raw definitions under string ids: plain values,
// factories, any Go func, or the name of a registered type. Get looks the
// id up (following at most one alias) and threads the definition through
// every resolver, highest priority first. Each resolver may replace the
// value: invoke a factory, build a type, inject fields, decorate. If the
// value is still Absent at the end, Get returns a *NotFoundError.
//
// Entries are not singletons. Every Get runs the chain again, so a factory
// builds a fresh value each time unless the id is shared (see Share).
//
// # Entries
//
//	// Plain value, returned as is
//	c.Set("name", "demo")
//
//	// Factory, invoked on every Get
//	// Laravel: $app->bind(Mailer::class, fn($app) => new Mailer)
//	c.Set("mailer", func(c *container.Container) (any, error) { return NewMailer(), nil })
//
//	// Any func: parameters are resolved from the container
//	c.Set("reports", NewReportService)
//
//	// Alias, a single hop
//	// Laravel: $app->alias(Mailer::class, 'mailer')
//	c.Alias("mailer", "Mailer")
//
// # Types
//
// Go cannot look a type up by name at runtime, so types that may be built by
// name are declared up front. A descriptor without a constructor is
// allocated with its zero value; a constructor has its parameters resolved
// like any func.
//
//	c.Define(
//	    container.TypeOf[*SMTPTransport]().Named("SMTPTransport"),
//	    container.TypeOf[*Mailer]().Named("Mailer").Constructor(NewMailer,
//	        container.Param("transport").Hint("SMTPTransport|NullTransport"),
//	        container.Param("from").Default("noreply@example.com")),
//	)
//	m, err := c.Get("Mailer")
//
// Hints follow a small grammar: "Foo", "?Foo" and "Foo|null" (nullable),
// "Foo|Bar" (tried left to right). Intersections ("Foo&Bar") are rejected
// with an *UnsupportedTypeError.
//
// # Resolving
//
//	v, err := c.Get("mailer")
//
//	// Generic
//	m, err := container.Resolve[*Mailer](c, "mailer")
//
//	// Explicit constructor arguments, never served from the shared cache
//	m, err := c.Make("Mailer", container.Parameters{"from": "ops@example.com"})
//
//	// Call a func with resolved parameters
//	out, err := c.Call(SendReport, container.Parameters{"to": "ops@example.com"})
//
// # Property injection
//
//	type ReportService struct {
//	    Mailer *Mailer `inject:""`
//	    Store  Store   `inject:"RedisStore|MemoryStore"`
//	}
//
// # Resolvers
//
//	// custom resolver between the closure and parameter stages
//	c.AddResolver(container.NewResolverFunc("trim", 200,
//	    func(c *container.Container, req *container.Request, v any) (any, error) {
//	        if s, ok := v.(string); ok {
//	            return strings.TrimSpace(s), nil
//	        }
//	        return v, nil
//	    }))
//
// # Shared instances
//
//	// Laravel: $app->singleton(Mailer::class, ...)
//	c.Share(0, "mailer")
//
// # Tags and Extend
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag("reports", "CpuReport", "MemoryReport")
//	reports, err := c.Tagged("reports")
//
//	// Laravel: $app->extend(Mailer::class, fn($m, $app) => new QueuedMailer($m))
//	c.Extend("mailer", func(v any, c *container.Container) (any, error) {
//	    return &QueuedMailer{Inner: v.(*Mailer)}, nil
//	})
//
// # Service Providers
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&MailServiceProvider{})
//	registry.Boot()
//
// A provider implementing DeferrableProvider is registered the first time
// one of its Provides ids is resolved.
package container
