package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/framework/app"
	"github.com/km-arc/go-resolver/framework/container"
)

func newApp(t *testing.T) *app.Application {
	t.Helper()
	t.Setenv("APP_NAME", "KernelTest")
	t.Setenv("APP_ENV", "testing")
	t.Setenv("APP_DEBUG", "false")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_ENCODING", "json")
	t.Setenv("CONTAINER_DEFINITIONS", "testdata/container.yaml")
	t.Setenv("CONTAINER_SHARED", "")
	t.Setenv("HTTP_PORT", "0")

	a, err := app.New("testdata/app.env")
	require.NoError(t, err)
	return a
}

func TestNew_RegistersCoreProviders(t *testing.T) {
	a := newApp(t)

	cfg, err := a.Config()
	require.NoError(t, err)
	assert.Equal(t, "KernelTest", cfg.App.Name)

	flag, err := container.Resolve[string](a.Container, "env.FEATURE_FLAG")
	require.NoError(t, err)
	assert.Equal(t, "on", flag)

	greeting, err := container.Resolve[string](a.Container, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", greeting)

	router, err := a.Router()
	require.NoError(t, err)
	again, err := a.Router()
	require.NoError(t, err)
	assert.Same(t, router, again)
}

func TestNew_InvalidLogSettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := app.New("testdata/app.env")
	assert.Error(t, err)
}

func TestEnvironmentHelpers(t *testing.T) {
	a := newApp(t)

	assert.Equal(t, "testing", a.Environment())
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsLocal())
	assert.False(t, a.IsProduction())
	assert.False(t, a.IsDebug())
	assert.NotEmpty(t, a.Version())
}

func TestBoot_Idempotent(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Boot())
	require.NoError(t, a.Boot())
	assert.True(t, a.Providers.Booted())
}

func TestRouter_ServesThroughContainer(t *testing.T) {
	a := newApp(t)
	router, err := a.Router()
	require.NoError(t, err)
	router.Get("/greeting", func(c *container.Container) (any, error) {
		return c.Get("greeting")
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/greeting", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":"hello"}`, rr.Body.String())
}

func TestRun_StopsWhenContextIsDone(t *testing.T) {
	a := newApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}
	assert.True(t, a.Providers.Booted())
}
