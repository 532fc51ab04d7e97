package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/arcview/internal/config"
	"github.com/rpggio/arcview/internal/repository/memstore"
	"github.com/rpggio/arcview/internal/sqlite"
)

func newTestApp(t *testing.T, registry *prometheus.Registry) *App {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	a, err := New(config.Default(), Deps{
		Documents: memstore.New(),
		Activity:  sqlite.NewActivityRepository(db),
		Registry:  registry,
	}, nil)
	require.NoError(t, err)
	return a
}

func TestNewWithoutMetrics(t *testing.T) {
	a := newTestApp(t, nil)
	require.Nil(t, a.Metrics)

	server := httptest.NewServer(a.Handler(a.MCPServer("test")))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewWithMetrics(t *testing.T) {
	a := newTestApp(t, prometheus.NewRegistry())
	require.NotNil(t, a.Metrics)

	server := httptest.NewServer(a.Handler(a.MCPServer("test")))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/api/sherds")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	newTestApp(t, registry)

	_, err := New(config.Default(), Deps{Documents: memstore.New(), Registry: registry}, nil)
	require.Error(t, err)
}

func TestExpireViewersStopsWithContext(t *testing.T) {
	a := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		a.ExpireViewers(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ExpireViewers did not return")
	}
}
