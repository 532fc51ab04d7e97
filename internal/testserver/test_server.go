// Package testserver starts the full HTTP stack over an in-memory database
// seeded with the sample fixture.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/arcview/internal/app"
	"github.com/rpggio/arcview/internal/config"
	"github.com/rpggio/arcview/internal/fixture"
	"github.com/rpggio/arcview/internal/sqlite"
)

type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Documents *sqlite.DocumentRepository
	App       *app.App
	MCP       *sdkmcp.Server
}

// New starts a server seeded with the sample fixture.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	docs := sqlite.NewDocumentRepository(db)
	sample, err := fixture.Sample()
	require.NoError(t, err)
	_, err = fixture.Apply(context.Background(), docs, sample)
	require.NoError(t, err)

	a, err := app.New(config.Default(), app.Deps{
		Documents: docs,
		Activity:  sqlite.NewActivityRepository(db),
		Registry:  prometheus.NewRegistry(),
	}, nil)
	require.NoError(t, err)

	mcpServer := a.MCPServer("test")
	server := httptest.NewServer(a.Handler(mcpServer))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:    server,
		DB:        db,
		Documents: docs,
		App:       a,
		MCP:       mcpServer,
	}
}

// Connect opens an in-memory MCP client session on the server.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := ts.MCP.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}
