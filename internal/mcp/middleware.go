package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/arcview/internal/domain/session"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
)

// getSessionID extracts session ID from context.
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// sessionMiddleware stores the caller's view id in context. An explicit
// view_id or session_id in request metadata wins over the Mcp-Session-Id
// header.
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			sessionID := metaViewID(req)

			if sessionID == "" {
				if extra := req.GetExtra(); extra != nil && extra.Header != nil {
					sessionID = extra.Header.Get("Mcp-Session-Id")
				}
			}

			if sessionID != "" {
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}

			return next(ctx, method, req)
		}
	}
}

// metaViewID reads view_id, then session_id, from request metadata. Some
// notifications (like "initialized") have nil params and GetMeta panics on
// a nil underlying value.
func metaViewID(req sdkmcp.Request) (id string) {
	params := req.GetParams()
	if params == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	meta := params.GetMeta()
	for _, key := range []string{"view_id", "session_id"} {
		if v, ok := meta[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// viewerID picks the viewer a tool call operates on: explicit metadata,
// then the transport session, then the shared default viewer.
func viewerID(ctx context.Context, req *sdkmcp.CallToolRequest) string {
	if id := getSessionID(ctx); id != "" {
		return id
	}
	if id := safeSessionID(req); id != "" {
		return id
	}
	return session.DefaultViewerID
}
