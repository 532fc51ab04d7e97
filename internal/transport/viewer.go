package transport

import (
	"context"
	"net/http"
	"strings"
)

// ViewerHeader selects the viewer of an API request. MCP clients may send
// their Mcp-Session-Id instead.
const ViewerHeader = "X-Viewer-Id"

type viewerKey struct{}

// ViewerIDFromContext returns the viewer id from context, if present.
func ViewerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(viewerKey{}).(string)
	return id, ok
}

// ViewerMiddleware stores the caller's viewer id in context.
func ViewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ViewerHeader))
		if id == "" {
			id = strings.TrimSpace(r.Header.Get("Mcp-Session-Id"))
		}
		if id != "" {
			ctx := context.WithValue(r.Context(), viewerKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}
