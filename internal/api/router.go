package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
)

// MCPPath is where the streamable HTTP transport is mounted.
const MCPPath = "/mcp"

// NewRouter wraps the MCP server in its streamable HTTP transport and adds
// the health endpoint.
func NewRouter(mcpSrv *server.MCPServer) http.Handler {
	httpSrv := server.NewStreamableHTTPServer(mcpSrv,
		server.WithEndpointPath(MCPPath),
		server.WithStateLess(true),
	)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle(MCPPath, httpSrv)

	return r
}
