package mcp

import (
	"github.com/gomcpgo/mcp/pkg/handler"
	"github.com/gomcpgo/mcp/pkg/server"
)

// ServerName is the name announced during initialization.
const ServerName = "fastmail-mcp"

// Serve runs the stdio server with h until stdin closes.
func Serve(h *Handler, version string) error {
	registry := handler.NewHandlerRegistry()
	registry.RegisterToolHandler(h)

	srv := server.New(server.Options{
		Name:     ServerName,
		Version:  version,
		Registry: registry,
	})
	return srv.Run()
}
