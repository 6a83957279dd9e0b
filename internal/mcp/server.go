// Package mcp exposes vault operations over the Model Context Protocol
// using stdio transport. Tools share the ops layer with the HTTP surface,
// so both transports enforce the same sanitisation and gate rules.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/vaultd/internal/config"
	"github.com/hpungsan/vaultd/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"vault_query": {
		def:     queryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuery },
	},
	"vault_classify": {
		def:     classifyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClassify },
	},
	"vault_contribute": {
		def:     contributeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContribute },
	},
	"vault_stats": {
		def:     statsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStats },
	},
	"memory_read": {
		def:     memoryReadToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMemoryRead },
	},
	"memory_write": {
		def:     memoryWriteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMemoryWrite },
	},
	"memory_log": {
		def:     memoryLogToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMemoryLog },
	},
	"session_context": {
		def:     sessionContextToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionContext },
	},
	"secret_get": {
		def:     secretGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSecretGet },
	},
	"secret_list": {
		def:     secretListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSecretList },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with vault tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(vault *ops.Vault, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"vaultd",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(vault)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(vault *ops.Vault, cfg *config.Config, version string) error {
	s := NewServer(vault, cfg, version)
	return server.ServeStdio(s)
}
