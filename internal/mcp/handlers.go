package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/vaultd/internal/errors"
	"github.com/hpungsan/vaultd/internal/memory"
	"github.com/hpungsan/vaultd/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	vault *ops.Vault
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(vault *ops.Vault) *Handlers {
	return &Handlers{vault: vault}
}

// Request types for each tool

// QueryRequest represents the arguments for vault_query.
type QueryRequest struct {
	Q              string `json:"q"`
	IncludeNetwork bool   `json:"include_network,omitempty"`
}

// ClassifyRequest represents the arguments for vault_classify.
type ClassifyRequest struct {
	Content string `json:"content"`
}

// ContributeRequest represents the arguments for vault_contribute.
type ContributeRequest struct {
	Content string `json:"content"`
}

// MemoryReadRequest represents the arguments for memory_read.
type MemoryReadRequest struct {
	Path string `json:"path"`
}

// MemoryWriteRequest represents the arguments for memory_write.
type MemoryWriteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Mode    string `json:"mode,omitempty"`
}

// MemoryLogRequest represents the arguments for memory_log.
type MemoryLogRequest struct {
	Content string `json:"content"`
}

// SecretGetRequest represents the arguments for secret_get.
type SecretGetRequest struct {
	Name string `json:"name"`
}

// Handler implementations

// HandleQuery handles the vault_query tool call.
func (h *Handlers) HandleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QueryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.vault.Query(ctx, ops.QueryInput{
		Q:              input.Q,
		IncludeNetwork: input.IncludeNetwork,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleClassify handles the vault_classify tool call.
func (h *Handlers) HandleClassify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClassifyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.vault.Classify(ops.ClassifyInput{Content: input.Content})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContribute handles the vault_contribute tool call.
func (h *Handlers) HandleContribute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ContributeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.vault.Contribute(ops.ContributeInput{Content: input.Content})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStats handles the vault_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.vault.Stats()
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMemoryRead handles the memory_read tool call.
func (h *Handlers) HandleMemoryRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MemoryReadRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.vault.MemoryRead(input.Path)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMemoryWrite handles the memory_write tool call.
func (h *Handlers) HandleMemoryWrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MemoryWriteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode := memory.ModeOverwrite
	if input.Mode != "" {
		mode = memory.WriteMode(input.Mode)
	}

	result, err := h.vault.MemoryWrite(ops.MemoryWriteInput{
		Path:    input.Path,
		Content: input.Content,
		Mode:    mode,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMemoryLog handles the memory_log tool call.
func (h *Handlers) HandleMemoryLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MemoryLogRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.vault.MemoryLog(input.Content)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionContext handles the session_context tool call.
func (h *Handlers) HandleSessionContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.vault.SessionContext())
}

// HandleSecretGet handles the secret_get tool call.
func (h *Handlers) HandleSecretGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SecretGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.vault.SecretGet(input.Name)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSecretList handles the secret_list tool call.
func (h *Handlers) HandleSecretList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.vault.SecretList())
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if vaultErr, ok := err.(*errors.VaultError); ok {
		errorObj := map[string]any{
			"code":    vaultErr.Code,
			"message": vaultErr.Message,
			"status":  vaultErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if vaultErr.Code != errors.ErrInternal && vaultErr.Details != nil {
			errorObj["details"] = vaultErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
