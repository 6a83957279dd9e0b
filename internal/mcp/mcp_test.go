package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/vaultd/internal/config"
	"github.com/hpungsan/vaultd/internal/ops"
)

const testTaxonomy = `{
	"categories": {
		"defi": {"terms": ["liquidation", "governance", "tvl", "yield"], "collection": "defi-research"},
		"security": {"terms": ["exploit", "audit", "vulnerability"]}
	}
}`

// testSetup creates a temporary vault and config for testing.
func testSetup(t *testing.T) (*ops.Vault, *config.Config) {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "taxonomy.json"), []byte(testTaxonomy), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Environment = "test"
	cfg.MasterPassphrase = "mcp-test-passphrase"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	vault, err := ops.OpenVault(root, cfg, logger)
	if err != nil {
		t.Fatalf("failed to open vault: %v", err)
	}
	t.Cleanup(func() { vault.Close() })

	return vault, cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("content is not TextContent")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	return payload
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	payload := resultPayload(t, result)
	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("error code = %q, want %q", code, expectedCode)
	}
}

func TestHandleQuery(t *testing.T) {
	vault, _ := testSetup(t)
	h := NewHandlers(vault)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "valid query",
			args:      map[string]any{"q": "governance vote"},
			wantError: false,
		},
		{
			name:      "empty query",
			args:      map[string]any{"q": "   "},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "missing query",
			args:      map[string]any{},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleQuery(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.wantError {
				if !result.IsError {
					t.Error("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
			} else if result.IsError {
				t.Errorf("expected success, got error result")
			}
		})
	}
}

func TestHandleQuery_FindsStoredNote(t *testing.T) {
	vault, _ := testSetup(t)
	h := NewHandlers(vault)
	ctx := context.Background()

	if err := vault.Memory.Write("notes.md", "The governance vote on Aave passed quorum yesterday.", "overwrite"); err != nil {
		t.Fatal(err)
	}

	result, err := h.HandleQuery(ctx, makeRequest(map[string]any{"q": "governance vote"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}

	payload := resultPayload(t, result)
	results, ok := payload["results"].([]any)
	if !ok || len(results) == 0 {
		t.Fatalf("expected at least one result, got %v", payload["results"])
	}
}

func TestHandleClassify(t *testing.T) {
	vault, _ := testSetup(t)
	h := NewHandlers(vault)
	ctx := context.Background()

	result, err := h.HandleClassify(ctx, makeRequest(map[string]any{
		"content": "The liquidation cascade drained tvl across lending pools.",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}

	payload := resultPayload(t, result)
	top, ok := payload["top_category"].(map[string]any)
	if !ok {
		t.Fatalf("expected top_category, got %v", payload)
	}
	if top["category"] != "defi" {
		t.Errorf("top category = %v, want defi", top["category"])
	}

	result, err = h.HandleClassify(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for missing content")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleContribute(t *testing.T) {
	vault, _ := testSetup(t)
	h := NewHandlers(vault)
	ctx := context.Background()

	result, err := h.HandleContribute(ctx, makeRequest(map[string]any{
		"content": "Contact me at alice@example.com about the governance exploit.",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}

	payload := resultPayload(t, result)
	sanitised, _ := payload["sanitised"].(string)
	if strings.Contains(sanitised, "alice@example.com") {
		t.Error("sanitised text still contains the email address")
	}
	if !strings.Contains(sanitised, "[redacted]") {
		t.Errorf("sanitised text missing redaction marker: %q", sanitised)
	}
	if payload["status"] != "staged_for_approval" {
		t.Errorf("status = %v, want staged_for_approval", payload["status"])
	}
	if id, _ := payload["contribution_id"].(string); id == "" {
		t.Error("expected a contribution_id")
	}
}

func TestHandleStats(t *testing.T) {
	vault, _ := testSetup(t)
	h := NewHandlers(vault)
	ctx := context.Background()

	result, err := h.HandleStats(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}

	payload := resultPayload(t, result)
	if payload["access_tier"] != "grace" {
		t.Errorf("access_tier = %v, want grace", payload["access_tier"])
	}
}

func TestHandleMemoryReadWrite(t *testing.T) {
	vault, _ := testSetup(t)
	h := NewHandlers(vault)
	ctx := context.Background()

	result, err := h.HandleMemoryWrite(ctx, makeRequest(map[string]any{
		"path":    "notes.md",
		"content": "remember the audit deadline",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}

	result, err = h.HandleMemoryRead(ctx, makeRequest(map[string]any{"path": "notes.md"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}
	payload := resultPayload(t, result)
	if content, _ := payload["content"].(string); !strings.Contains(content, "audit deadline") {
		t.Errorf("read content = %q, want the stored note", content)
	}

	// Path traversal is refused, not resolved
	result, err = h.HandleMemoryRead(ctx, makeRequest(map[string]any{"path": "../../etc/passwd"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error for traversal path")
	}
	assertErrorCode(t, result, "PERMISSION_DENIED")

	result, err = h.HandleMemoryWrite(ctx, makeRequest(map[string]any{
		"path":    "notes.md",
		"content": "x",
		"mode":    "sideways",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error for invalid mode")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleMemoryLogAndSessionContext(t *testing.T) {
	vault, _ := testSetup(t)
	h := NewHandlers(vault)
	ctx := context.Background()

	result, err := h.HandleMemoryLog(ctx, makeRequest(map[string]any{
		"content": "rotated the peer token",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}

	result, err = h.HandleSessionContext(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}
	payload := resultPayload(t, result)
	docs, ok := payload["context"].(map[string]any)
	if !ok {
		t.Fatalf("expected context map, got %v", payload)
	}
	if _, ok := docs["SOUL.md"]; !ok {
		t.Error("context missing SOUL.md")
	}
	found := false
	for _, v := range docs {
		if s, ok := v.(string); ok && strings.Contains(s, "rotated the peer token") {
			found = true
		}
	}
	if !found {
		t.Error("context missing the logged entry")
	}
}

func TestHandleSecrets(t *testing.T) {
	vault, _ := testSetup(t)
	h := NewHandlers(vault)
	ctx := context.Background()

	if _, err := vault.SecretSet(ops.SecretSetInput{Name: "exchange_api_key", Value: "sk-test-12345678"}); err != nil {
		t.Fatal(err)
	}

	result, err := h.HandleSecretGet(ctx, makeRequest(map[string]any{"name": "exchange_api_key"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}
	payload := resultPayload(t, result)
	if payload["value"] != "sk-test-12345678" {
		t.Errorf("secret value = %v, want the stored value", payload["value"])
	}

	result, err = h.HandleSecretGet(ctx, makeRequest(map[string]any{"name": "missing"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error for unknown secret")
	}
	assertErrorCode(t, result, "NOT_FOUND")

	result, err = h.HandleSecretList(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success result")
	}
	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, "exchange_api_key") {
		t.Errorf("listing missing secret name: %q", text)
	}
	if strings.Contains(text, "sk-test-12345678") {
		t.Error("listing must never include secret values")
	}
}

func TestServerRegistration(t *testing.T) {
	vault, cfg := testSetup(t)

	s := NewServer(vault, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"vault_query",
		"vault_classify",
		"vault_contribute",
		"vault_stats",
		"memory_read",
		"memory_write",
		"memory_log",
		"session_context",
		"secret_get",
		"secret_list",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	vault, cfg := testSetup(t)

	cfg.DisabledTools = []string{"vault_contribute", "secret_get"}
	s := NewServer(vault, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 8 {
		t.Errorf("registered tool count = %d, want 8", len(tools))
	}

	for _, name := range []string{"vault_contribute", "secret_get"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}

	for _, name := range []string{"vault_query", "memory_read", "session_context"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("core tool %q should be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	vault, cfg := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(vault, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"vault_query", "bogus_tool", "secret_list"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v, want [bogus_tool]", unknown)
	}

	if unknown := ValidateDisabledTools(nil); len(unknown) != 0 {
		t.Errorf("unknown = %v, want empty", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Errorf("name count = %d, want %d", len(names), len(toolRegistry))
	}
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			t.Errorf("unexpected tool name: %s", name)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	err := io.ErrUnexpectedEOF
	r := errorResult(err)

	if !r.IsError {
		t.Fatal("expected IsError")
	}
	payload := resultPayload(t, r)
	errorObj := payload["error"].(map[string]any)
	if errorObj["code"] != "INTERNAL" {
		t.Errorf("code = %v, want INTERNAL", errorObj["code"])
	}
	if _, ok := errorObj["details"]; ok {
		t.Error("internal errors must not expose details")
	}
	if msg, _ := errorObj["message"].(string); strings.Contains(msg, "EOF") {
		t.Error("internal error message leaked the underlying error")
	}
}
