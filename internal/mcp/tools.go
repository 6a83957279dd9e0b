package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions

var queryToolDef = mcp.NewTool("vault_query",
	mcp.WithDescription(
		"Search across personal memory, mounted knowledge vaults, and federated peers. "+
			"Results are deduplicated with the most recent copy of each answer kept as primary.",
	),
	mcp.WithString("q",
		mcp.Required(),
		mcp.Description("Search query, natural language or keywords"),
	),
	mcp.WithBoolean("include_network",
		mcp.Description("Also consult the shared network knowledge base (default: false)"),
	),
)

var classifyToolDef = mcp.NewTool("vault_classify",
	mcp.WithDescription(
		"Score text against the contribution taxonomy without staging anything. "+
			"Use this to preview where a contribution would land before submitting it.",
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Text to classify"),
	),
)

var contributeToolDef = mcp.NewTool("vault_contribute",
	mcp.WithDescription(
		"Sanitise and classify knowledge, then stage it for owner approval. "+
			"Nothing is published until the vault owner approves the staged record. "+
			"The response shows the sanitised text and what was redacted.",
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Knowledge to contribute"),
	),
)

var statsToolDef = mcp.NewTool("vault_stats",
	mcp.WithDescription(
		"Report contribution counters, the give/take ratio, earned credits, "+
			"and the current access tier.",
	),
)

var memoryReadToolDef = mcp.NewTool("memory_read",
	mcp.WithDescription("Read a document from encrypted memory."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Relative document path, e.g. SOUL.md or logs/2026-08-31.md"),
	),
)

var memoryWriteToolDef = mcp.NewTool("memory_write",
	mcp.WithDescription("Write a document to encrypted memory."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Relative document path"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Document content"),
	),
	mcp.WithString("mode",
		mcp.Description("Write mode: overwrite (default) or append"),
	),
)

var memoryLogToolDef = mcp.NewTool("memory_log",
	mcp.WithDescription("Append a timestamped entry to today's activity log."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Log entry"),
	),
)

var sessionContextToolDef = mcp.NewTool("session_context",
	mcp.WithDescription(
		"Load the core memory documents and today's log in one call. "+
			"Call this at the start of a session to restore working context.",
	),
)

var secretGetToolDef = mcp.NewTool("secret_get",
	mcp.WithDescription("Retrieve a decrypted secret by name."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Secret name"),
	),
)

var secretListToolDef = mcp.NewTool("secret_list",
	mcp.WithDescription("List stored secret names. Values are never included."),
)
