package ops

import (
	"strings"

	"github.com/hpungsan/vaultd/internal/errors"
	"github.com/hpungsan/vaultd/internal/memory"
)

// MemoryReadOutput carries one document's content.
type MemoryReadOutput struct {
	File    string `json:"file"`
	Content string `json:"content"`
}

// MemoryRead returns a stored document.
func (v *Vault) MemoryRead(path string) (*MemoryReadOutput, error) {
	content, err := v.Memory.Read(path)
	if err != nil {
		return nil, err
	}
	return &MemoryReadOutput{File: path, Content: content}, nil
}

// MemoryWriteInput contains parameters for the MemoryWrite operation.
type MemoryWriteInput struct {
	Path    string           `json:"path"`
	Content string           `json:"content"`
	Mode    memory.WriteMode `json:"mode"`
}

// MemoryWriteOutput confirms a write.
type MemoryWriteOutput struct {
	File string `json:"file"`
	Mode string `json:"mode"`
}

// MemoryWrite stores a document, overwriting or appending.
func (v *Vault) MemoryWrite(input MemoryWriteInput) (*MemoryWriteOutput, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}
	if len(input.Content) > v.Config.MemoryMaxBytes {
		return nil, errors.NewContentTooLarge("content", v.Config.MemoryMaxBytes, len(input.Content))
	}
	mode := input.Mode
	if mode == "" {
		mode = memory.ModeOverwrite
	}
	if err := v.Memory.Write(input.Path, input.Content, mode); err != nil {
		return nil, err
	}
	return &MemoryWriteOutput{File: input.Path, Mode: string(mode)}, nil
}

// MemoryLog appends a block to today's dated log.
func (v *Vault) MemoryLog(content string) (*MemoryWriteOutput, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}
	if len(content) > v.Config.MemoryMaxBytes {
		return nil, errors.NewContentTooLarge("content", v.Config.MemoryMaxBytes, len(content))
	}
	file, err := v.Memory.AppendLog(content)
	if err != nil {
		return nil, err
	}
	return &MemoryWriteOutput{File: file, Mode: string(memory.ModeAppend)}, nil
}

// SessionContextOutput bundles the bootstrap documents for a fresh session.
type SessionContextOutput struct {
	Context map[string]string `json:"context"`
}

// SessionContext loads the core documents plus recent logs.
func (v *Vault) SessionContext() *SessionContextOutput {
	return &SessionContextOutput{Context: v.Memory.LoadSessionContext()}
}

// MemoryListOutput lists stored documents.
type MemoryListOutput struct {
	Files []memory.FileInfo `json:"files"`
}

// MemoryList enumerates documents with sizes, timestamps, and titles.
func (v *Vault) MemoryList() (*MemoryListOutput, error) {
	files, err := v.Memory.ListFiles()
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []memory.FileInfo{}
	}
	return &MemoryListOutput{Files: files}, nil
}
