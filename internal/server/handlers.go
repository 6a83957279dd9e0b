package server

import (
	"net/http"

	"github.com/hpungsan/vaultd/internal/amps"
	"github.com/hpungsan/vaultd/internal/auth"
	"github.com/hpungsan/vaultd/internal/memory"
	"github.com/hpungsan/vaultd/internal/ops"
)

// memoryMode passes the wire mode through; validation happens in the store.
func memoryMode(s string) memory.WriteMode {
	if s == "" {
		return memory.ModeOverwrite
	}
	return memory.WriteMode(s)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.Info()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Secrets handlers

func (s *Server) handleSecretList(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	writeJSON(w, http.StatusOK, s.vault.SecretList())
}

func (s *Server) handleSecretGet(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.SecretGet(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSecretSet(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body struct {
		Value string `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.SecretSet(ops.SecretSetInput{Name: r.PathValue("name"), Value: body.Value})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSecretDelete(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.SecretDelete(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Memory handlers

func (s *Server) handleMemoryList(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.MemoryList()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionContext(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	writeJSON(w, http.StatusOK, s.vault.SessionContext())
}

func (s *Server) handleMemoryRead(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.MemoryRead(r.PathValue("path"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMemoryWrite(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body struct {
		Content string `json:"content"`
		Mode    string `json:"mode"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.MemoryWrite(ops.MemoryWriteInput{
		Path:    r.PathValue("path"),
		Content: body.Content,
		Mode:    memoryMode(body.Mode),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMemoryLog(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.MemoryLog(body.Content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Query and classification handlers

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body ops.QueryInput
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.Query(r.Context(), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body ops.ClassifyInput
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.Classify(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Contributions handlers

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body ops.ContributeInput
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.Contribute(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.Pending()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.Approve(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.Reject(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Stats handlers

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.Stats()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Tokens handlers

func (s *Server) handleTokenList(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	writeJSON(w, http.StatusOK, s.vault.TokenList())
}

func (s *Server) handleTokenCreate(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body ops.TokenCreateInput
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.TokenCreate(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTokenRevoke(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.TokenRevoke(body.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Portability handlers

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	out, err := s.vault.Export()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, _ *auth.TokenRecord) {
	var body struct {
		Document  *amps.Document `json:"document"`
		Overwrite bool           `json:"overwrite"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.vault.Import(ops.ImportInput{Document: body.Document, Overwrite: body.Overwrite})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
