// Package server exposes the vault over HTTP. Every route except the health
// check requires a vault token; mutating routes require the owner role. The
// transport stays thin: decode, authenticate, call the operation, encode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hpungsan/vaultd/internal/auth"
	vaulterrors "github.com/hpungsan/vaultd/internal/errors"
	"github.com/hpungsan/vaultd/internal/ops"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server is the vault's HTTP surface.
type Server struct {
	vault  *ops.Vault
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server with all routes registered.
func New(vault *ops.Vault, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		vault:  vault,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Cache-Control", "no-store")
	s.mux.ServeHTTP(w, r)
}

// routes registers all HTTP routes on the server mux.
func (s *Server) routes() {
	// Health and info
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /vault/info", s.requireAuth(s.handleInfo))

	// Secrets
	s.mux.HandleFunc("GET /vault/secrets", s.requireOwner(s.handleSecretList))
	s.mux.HandleFunc("GET /vault/secrets/{name}", s.requireAuth(s.handleSecretGet))
	s.mux.HandleFunc("POST /vault/secrets/{name}", s.requireOwner(s.handleSecretSet))
	s.mux.HandleFunc("DELETE /vault/secrets/{name}", s.requireOwner(s.handleSecretDelete))

	// Memory
	s.mux.HandleFunc("GET /vault/memory", s.requireAuth(s.handleMemoryList))
	s.mux.HandleFunc("GET /vault/memory/context", s.requireAuth(s.handleSessionContext))
	s.mux.HandleFunc("GET /vault/memory/{path...}", s.requireAuth(s.handleMemoryRead))
	s.mux.HandleFunc("POST /vault/memory/log/today", s.requireOwner(s.handleMemoryLog))
	s.mux.HandleFunc("POST /vault/memory/{path...}", s.requireOwner(s.handleMemoryWrite))

	// Query and classification
	s.mux.HandleFunc("POST /vault/query", s.requireAuth(s.handleQuery))
	s.mux.HandleFunc("POST /vault/classify", s.requireAuth(s.handleClassify))

	// Contributions
	s.mux.HandleFunc("POST /vault/contribute", s.requireAuth(s.handleContribute))
	s.mux.HandleFunc("GET /vault/contribute/pending", s.requireOwner(s.handlePending))
	s.mux.HandleFunc("POST /vault/pending/{id}/approve", s.requireOwner(s.handleApprove))
	s.mux.HandleFunc("DELETE /vault/pending/{id}", s.requireOwner(s.handleReject))

	// Stats
	s.mux.HandleFunc("GET /vault/stats", s.requireAuth(s.handleStats))

	// Tokens
	s.mux.HandleFunc("GET /vault/tokens", s.requireOwner(s.handleTokenList))
	s.mux.HandleFunc("POST /vault/tokens", s.requireOwner(s.handleTokenCreate))
	s.mux.HandleFunc("DELETE /vault/tokens", s.requireOwner(s.handleTokenRevoke))

	// Portability
	s.mux.HandleFunc("POST /vault/export", s.requireOwner(s.handleExport))
	s.mux.HandleFunc("POST /vault/import", s.requireOwner(s.handleImport))
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("vault server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// authedHandler receives the validated token record alongside the request.
type authedHandler func(w http.ResponseWriter, r *http.Request, rec *auth.TokenRecord)

// requireAuth validates the X-Vault-Token header.
func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.vault.Auth.Validate(r.Header.Get("X-Vault-Token"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r, rec)
	}
}

// requireOwner additionally rejects subscriber tokens.
func (s *Server) requireOwner(next authedHandler) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, rec *auth.TokenRecord) {
		if rec.Role != auth.RoleOwner {
			s.writeError(w, vaulterrors.NewPermissionDenied("owner token required"))
			return
		}
		next(w, r, rec)
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a VaultError onto its HTTP status and JSON body. Errors
// carrying a retry_after_secs detail (rate-limited auth, throttled queries)
// also set Retry-After.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var vErr *vaulterrors.VaultError
	if e, ok := err.(*vaulterrors.VaultError); ok {
		vErr = e
	} else {
		vErr = vaulterrors.NewInternal(err)
	}

	if retry, ok := vErr.Details["retry_after_secs"]; ok {
		w.Header().Set("Retry-After", fmt.Sprintf("%v", retry))
	}
	if vErr.Status >= 500 {
		s.logger.Error("request failed", "code", vErr.Code, "err", vErr.Message)
	}

	body := map[string]any{
		"error":   string(vErr.Code),
		"message": vErr.Message,
	}
	if len(vErr.Details) > 0 {
		body["details"] = vErr.Details
	}
	writeJSON(w, vErr.Status, body)
}

// decodeBody reads a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return vaulterrors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"vault_id":  s.vault.Auth.VaultID(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}
