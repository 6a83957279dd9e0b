package ops

import (
	"github.com/hpungsan/vaultd/internal/amps"
	"github.com/hpungsan/vaultd/internal/errors"
)

// Export snapshots the vault into a portable AMPS document. Secrets are
// never included.
func (v *Vault) Export() (*amps.Document, error) {
	var subscriptions []string
	for _, peer := range v.Peers {
		subscriptions = append(subscriptions, peer.Name)
	}
	return amps.Export(v.Memory, v.Ledger, v.Auth.VaultID(), subscriptions)
}

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Document  *amps.Document `json:"document"`
	Overwrite bool           `json:"overwrite,omitempty"`
}

// Import applies an AMPS document to this vault. Additive by default.
func (v *Vault) Import(input ImportInput) (*amps.ImportResult, error) {
	if input.Document == nil {
		return nil, errors.NewInvalidRequest("document is required")
	}
	result, err := amps.Import(input.Document, v.Memory, input.Overwrite)
	if err != nil {
		return nil, err
	}
	for _, warning := range result.Warnings {
		v.Logger.Warn("import warning", "detail", warning)
	}
	return result, nil
}
