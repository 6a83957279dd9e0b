package ops

import (
	"strings"

	"github.com/hpungsan/vaultd/internal/errors"
)

// SecretSetInput contains parameters for the SecretSet operation.
type SecretSetInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SecretSetOutput confirms a stored secret.
type SecretSetOutput struct {
	Stored string `json:"stored"`
}

// SecretSet encrypts and stores a named secret.
func (v *Vault) SecretSet(input SecretSetInput) (*SecretSetOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.NewInvalidRequest("secret name is required")
	}
	if input.Value == "" {
		return nil, errors.NewInvalidRequest("secret value is required")
	}
	if len(input.Value) > v.Config.SecretMaxBytes {
		return nil, errors.NewContentTooLarge("value", v.Config.SecretMaxBytes, len(input.Value))
	}
	if err := v.Secrets.Store(input.Name, input.Value); err != nil {
		return nil, err
	}
	return &SecretSetOutput{Stored: input.Name}, nil
}

// SecretGetOutput carries one decrypted secret. The value lives only in this
// response; it is never logged or cached.
type SecretGetOutput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SecretGet decrypts a secret. Absence and decryption failure are
// indistinguishable to the caller.
func (v *Vault) SecretGet(name string) (*SecretGetOutput, error) {
	value, ok := v.Secrets.Retrieve(name)
	if !ok {
		return nil, errors.NewNotFound("secret", name)
	}
	return &SecretGetOutput{Name: name, Value: value}, nil
}

// SecretDeleteOutput confirms a removed secret.
type SecretDeleteOutput struct {
	Deleted string `json:"deleted"`
}

// SecretDelete removes a secret.
func (v *Vault) SecretDelete(name string) (*SecretDeleteOutput, error) {
	if !v.Secrets.Delete(name) {
		return nil, errors.NewNotFound("secret", name)
	}
	return &SecretDeleteOutput{Deleted: name}, nil
}

// SecretListOutput lists secret names, never values.
type SecretListOutput struct {
	Secrets []string `json:"secrets"`
}

// SecretList enumerates stored secret names.
func (v *Vault) SecretList() *SecretListOutput {
	names := v.Secrets.List()
	if names == nil {
		names = []string{}
	}
	return &SecretListOutput{Secrets: names}
}
