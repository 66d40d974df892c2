// Package keys resolves signer identities to key material. Local keys are
// loaded once from configuration and immutable for the process lifetime; bank
// keys come from the registry store and are read-only to the protocol.
package keys

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"crossbank/internal/config"
	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"
)

// BankSource is the registry lookup: case-insensitive (name, code) match,
// missing or ambiguous entries reported as domain.ErrNotFound.
type BankSource interface {
	GetByIdentity(ctx context.Context, name, code string) (*domain.Bank, error)
}

type Registry struct {
	local     *rsa.PrivateKey
	authority *rsa.PublicKey
	site      *rsa.PublicKey
	banks     BankSource
}

// NewFromConfig loads the local signing key and the configured counterpart
// keys. A node that cannot sign cannot serve signed traffic, so a missing or
// unparsable private key is an error the caller should treat as fatal.
func NewFromConfig(cfg config.Config, banks BankSource) (*Registry, error) {
	localPEM, err := loadPEM(cfg.PrivateKeyBase64, cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("local signing key: %w", err)
	}
	if localPEM == nil {
		return nil, errors.New("local signing key is not configured")
	}
	local, err := crypto.ParsePrivateKeyPEM(localPEM)
	if err != nil {
		return nil, fmt.Errorf("local signing key: %w", err)
	}

	r := &Registry{local: local, banks: banks}

	if pemBytes, err := loadPEM(cfg.AuthorityPubKeyBase64, cfg.AuthorityPubKeyPath); err != nil {
		return nil, fmt.Errorf("authority public key: %w", err)
	} else if pemBytes != nil {
		r.authority, err = crypto.ParsePublicKeyPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("authority public key: %w", err)
		}
	}

	if pemBytes, err := loadPEM(cfg.SitePubKeyBase64, cfg.SitePubKeyPath); err != nil {
		return nil, fmt.Errorf("site public key: %w", err)
	} else if pemBytes != nil {
		r.site, err = crypto.ParsePublicKeyPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("site public key: %w", err)
		}
	}

	return r, nil
}

// New builds a registry from already-parsed keys; tests and embedders use it.
func New(local *rsa.PrivateKey, authority, site *rsa.PublicKey, banks BankSource) *Registry {
	return &Registry{local: local, authority: authority, site: site, banks: banks}
}

// LocalKey is this node's signing key. Never nil on a registry built by
// NewFromConfig.
func (r *Registry) LocalKey() *rsa.PrivateKey { return r.local }

// AuthorityKey is the clearing authority's public key, nil when not
// configured (authority deployments have no counterpart authority).
func (r *Registry) AuthorityKey() *rsa.PublicKey { return r.authority }

// SiteKey is the registered merchant site's public key (authority role).
func (r *Registry) SiteKey() *rsa.PublicKey { return r.site }

// ResolveBank returns the public key of the claimed signer, or
// domain.ErrNotFound. Key parse failures collapse to ErrNotFound as well:
// the caller must not learn whether the identity or the key was the problem.
func (r *Registry) ResolveBank(ctx context.Context, name, code string) (*rsa.PublicKey, error) {
	if r.banks == nil {
		return nil, domain.ErrNotFound
	}
	bank, err := r.banks.GetByIdentity(ctx, name, code)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	pub, err := crypto.ParsePublicKeyPEM(bank.PublicKey)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return pub, nil
}

func loadPEM(b64, path string) ([]byte, error) {
	if b64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, err
		}
		return decoded, nil
	}
	if path != "" {
		return os.ReadFile(path)
	}
	return nil, nil
}
