// Package authority is the outbound counterpart of the inbound request
// authenticator: it signs a transfer order with the local key, seals the
// signature under the receiver's public key and posts the order with the
// protocol's authentication header.
package authority

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"
)

const (
	authScheme     = "bsw"
	receivePath    = "/api/receiveTransactions"
	bankCreditPath = "/api/transactions"
	defaultTimeout = 15 * time.Second
)

type Client struct {
	httpClient *http.Client
	identity   domain.SignerIdentity
	localKey   *rsa.PrivateKey
}

func NewClient(identity domain.SignerIdentity, localKey *rsa.PrivateKey) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		identity:   identity,
		localKey:   localKey,
	}
}

// WithHTTPClient overrides the transport; tests point it at httptest servers.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Send posts order to url, authenticated as the client's identity. The
// receiver re-canonicalizes the parsed body before verifying, so the body
// encoding need not be canonical; the signature is always over the canonical
// form.
func (c *Client) Send(ctx context.Context, url string, receiverPub *rsa.PublicKey, order domain.TransferOrder) error {
	canonical, err := crypto.Canonicalize(order)
	if err != nil {
		return fmt.Errorf("canonicalize order: %w", err)
	}
	sig, err := crypto.SignBytes(canonical, c.localKey)
	if err != nil {
		return fmt.Errorf("sign order: %w", err)
	}
	wrapped, err := crypto.Seal(sig, receiverPub)
	if err != nil {
		return fmt.Errorf("seal signature: %w", err)
	}

	body, err := json.Marshal(order)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("%s %s,%s,%s",
		authScheme, c.identity.Name, c.identity.Code,
		base64.StdEncoding.EncodeToString(wrapped)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteRejected, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrRemoteRejected, resp.StatusCode)
	}
	return nil
}

// SendTransferOrder targets the clearing authority's receive endpoint; the
// bank-side global transfer coordinator uses it.
func (c *Client) SendTransferOrder(ctx context.Context, baseURL string, receiverPub *rsa.PublicKey, order domain.TransferOrder) error {
	return c.Send(ctx, baseURL+receivePath, receiverPub, order)
}

// Forward delivers an authenticated order to the destination bank's credit
// endpoint; the clearing authority's fan-out uses it.
func (c *Client) Forward(ctx context.Context, bank domain.Bank, order domain.TransferOrder) error {
	pub, err := crypto.ParsePublicKeyPEM(bank.PublicKey)
	if err != nil {
		return fmt.Errorf("bank public key: %w", err)
	}
	return c.Send(ctx, bank.Endpoint+bankCreditPath, pub, order)
}

// OrderSender binds a client to one fixed authority endpoint and key. It
// satisfies the transfer coordinator's remote dependency.
type OrderSender struct {
	Client      *Client
	BaseURL     string
	ReceiverPub *rsa.PublicKey
}

func (s *OrderSender) SendTransferOrder(ctx context.Context, order domain.TransferOrder) error {
	if s.BaseURL == "" || s.ReceiverPub == nil {
		return fmt.Errorf("%w: authority endpoint is not configured", domain.ErrRemoteRejected)
	}
	return s.Client.SendTransferOrder(ctx, s.BaseURL, s.ReceiverPub, order)
}
