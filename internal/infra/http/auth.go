package http

import (
	"crypto/rsa"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"crossbank/internal/domain"
	"crossbank/internal/infra/crypto"

	"github.com/gin-gonic/gin"
)

const (
	authScheme = "bsw"

	// maxSignedBody bounds inbound signed requests; transfer orders are small.
	maxSignedBody = 1 << 20
)

// requireSigned authenticates an inbound protocol request. The Authorization
// header carries `bsw <name>,<code>,<sig>` where sig is the sender's
// signature over the canonical body, sealed under this node's public key.
// Every failure, from a missing header to a wrong byte in the body, produces
// the same 403 so a probing caller learns nothing.
func (s *Server) requireSigned(c *gin.Context) (domain.SignerIdentity, []byte, bool) {
	forbid := func() (domain.SignerIdentity, []byte, bool) {
		writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
		return domain.SignerIdentity{}, nil, false
	}

	if s.registry == nil {
		return forbid()
	}

	identity, wrapped, ok := parseAuthHeader(c.GetHeader("Authorization"))
	if !ok {
		return forbid()
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSignedBody))
	if err != nil {
		return forbid()
	}

	pub, err := s.resolveSignerKey(c, identity)
	if err != nil {
		return forbid()
	}

	sig, err := crypto.Open(wrapped, s.registry.LocalKey())
	if err != nil {
		return forbid()
	}
	canonical, err := crypto.CanonicalizeJSON(body)
	if err != nil {
		return forbid()
	}
	if !crypto.VerifyBytes(canonical, sig, pub) {
		return forbid()
	}
	return identity, body, true
}

// resolveSignerKey maps the claimed identity to its public key. Authority
// deployments consult the bank registry; bank deployments know a single
// counterpart, the configured authority key.
func (s *Server) resolveSignerKey(c *gin.Context, identity domain.SignerIdentity) (*rsa.PublicKey, error) {
	pub, err := s.registry.ResolveBank(c.Request.Context(), identity.Name, identity.Code)
	if err == nil {
		return pub, nil
	}
	if authority := s.registry.AuthorityKey(); authority != nil {
		return authority, nil
	}
	return nil, err
}

func parseAuthHeader(value string) (domain.SignerIdentity, []byte, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, authScheme+" ") {
		return domain.SignerIdentity{}, nil, false
	}
	parts := strings.Split(value[len(authScheme)+1:], ",")
	if len(parts) != 3 {
		return domain.SignerIdentity{}, nil, false
	}
	name := strings.TrimSpace(parts[0])
	code := strings.TrimSpace(parts[1])
	if name == "" || code == "" {
		return domain.SignerIdentity{}, nil, false
	}
	wrapped, err := base64.StdEncoding.DecodeString(strings.TrimSpace(parts[2]))
	if err != nil || len(wrapped) == 0 {
		return domain.SignerIdentity{}, nil, false
	}
	return domain.SignerIdentity{Name: name, Code: code}, wrapped, true
}
