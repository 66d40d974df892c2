package domain

import "time"

// SignerIdentity is the (name, routing code) pair a counterpart presents when
// it signs a request. Matching is case-insensitive on both fields.
type SignerIdentity struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Bank is one entry of the bank registry: a counterpart the clearing
// authority accepts signed requests from and forwards transfers to.
// Entries are provisioned out of band and read-only to the protocol.
type Bank struct {
	ID        string
	Name      string
	Code      string
	Country   string
	Endpoint  string
	PublicKey []byte // PEM
	CreatedAt time.Time
}

func (b Bank) Identity() SignerIdentity {
	return SignerIdentity{Name: b.Name, Code: b.Code}
}
