package domain

// PolicyInput is what the clearing authority hands to the transfer-acceptance
// policy after the request has been authenticated.
type PolicyInput struct {
	Bank  SignerIdentity `json:"bank"`
	Order TransferOrder  `json:"order"`
}

type PolicyDenyReason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PolicyResult struct {
	Allow bool               `json:"allow"`
	Deny  []PolicyDenyReason `json:"deny"`
}

type PolicyEvaluation struct {
	BundleHash string
	Result     PolicyResult
}
