package domain

import "errors"

var (
	// ErrAuthentication covers every inbound trust failure: missing or
	// malformed header, unknown signer, signature mismatch. Callers must not
	// leak which check failed.
	ErrAuthentication = errors.New("authentication failed")

	ErrMalformedPayload  = errors.New("malformed payload")
	ErrSignatureInvalid  = errors.New("signature invalid")
	ErrSessionInvalid    = errors.New("payment session invalid")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRemoteRejected    = errors.New("remote transfer rejected")
	ErrPersistence       = errors.New("persistence failure")
	ErrPolicyDenied      = errors.New("transfer denied by policy")
	ErrNotFound          = errors.New("not found")

	// ErrReconciliationGap marks a transfer whose remote leg committed but
	// whose local leg did not. It must surface in logs for manual
	// reconciliation, never be dropped.
	ErrReconciliationGap = errors.New("reconciliation gap")
)
