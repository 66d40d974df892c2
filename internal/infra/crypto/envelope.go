package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// The envelope codec fixes one hash (SHA-256) for content addressing and
// pre-signature digesting, and one signature scheme (RSASSA-PKCS1-v1_5,
// deterministic padding) for the whole protocol.

// HashHex is the uniform content hash: sha256, lowercase hex.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SignBytes signs data as-is. Use Sign for structured payloads so both sides
// agree on the serialization.
func SignBytes(data []byte, key *rsa.PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, errors.New("signing key is required")
	}
	digest := sha256.Sum256(data)
	return rsa.SignPKCS1v15(nil, key, stdcrypto.SHA256, digest[:])
}

// Sign canonicalizes payload and signs the canonical bytes.
func Sign(payload any, key *rsa.PrivateKey) ([]byte, error) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return nil, err
	}
	return SignBytes(canonical, key)
}

// VerifyBytes reports whether sig is a valid signature over data. Malformed
// input of any kind yields false, never a panic.
func VerifyBytes(data, sig []byte, pub *rsa.PublicKey) bool {
	if pub == nil || len(sig) == 0 {
		return false
	}
	digest := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(pub, stdcrypto.SHA256, digest[:], sig) == nil
}

// Verify canonicalizes payload and checks sig against the canonical bytes.
func Verify(payload any, sig []byte, pub *rsa.PublicKey) bool {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return false
	}
	return VerifyBytes(canonical, sig, pub)
}

// Seal encrypts data under pub with RSAES-PKCS1-v1_5, splitting into blocks
// so inputs longer than the modulus allows (an RSA signature, typically) fit.
// The inbound-request protocol double-wraps signatures this way: signed under
// the sender's private key, then sealed under the receiver's public key.
func Seal(data []byte, pub *rsa.PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, errors.New("seal key is required")
	}
	step := pub.Size() - 11
	if step <= 0 {
		return nil, errors.New("seal key is too small")
	}
	var out []byte
	for len(data) > 0 {
		n := step
		if n > len(data) {
			n = len(data)
		}
		block, err := rsa.EncryptPKCS1v15(rand.Reader, pub, data[:n])
		if err != nil {
			return nil, fmt.Errorf("seal: %w", err)
		}
		out = append(out, block...)
		data = data[n:]
	}
	return out, nil
}

// Open reverses Seal with the receiver's private key. Any structural defect
// is an error; callers treat every error as verification failure.
func Open(sealed []byte, key *rsa.PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, errors.New("open key is required")
	}
	size := key.Size()
	if len(sealed) == 0 || len(sealed)%size != 0 {
		return nil, errors.New("open: ciphertext length mismatch")
	}
	var out []byte
	for len(sealed) > 0 {
		block, err := rsa.DecryptPKCS1v15(rand.Reader, key, sealed[:size])
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		out = append(out, block...)
		sealed = sealed[size:]
	}
	return out, nil
}
