package enclave

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// ErrProofRejected is returned when a proof fails verification.
var ErrProofRejected = errors.New("proof rejected")

// StaticVerifier is a development verifier: the proof must be an HMAC-SHA256
// over the concatenated handles under a shared secret. It stands in for the
// real coprocessor client in local runs and tests.
type StaticVerifier struct {
	secret []byte
}

// NewStaticVerifier constructs a verifier from a shared secret.
func NewStaticVerifier(secret string) *StaticVerifier {
	return &StaticVerifier{secret: []byte(secret)}
}

// VerifyAndBind implements Verifier.
func (v *StaticVerifier) VerifyAndBind(ctx context.Context, handles []Ciphertext, proof []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !hmac.Equal(proof, v.ProofFor(handles)) {
		return ErrProofRejected
	}
	return nil
}

// ProofFor computes the proof the verifier expects for the given handles.
// Exposed so tests and local tooling can produce valid admissions.
func (v *StaticVerifier) ProofFor(handles []Ciphertext) []byte {
	mac := hmac.New(sha256.New, v.secret)
	for _, h := range handles {
		mac.Write(h)
	}
	return mac.Sum(nil)
}
