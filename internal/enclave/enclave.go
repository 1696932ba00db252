// Package enclave defines the boundary to the external encryption collaborator:
// the coprocessor that binds ciphertexts to proofs at admission and produces
// authorized plaintext disclosures out-of-band. The registry never interprets
// ciphertext content; it stores and compares handles as whole values only.
package enclave

//go:generate mockgen -source=enclave.go -destination=mocks/mocks.go -package=mocks

import (
	"bytes"
	"context"
)

// Ciphertext is an opaque handle to an encrypted value. The registry treats it
// as an uninterpretable token: no decode operations are exposed here, so
// registry logic cannot branch on ciphertext content.
type Ciphertext []byte

// Equal compares two handles as whole values.
func (c Ciphertext) Equal(other Ciphertext) bool {
	return bytes.Equal(c, other)
}

// String redacts the handle so ciphertexts never leak into logs.
func (c Ciphertext) String() string {
	return "ciphertext(redacted)"
}

// Verifier gates admission. VerifyAndBind checks that the supplied proof binds
// the given ciphertext handles; any error (including a caller-imposed context
// deadline) rejects the admission with no state change.
type Verifier interface {
	VerifyAndBind(ctx context.Context, handles []Ciphertext, proof []byte) error
}

// Disclosure is the authorized plaintext for one record, as delivered over the
// out-of-band channel.
type Disclosure struct {
	Name    string
	Age     int
	Contact string
}

// Binder is an optional extension point for reconciliation: implementations
// check that a disclosed plaintext corresponds to the stored ciphertext
// handles. The default deployment leaves this to the external collaborator and
// does not configure a Binder.
type Binder interface {
	BindDisclosure(ctx context.Context, handles []Ciphertext, disclosure Disclosure) error
}
