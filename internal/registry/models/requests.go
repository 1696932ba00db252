package models

import (
	dErrors "sealedreg/pkg/domain-errors"

	"sealedreg/internal/enclave"
)

// RegisterRequest is a single admission. All sensitive fields arrive as opaque
// ciphertext handles; Proof binds them via the encryption collaborator.
type RegisterRequest struct {
	Owner             string             `json:"owner"`
	EncryptedName     enclave.Ciphertext `json:"encrypted_name"`
	EncryptedAge      enclave.Ciphertext `json:"encrypted_age"`
	EncryptedContact  enclave.Ciphertext `json:"encrypted_contact"`
	EncryptedCategory enclave.Ciphertext `json:"encrypted_category"`
	Category          string             `json:"category"`
	Proof             []byte             `json:"proof"`
}

// Validate checks field presence and the category enum. Age eligibility is
// deliberately not checked here: age is encrypted until reconciliation.
func (r *RegisterRequest) Validate() (Category, error) {
	if r.Owner == "" {
		return "", dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if len(r.EncryptedName) == 0 || len(r.EncryptedAge) == 0 ||
		len(r.EncryptedContact) == 0 || len(r.EncryptedCategory) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "all encrypted fields are required")
	}
	return ParseCategory(r.Category)
}

// Handles returns the ciphertext handles in proof-binding order.
func (r *RegisterRequest) Handles() []enclave.Ciphertext {
	return []enclave.Ciphertext{r.EncryptedName, r.EncryptedAge, r.EncryptedContact, r.EncryptedCategory}
}

// BatchRegisterRequest admits up to MaxBatchSize participants atomically under
// one shared proof artifact.
type BatchRegisterRequest struct {
	Owners              []string             `json:"owners"`
	EncryptedNames      []enclave.Ciphertext `json:"encrypted_names"`
	EncryptedAges       []enclave.Ciphertext `json:"encrypted_ages"`
	EncryptedContacts   []enclave.Ciphertext `json:"encrypted_contacts"`
	EncryptedCategories []enclave.Ciphertext `json:"encrypted_categories"`
	Categories          []string             `json:"categories"`
	Proof               []byte               `json:"proof"`
}

// Len returns the batch size.
func (r *BatchRegisterRequest) Len() int { return len(r.Owners) }

// CheckLengths fails when the parallel arrays disagree in length.
func (r *BatchRegisterRequest) CheckLengths() error {
	n := len(r.Owners)
	if len(r.EncryptedNames) != n || len(r.EncryptedAges) != n ||
		len(r.EncryptedContacts) != n || len(r.EncryptedCategories) != n ||
		len(r.Categories) != n {
		return dErrors.New(dErrors.CodeArrayLengthMismatch, "batch arrays must have equal length")
	}
	return nil
}

// Element projects the i-th batch entry as a single admission request sharing
// the batch proof.
func (r *BatchRegisterRequest) Element(i int) RegisterRequest {
	return RegisterRequest{
		Owner:             r.Owners[i],
		EncryptedName:     r.EncryptedNames[i],
		EncryptedAge:      r.EncryptedAges[i],
		EncryptedContact:  r.EncryptedContacts[i],
		EncryptedCategory: r.EncryptedCategories[i],
		Category:          r.Categories[i],
		Proof:             r.Proof,
	}
}

// Handles returns every ciphertext handle in the batch, in element order, for
// the single shared proof verification.
func (r *BatchRegisterRequest) Handles() []enclave.Ciphertext {
	handles := make([]enclave.Ciphertext, 0, 4*len(r.Owners))
	for i := range r.Owners {
		handles = append(handles,
			r.EncryptedNames[i], r.EncryptedAges[i], r.EncryptedContacts[i], r.EncryptedCategories[i])
	}
	return handles
}

// FinalizeRequest carries the authorized plaintext disclosure for one record.
// The transport layer has already authenticated the coordinator; the service
// trusts that the plaintext matches the stored ciphertext unless a Binder is
// configured.
type FinalizeRequest struct {
	PlainName    string `json:"plain_name"`
	PlainAge     int    `json:"plain_age"`
	PlainContact string `json:"plain_contact"`
}

// Validate checks disclosure field presence.
func (r *FinalizeRequest) Validate() error {
	if r.PlainName == "" {
		return dErrors.New(dErrors.CodeValidation, "plain_name is required")
	}
	if r.PlainAge < 0 {
		return dErrors.New(dErrors.CodeValidation, "plain_age must not be negative")
	}
	return nil
}
