package models

import (
	"time"

	dErrors "sealedreg/pkg/domain-errors"

	"sealedreg/internal/enclave"
)

// Category determines the eligibility threshold applied at reconciliation.
type Category string

const (
	CategoryIndividual Category = "individual"
	CategoryTeam       Category = "team"
	CategoryEndurance  Category = "endurance"
	CategoryCombat     Category = "combat"
	CategoryOther      Category = "other"
)

// ParseCategory validates a caller-supplied category against the fixed enum.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryIndividual, CategoryTeam, CategoryEndurance, CategoryCombat, CategoryOther:
		return Category(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown category: "+s)
}

// State is the two-step record lifecycle. The transition is monotonic: a
// decrypted record never returns to Submitted.
type State string

const (
	StateSubmitted State = "submitted"
	StateDecrypted State = "decrypted"
)

// Record is one participant registration. The Encrypted* fields are opaque
// handles; the Plain* fields and DecryptedAt are populated exactly once, when
// the authorized disclosure is reconciled.
type Record struct {
	Owner string

	EncryptedName     enclave.Ciphertext
	EncryptedAge      enclave.Ciphertext
	EncryptedContact  enclave.Ciphertext
	EncryptedCategory enclave.Ciphertext

	Category    Category
	SubmittedAt time.Time

	State       State
	DecryptedAt *time.Time
	PlainName   string
	PlainAge    int
	PlainContact string
}

// Decrypted reports whether the record has been reconciled.
func (r *Record) Decrypted() bool {
	return r.State == StateDecrypted
}

// Snapshot is the caller-facing view of a record. Plaintext fields are present
// only once the record is decrypted; before that, callers see the handles.
type Snapshot struct {
	Owner       string    `json:"owner"`
	Category    Category  `json:"category"`
	SubmittedAt time.Time `json:"submitted_at"`
	IsDecrypted bool      `json:"is_decrypted"`

	EncryptedName     enclave.Ciphertext `json:"encrypted_name,omitempty"`
	EncryptedAge      enclave.Ciphertext `json:"encrypted_age,omitempty"`
	EncryptedContact  enclave.Ciphertext `json:"encrypted_contact,omitempty"`
	EncryptedCategory enclave.Ciphertext `json:"encrypted_category,omitempty"`

	DecryptedAt  *time.Time `json:"decrypted_at,omitempty"`
	PlainName    string     `json:"plain_name,omitempty"`
	PlainAge     int        `json:"plain_age,omitempty"`
	PlainContact string     `json:"plain_contact,omitempty"`
}

// SnapshotOf projects a record into its caller-facing view, hiding plaintext
// until the record is decrypted and hiding handles after it is.
func SnapshotOf(r *Record) Snapshot {
	snap := Snapshot{
		Owner:       r.Owner,
		Category:    r.Category,
		SubmittedAt: r.SubmittedAt,
		IsDecrypted: r.Decrypted(),
	}
	if r.Decrypted() {
		snap.DecryptedAt = r.DecryptedAt
		snap.PlainName = r.PlainName
		snap.PlainAge = r.PlainAge
		snap.PlainContact = r.PlainContact
		return snap
	}
	snap.EncryptedName = r.EncryptedName
	snap.EncryptedAge = r.EncryptedAge
	snap.EncryptedContact = r.EncryptedContact
	snap.EncryptedCategory = r.EncryptedCategory
	return snap
}
