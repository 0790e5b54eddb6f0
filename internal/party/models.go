// Package party is the role model for the two sides of the system: the
// insurer operating the authoritative ledger and the hospitals reading the
// mirror. Roles are checked per operation, so adding another insurer or
// hospital is a registration, not a rewrite.
package party

import (
	"time"

	"github.com/google/uuid"

	dErrors "insurechain/pkg/domain-errors"
)

// Role gates what a party may do: insurers drive the ledger, hospitals
// submit patient records and query the mirror.
type Role string

const (
	RoleInsurer  Role = "insurer"
	RoleHospital Role = "hospital"
)

func (r Role) Valid() bool {
	return r == RoleInsurer || r == RoleHospital
}

// Party is a registered organization.
//
// Invariants:
//   - Name is non-empty and unique across parties
//   - Role is one of the known roles
//   - SecretHash never leaves the party store in API responses
type Party struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	SecretHash []byte    `json:"-"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewParty validates registration inputs. The secret hash is supplied by the
// service after hashing.
func NewParty(id uuid.UUID, name string, role Role, secretHash []byte, now time.Time) (*Party, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "party name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "party name must be 128 characters or less")
	}
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown party role %q", role)
	}
	return &Party{
		ID:         id,
		Name:       name,
		Role:       role,
		SecretHash: secretHash,
		Active:     true,
		CreatedAt:  now,
	}, nil
}

// Actor is the authenticated identity attached to a request. The ledger
// compares Actor.Name against policy holders and Actor.Role against the
// operation's required role.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role Role
}
