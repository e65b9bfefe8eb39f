package domain

import (
	"time"

	"github.com/google/uuid"
)

// SystemActor is recorded as the author of records created by the process itself.
const SystemActor = "system"

type Account struct {
	ID             uuid.UUID
	Login          string
	CredentialHash string
	Name           string
	Gender         Gender
	Birthday       *time.Time
	IsAdmin        bool
	CreatedAt      time.Time
	CreatedBy      string
	ModifiedAt     time.Time
	ModifiedBy     string
	RevokedAt      *time.Time
	RevokedBy      *string
	Version        int64
}

// AccountDraft carries the caller supplied fields of a new account.
type AccountDraft struct {
	Login      string
	Credential string
	Name       string
	Gender     Gender
	Birthday   *time.Time
	IsAdmin    bool
}

// AccountPatch lists profile fields to change; nil fields are left untouched.
type AccountPatch struct {
	Name     *string
	Gender   *Gender
	Birthday *time.Time
}

// AccountFilter is the predicate accepted by AccountRepository.List.
// Nil fields do not constrain the result.
type AccountFilter struct {
	Revoked        *bool
	IsAdmin        *bool
	BornOnOrBefore *time.Time
}

// Actor identifies the authenticated caller performing a mutation.
type Actor struct {
	ID    uuid.UUID
	Login string
}

func (a *Account) IsRevoked() bool {
	return a.RevokedAt != nil
}

func (a *Account) IsActive() bool {
	return !a.IsRevoked()
}

func (a *Account) Role() Role {
	return RoleFor(a.IsAdmin)
}

// Touch stamps the modification audit fields.
func (a *Account) Touch(by string, at time.Time) {
	a.ModifiedAt = at
	a.ModifiedBy = by
}

// Revoke moves the account to the Revoked state. Revoking an already
// revoked account overwrites the previous stamp.
func (a *Account) Revoke(by string, at time.Time) {
	revokedAt := at
	revokedBy := by

	a.RevokedAt = &revokedAt
	a.RevokedBy = &revokedBy
	a.Touch(by, at)
}

// Restore moves the account back to the Active state.
func (a *Account) Restore(by string, at time.Time) {
	a.RevokedAt = nil
	a.RevokedBy = nil
	a.Touch(by, at)
}

// Apply copies the non-nil patch fields onto the account.
func (a *Account) Apply(patch AccountPatch) {
	if patch.Name != nil {
		a.Name = *patch.Name
	}

	if patch.Gender != nil {
		a.Gender = *patch.Gender
	}

	if patch.Birthday != nil {
		birthday := DateOf(*patch.Birthday)
		a.Birthday = &birthday
	}
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// YearsBefore moves the calendar date of t back by years, keeping month and
// day. A day missing from the target month (Feb 29) clamps to its last day.
func YearsBefore(t time.Time, years int) time.Time {
	y, m, d := t.Date()

	lastDay := time.Date(y-years, m+1, 0, 0, 0, 0, 0, time.UTC).Day()

	return time.Date(y-years, m, min(d, lastDay), 0, 0, 0, 0, time.UTC)
}

func BoolPtr(b bool) *bool {
	return &b
}
