package domain

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func TestAccount_IsRevoked(t *testing.T) {
	t.Run("should return false when RevokedAt is nil", func(t *testing.T) {
		account := Account{RevokedAt: nil}

		assert.False(t, account.IsRevoked())
		assert.True(t, account.IsActive())
	})

	t.Run("should return true when RevokedAt is not nil", func(t *testing.T) {
		now := time.Now()
		account := Account{RevokedAt: &now}

		assert.True(t, account.IsRevoked())
		assert.False(t, account.IsActive())
	})
}

func TestAccount_RevokeAndRestore(t *testing.T) {
	RegisterTestingT(t)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	revokedAt := created.Add(time.Hour)
	restoredAt := revokedAt.Add(time.Hour)

	account := Account{CreatedAt: created, CreatedBy: "admin", ModifiedAt: created, ModifiedBy: "admin"}

	account.Revoke("root", revokedAt)

	Expect(account.IsRevoked()).To(BeTrue())
	Expect(*account.RevokedAt).To(Equal(revokedAt))
	Expect(*account.RevokedBy).To(Equal("root"))
	Expect(account.ModifiedAt).To(Equal(revokedAt))
	Expect(account.ModifiedBy).To(Equal("root"))

	account.Restore("admin", restoredAt)

	Expect(account.IsRevoked()).To(BeFalse())
	Expect(account.RevokedAt).To(BeNil())
	Expect(account.RevokedBy).To(BeNil())
	Expect(account.ModifiedAt).To(Equal(restoredAt))
	Expect(account.CreatedAt).To(Equal(created))
}

func TestAccount_Revoke_OverwritesStamp(t *testing.T) {
	RegisterTestingT(t)

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	account := Account{}
	account.Revoke("a", first)
	account.Revoke("b", second)

	Expect(*account.RevokedAt).To(Equal(second))
	Expect(*account.RevokedBy).To(Equal("b"))
}

func TestAccount_Apply(t *testing.T) {
	RegisterTestingT(t)

	birthday := time.Date(1990, 5, 17, 13, 45, 0, 0, time.FixedZone("X", 3*3600))
	name := "Bob"
	gender := GenderMale

	account := Account{Name: "Alice", Gender: GenderFemale}

	account.Apply(AccountPatch{})
	Expect(account.Name).To(Equal("Alice"))
	Expect(account.Gender).To(Equal(GenderFemale))
	Expect(account.Birthday).To(BeNil())

	account.Apply(AccountPatch{Name: &name, Gender: &gender, Birthday: &birthday})
	Expect(account.Name).To(Equal("Bob"))
	Expect(account.Gender).To(Equal(GenderMale))
	Expect(*account.Birthday).To(Equal(time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)))
}

func TestRole(t *testing.T) {
	RegisterTestingT(t)

	Expect(RoleFor(true)).To(Equal(RoleAdmin))
	Expect(RoleFor(false)).To(Equal(RoleNone))
	Expect(RoleAdmin.String()).To(Equal("Admin"))
	Expect(RoleNone.String()).To(Equal("None"))

	role, err := ParseRole("Admin")
	Expect(err).ToNot(HaveOccurred())
	Expect(role).To(Equal(RoleAdmin))

	_, err = ParseRole("admin")
	Expect(err).To(HaveOccurred())

	encoded, err := json.Marshal(map[string]Role{"role": RoleAdmin})
	Expect(err).ToNot(HaveOccurred())
	Expect(string(encoded)).To(Equal(`{"role":"Admin"}`))

	var decoded struct {
		Role Role `json:"role"`
	}
	Expect(json.Unmarshal([]byte(`{"role":"None"}`), &decoded)).To(Succeed())
	Expect(decoded.Role).To(Equal(RoleNone))
	Expect(json.Unmarshal([]byte(`{"role":"Root"}`), &decoded)).ToNot(Succeed())
}

func TestGender(t *testing.T) {
	RegisterTestingT(t)

	gender, err := ParseGender("female")
	Expect(err).ToNot(HaveOccurred())
	Expect(gender).To(Equal(GenderFemale))

	gender, err = ParseGender("")
	Expect(err).ToNot(HaveOccurred())
	Expect(gender).To(Equal(GenderUnknown))

	_, err = ParseGender("other")
	Expect(err).To(MatchError(ErrValidation))

	Expect(Gender(42).IsValid()).To(BeFalse())
	Expect(Gender(42).String()).To(Equal("Unknown"))
}

func TestClaimsFor(t *testing.T) {
	RegisterTestingT(t)

	account := Account{Login: "alice1", IsAdmin: true}
	claims := ClaimsFor(account)

	Expect(claims.Login).To(Equal("alice1"))
	Expect(claims.Role).To(Equal(RoleAdmin))
	Expect(claims.IsAdmin()).To(BeTrue())
	Expect(claims.Actor().Login).To(Equal("alice1"))
}

func TestYearsBefore(t *testing.T) {
	RegisterTestingT(t)

	leapDay := time.Date(2024, 2, 29, 15, 30, 0, 0, time.UTC)

	Expect(YearsBefore(leapDay, 1)).To(Equal(time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)))
	Expect(YearsBefore(leapDay, 4)).To(Equal(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)))
	Expect(YearsBefore(leapDay, 0)).To(Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))

	Expect(YearsBefore(time.Date(2024, 6, 15, 23, 0, 0, 0, time.UTC), 18)).
		To(Equal(time.Date(2006, 6, 15, 0, 0, 0, 0, time.UTC)))
	Expect(YearsBefore(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 1)).
		To(Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}
