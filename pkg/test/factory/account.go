package factory

import (
	"strings"
	"time"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"

	"accountapp/internal/core/domain"
	"accountapp/internal/core/util"
)

// DefaultCredential is the plaintext behind CredentialHash unless the
// caller overrides it.
const DefaultCredential = "Secret123"

// NewAccount builds a persisted-shape Active account. Random values from
// the fabricator are replaced with policy-valid ones for every field the
// caller did not override.
func NewAccount(customData ...map[string]any) domain.Account {
	account := fab.New(domain.Account{}).Build(customData...)

	set := func(field string) bool {
		for _, data := range customData {
			if _, exists := data[field]; exists {
				return true
			}
		}

		return false
	}

	now := time.Now().UTC()

	if !set("ID") {
		account.ID = uuid.New()
	}

	if !set("Login") {
		account.Login = RandomLogin()
	}

	if !set("CredentialHash") {
		hash, _ := util.GenerateEncrypt(DefaultCredential)
		account.CredentialHash = hash
	}

	if !set("Name") {
		account.Name = "Tester"
	}

	if !set("Gender") {
		account.Gender = domain.GenderUnknown
	}

	if !set("Birthday") {
		account.Birthday = nil
	}

	if !set("IsAdmin") {
		account.IsAdmin = false
	}

	if !set("CreatedAt") {
		account.CreatedAt = now
	}

	if !set("CreatedBy") {
		account.CreatedBy = "admin"
	}

	if !set("ModifiedAt") {
		account.ModifiedAt = account.CreatedAt
	}

	if !set("ModifiedBy") {
		account.ModifiedBy = account.CreatedBy
	}

	if !set("RevokedAt") && !set("RevokedBy") {
		account.RevokedAt = nil
		account.RevokedBy = nil
	}

	if !set("Version") {
		account.Version = 1
	}

	return account
}

// NewDraft returns a valid draft with a unique login.
func NewDraft(isAdmin bool) domain.AccountDraft {
	return domain.AccountDraft{
		Login:      RandomLogin(),
		Credential: DefaultCredential,
		Name:       "Tester",
		IsAdmin:    isAdmin,
	}
}

func RandomLogin() string {
	return "user" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
