package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	credentialTokenRule = "required,alphanum"
	nameRule            = "required,alphaunicode"
)

var policy = validator.New(validator.WithRequiredStructEnabled())

// ValidateCredentialToken checks the login and credential character class.
func ValidateCredentialToken(s string) error {
	if err := policy.Var(s, credentialTokenRule); err != nil {
		return fmt.Errorf("%w: only latin letters and digits are allowed", ErrValidation)
	}

	return nil
}

// ValidateName accepts a non-empty run of letters of any alphabet.
func ValidateName(s string) error {
	if err := policy.Var(s, nameRule); err != nil {
		return fmt.Errorf("%w: only letters are allowed", ErrValidation)
	}

	return nil
}

func ValidateGender(g Gender) error {
	if !g.IsValid() {
		return fmt.Errorf("%w: unknown gender %d", ErrValidation, int(g))
	}

	return nil
}

// ValidateDraft checks every field of a new account.
func ValidateDraft(d AccountDraft) error {
	if err := ValidateCredentialToken(d.Login); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := ValidateCredentialToken(d.Credential); err != nil {
		return fmt.Errorf("password: %w", err)
	}

	if err := ValidateName(d.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}

	if err := ValidateGender(d.Gender); err != nil {
		return fmt.Errorf("gender: %w", err)
	}

	return nil
}

// ValidatePatch checks only the fields present in the patch.
func ValidatePatch(p AccountPatch) error {
	if p.Name != nil {
		if err := ValidateName(*p.Name); err != nil {
			return fmt.Errorf("name: %w", err)
		}
	}

	if p.Gender != nil {
		if err := ValidateGender(*p.Gender); err != nil {
			return fmt.Errorf("gender: %w", err)
		}
	}

	return nil
}
