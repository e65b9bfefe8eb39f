package domain

import (
	"fmt"
	"strings"
)

// Role is the authorization level asserted by a token.
type Role int

const (
	RoleNone Role = iota
	RoleAdmin
)

func RoleFor(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}

	return RoleNone
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	default:
		return "None"
	}
}

func (r Role) IsValid() bool {
	return r == RoleNone || r == RoleAdmin
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "None":
		return RoleNone, nil
	case "Admin":
		return RoleAdmin, nil
	default:
		return RoleNone, fmt.Errorf("invalid role: %q", s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))

	if err != nil {
		return err
	}

	*r = role
	return nil
}

type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

var genderNames = []string{"Unknown", "Male", "Female"}

func (g Gender) IsValid() bool {
	return g >= GenderUnknown && int(g) < len(genderNames)
}

func (g Gender) String() string {
	if !g.IsValid() {
		return "Unknown"
	}

	return genderNames[g]
}

// ParseGender accepts the gender name case-insensitively; the empty
// string maps to GenderUnknown.
func ParseGender(s string) (Gender, error) {
	if s == "" {
		return GenderUnknown, nil
	}

	for i, name := range genderNames {
		if strings.EqualFold(name, s) {
			return Gender(i), nil
		}
	}

	return GenderUnknown, fmt.Errorf("%w: unknown gender %q", ErrValidation, s)
}

func (g Gender) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Gender) UnmarshalText(text []byte) error {
	gender, err := ParseGender(string(text))

	if err != nil {
		return err
	}

	*g = gender
	return nil
}
