package domain

import (
	"time"

	"github.com/google/uuid"
)

// Claims is the identity asserted by an access token.
type Claims struct {
	Subject   uuid.UUID
	Login     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func ClaimsFor(account Account) Claims {
	return Claims{
		Subject: account.ID,
		Login:   account.Login,
		Role:    account.Role(),
	}
}

func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

func (c Claims) Actor() Actor {
	return Actor{ID: c.Subject, Login: c.Login}
}

type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}
