package request

type LoginRequest struct {
	Login    string `json:"login" validate:"required,credtoken,max=255"`
	Password string `json:"password" validate:"required,credtoken,max=255"`
}

type CreateAccountRequest struct {
	Login    string  `json:"login" validate:"required,credtoken,max=255"`
	Password string  `json:"password" validate:"required,credtoken,max=255"`
	Name     string  `json:"name" validate:"required,letters,max=255"`
	Gender   string  `json:"gender,omitempty" validate:"omitempty,oneof=Unknown Male Female unknown male female"`
	Birthday *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsAdmin  bool    `json:"is_admin,omitempty"`
}

// UpdateAccountRequest leaves absent fields untouched.
type UpdateAccountRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,letters,max=255"`
	Gender   *string `json:"gender,omitempty" validate:"omitempty,oneof=Unknown Male Female unknown male female"`
	Birthday *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PasswordRequest carries a single credential, for a change or a check.
type PasswordRequest struct {
	Password string `json:"password" validate:"required,credtoken,max=255"`
}

type ChangeLoginRequest struct {
	Login string `json:"login" validate:"required,credtoken,max=255"`
}
