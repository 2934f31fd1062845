package model

import "time"

// Account mirrors the 'accounts' table. PasswordHash never leaves the
// process; external representations go through PublicAccount.
type Account struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role mirrors the 'roles' table. Names are stored lower-cased and are
// unique; roles are created lazily the first time they are referenced.
type Role struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// PublicAccount is the password-stripped view of an Account returned to
// clients and attached to call contexts after authorization.
type PublicAccount struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Roles    []Role `json:"roles"`
}

// Public strips the password hash from an account.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Roles:    a.Roles,
	}
}

// HasRole reports whether the account carries the named role.
func (p PublicAccount) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
