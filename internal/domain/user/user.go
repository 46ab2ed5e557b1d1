package user

import "errors"

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type User struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"` // never expose hash in JSON
	Roles        []string `json:"roles"`
}

// Public strips the credential so handlers can echo the record back.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Roles:    u.Roles,
	}
}

type PublicUser struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type CreateUserRequest struct {
	Username string   `json:"username" binding:"required,min=3,max=64"`
	Password string   `json:"password" binding:"required,min=8"`
	Roles    []string `json:"roles" binding:"required,min=1,dive,required"`
}

type SetRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,required"`
}
