package types

import "time"

// Credential is a stored login. Passwords are kept as entered.
type Credential struct {
	ID        ID        `json:"_id"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the public view of a credential.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// User strips the password.
func (c Credential) User() User {
	return User{ID: c.ID, Username: c.Username, Role: c.Role}
}
