package models

// RoleAdmin is the role literal granting admin views.
const RoleAdmin = "admin"

// User is the profile stored at users/{uid}.
type User struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     string `json:"createdAt"`
}

// SetID assigns the store key to the entity.
func (u *User) SetID(id string) { u.ID = id }

// IsAdmin reports whether the user's role is the admin literal.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName falls back to the email, then the id.
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	}
	return u.ID
}
