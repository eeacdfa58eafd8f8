package domain

import "time"

// User represents an authenticated identity in the platform.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Image         *string    `json:"image,omitempty"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	PasswordHash  string     `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PrincipalID identifies the user as the caller of a request.
func (u *User) PrincipalID() string {
	if u == nil {
		return ""
	}
	return u.ID
}

// ProfilePatch lists the user fields a profile update may touch. Nil means unchanged.
type ProfilePatch struct {
	Name  *string
	Image *string
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Image == nil
}
