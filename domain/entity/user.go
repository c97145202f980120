package entity

import (
	"strings"
	"time"
)

// UserProfile is the identity record served by the API. The client never
// creates one on its own; it only decodes what the server returns.
type UserProfile struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"fname"`
	LastName    string    `json:"lname"`
	Email       string    `json:"email"`
	IsSuperuser bool      `json:"is_superuser"`
	IsAdmin     bool      `json:"is_admin"`
	IsStaff     bool      `json:"is_staff"`
	JoinedOn    time.Time `json:"joined_on,omitempty"`
}

func (u *UserProfile) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Role is the label shown in the admin user table.
func (u *UserProfile) Role() string {
	if u.IsSuperuser {
		return "Admin"
	}
	return "User"
}

// UserUpdate is the payload of PUT /api/users/{id}/. An empty password is
// omitted so the server keeps the current one.
type UserUpdate struct {
	FirstName   string `json:"fname"`
	LastName    string `json:"lname"`
	Email       string `json:"email"`
	Password    string `json:"password,omitempty"`
	IsSuperuser bool   `json:"is_superuser"`
	IsAdmin     bool   `json:"is_admin"`
	IsStaff     bool   `json:"is_staff"`
}

func NewUserUpdate(u UserProfile, password string) UserUpdate {
	return UserUpdate{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Password:    password,
		IsSuperuser: u.IsSuperuser,
		IsAdmin:     u.IsAdmin,
		IsStaff:     u.IsStaff,
	}
}
