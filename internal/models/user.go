package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RolePatient UserRole = "patient"
	RoleDoctor  UserRole = "doctor"
)

type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:64"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string   `json:"-" gorm:"not null;size:255"`
	Role      UserRole `json:"role" gorm:"not null;size:20;index"`
	FirstName string   `json:"first_name" gorm:"not null;size:100"`
	LastName  string   `json:"last_name" gorm:"not null;size:100"`
	Phone     *string  `json:"phone,omitempty" gorm:"size:20"`

	// Patient profile
	Age       *int    `json:"age,omitempty"`
	Gender    *string `json:"gender,omitempty" gorm:"size:10"`
	BloodType *string `json:"blood_type,omitempty" gorm:"size:5"`
	DoctorID  *string `json:"doctor_id,omitempty" gorm:"size:64;index"`

	// Doctor profile
	Specialty *string `json:"specialty,omitempty" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsDoctor() bool  { return u.Role == RoleDoctor }
func (u *User) IsPatient() bool { return u.Role == RolePatient }

// MatchesSearch reports whether term occurs in the first name, last name or
// email, ignoring case. An empty term matches everyone.
func (u *User) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.FirstName), term) ||
		strings.Contains(strings.ToLower(u.LastName), term) ||
		strings.Contains(strings.ToLower(u.Email), term)
}
