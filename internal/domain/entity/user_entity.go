package entity

import (
	"time"
)

// User is the aggregate root for the identity domain.
// Password holds a bcrypt hash. OTPCode and OTPExpiresAt are set while the
// account waits for email verification and cleared afterwards.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	SecondLastName string
	Email          string
	Password       string
	OTPCode        *string
	OTPExpiresAt   *time.Time
	PointsSpent    int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Verified reports whether the one-time passcode has been consumed.
func (u *User) Verified() bool {
	return u.OTPCode == nil
}

// FullName joins the name parts that are present.
func (u *User) FullName() string {
	name := u.FirstName
	for _, p := range []string{u.LastName, u.SecondLastName} {
		if p != "" {
			name += " " + p
		}
	}
	return name
}
