package models

import "time"

type User struct {
	ID                   int64
	Username             string
	Email                string
	PasswordHash         []byte
	FirstName            string
	LastName             string
	MiddleName           *string
	PhoneNumber          *string
	IsAdmin              bool
	IsVerified           bool
	VerificationCode     *string
	VerificationIssuedAt *time.Time
	CreatedAt            time.Time
}

// UserPatch carries the fields an update should overwrite; nil fields are left alone.
type UserPatch struct {
	FirstName            *string
	LastName             *string
	MiddleName           *string
	PhoneNumber          *string
	PasswordHash         []byte
	IsAdmin              *bool
	IsVerified           *bool
	VerificationCode     *string
	VerificationIssuedAt *time.Time
	// ClearVerification nils out the code and issued-at, taking precedence over the two fields above.
	ClearVerification bool
}

type Session struct {
	ID               string
	UserID           int64
	DeviceID         string
	DeviceName       string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
