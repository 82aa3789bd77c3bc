package domain

import "time"

// User is an identity record. Email is unique across all users. Token holds
// the single active session token, empty when the user has never logged in;
// issuing a new token overwrites the previous one.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Phones       []Phone
	LastLogin    *time.Time
	Token        string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Phone is a contact number attached to a user.
type Phone struct {
	ID          int64
	UserID      int64
	Number      string
	CityCode    string
	CountryCode string
}

// Identity is the authenticated principal established for a request.
type Identity struct {
	UserID int64
	Email  string
}
