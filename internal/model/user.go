package model

import "time"

// User represents an identity record as stored in the `users` table.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	EmailAddress – contact address, required.
//	DisplayName  – first and last name joined at registration.
//	PasswordHash – bcrypt hash; the salt and cost factor live inside it.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"emailAddress"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
