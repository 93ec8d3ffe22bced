// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an author account. Authentication itself lives in the server package.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254" json:"-"`
	Password  string    `gorm:"not null" json:"-"`
	FirstName string    `gorm:"size:150" json:"first_name,omitempty"`
	LastName  string    `gorm:"size:150" json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (u User) String() string {
	return u.Username
}

// FullName returns "First Last", falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
