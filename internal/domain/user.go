package domain

import (
	"strings" // For case normalization
	"time"    // For timestamps

	"github.com/google/uuid" // For opaque identifiers
)

// User Model
type User struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`                                       // Primary key
	Username  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`                   // Unique, stored lower-cased
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`                      // Unique, stored lower-cased
	CreatedAt time.Time `json:"createdAt"`                                                                // Creation timestamp
	UpdatedAt time.Time `json:"updatedAt"`                                                                // Last update timestamp
	Wallet    *Wallet   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-one relationship with Wallet
}

// Normalize lower-cases username and email. It must run before every write.
func (u *User) Normalize() {
	u.Username = NormalizeUsername(u.Username)
	u.Email = NormalizeEmail(u.Email)
}

// NormalizeUsername returns the stored form of a username
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail returns the stored form of an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
