package models

import "time"

// User is an account row. Secrets are hashed at rest and never serialized.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time `json:"created_at"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:50"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:100"`
	PasswordHash string    `json:"-"`

	// EmailVerificationCode holds a hash of the one-time code while
	// verification is pending. It is cleared together with the expiry
	// in the same update that stamps EmailVerifiedAt.
	EmailVerificationCode     *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`
	EmailVerifiedAt           *time.Time `json:"email_verified_at"`
}

// Verified reports whether the email address has been confirmed.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
