// Package account holds the platform user accounts that own mock
// definitions and auth schemas. Account passwords are bcrypt-hashed;
// password resets go through mailed one-time tokens.
package account

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ResetTokenTTL is how long a password-reset token stays valid.
const ResetTokenTTL = 45 * time.Minute

// Account is a registered platform user.
type Account struct {
	ID string `json:"id"`

	// Handle is the public slug mock consumers use in URLs
	// (/mocks/{handle}/{route}). Unique across the platform.
	Handle string `json:"handle"`

	Name  string `json:"name"`
	Email string `json:"email"`

	PasswordHash []byte `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetPassword hashes and stores the plaintext password.
func (a *Account) SetPassword(plaintext string) error {
	if len(plaintext) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(plaintext) > 72 {
		// bcrypt truncates beyond 72 bytes
		return errors.New("password must not exceed 72 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	a.PasswordHash = hash
	return nil
}

// PasswordMatches checks a plaintext password against the stored hash.
func (a *Account) PasswordMatches(plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// ValidEmail reports whether the address parses as an email address.
func ValidEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// ResetToken is a stored password-reset token. Only the SHA-256 hash is
// persisted; the plaintext goes out once, in the email.
type ResetToken struct {
	Hash      []byte    `json:"hash"`
	AccountID string    `json:"accountId"`
	Expiry    time.Time `json:"expiry"`
}

// NewResetToken generates a reset token for an account, returning the
// plaintext to mail to the user and the hashed record to store.
func NewResetToken(accountID string, ttl time.Duration) (string, *ResetToken, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", nil, fmt.Errorf("generating reset token: %w", err)
	}
	plaintext := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	return plaintext, &ResetToken{
		Hash:      HashResetToken(plaintext),
		AccountID: accountID,
		Expiry:    time.Now().Add(ttl),
	}, nil
}

// HashResetToken hashes a plaintext reset token for lookup.
func HashResetToken(plaintext string) []byte {
	hash := sha256.Sum256([]byte(plaintext))
	return hash[:]
}

// Expired reports whether the token is past its expiry.
func (t *ResetToken) Expired() bool {
	return time.Now().After(t.Expiry)
}
