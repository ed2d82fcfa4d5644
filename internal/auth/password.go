package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for stored passwords.
//
// COST TUNING:
// Each step up doubles the work: cost 12 is 2^12 rounds, roughly 250ms on a
// current server core. Pick the cost so one hash takes 200 to 300ms on the
// production hardware. Lower than that and an offline attack on a leaked
// table gets cheap; much higher and logins queue up behind bcrypt during a
// traffic spike, since every signup and login burns a full hash.
//
// The cost is stored inside each hash, so raising it later only affects new
// hashes and old ones keep verifying:
//
//	$2a$12$<22-char salt><31-char hash>
//	    ^^ cost
const defaultCost = 12

// ErrPasswordTooLong is returned for passwords bcrypt would silently
// truncate.
var ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")

// PasswordService hashes and verifies account passwords with bcrypt. The
// hash embeds its salt and cost, so a single column stores everything.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost sets the bcrypt cost. Tests in other packages
// use bcrypt.MinCost to keep hashing fast; never do that in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword rehashes plaintext with the salt and cost
// read from hash and compares the results in constant time. How long a
// failed attempt takes says nothing about how many bytes were right, so the
// login handler can return the same error for every mismatch.
//
// Usage:
//
//	if err := ps.Verify(user.PasswordHash, input); err != nil {
//	    // wrong password, or a corrupt hash
//	}
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
