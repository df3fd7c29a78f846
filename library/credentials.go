package library

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials turns a password into its stored form and checks a login
// attempt against it.
type Credentials interface {
	Hash(password string) (string, error)
	Verify(stored, password string) bool
}

const (
	SchemePlain  = "plain"
	SchemeBcrypt = "bcrypt"
)

// NewCredentials returns the Credentials for a configured scheme name.
func NewCredentials(scheme string, cost int) (Credentials, error) {
	switch scheme {
	case "", SchemePlain:
		return PlainCredentials{}, nil
	case SchemeBcrypt:
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
		}
		return BcryptCredentials{Cost: cost}, nil
	}
	return nil, fmt.Errorf("unknown credential scheme %q", scheme)
}

// PlainCredentials stores passwords as given.
type PlainCredentials struct{}

func (PlainCredentials) Hash(password string) (string, error) { return password, nil }

func (PlainCredentials) Verify(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// BcryptCredentials stores bcrypt hashes.
type BcryptCredentials struct {
	Cost int
}

func (c BcryptCredentials) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptCredentials) Verify(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
