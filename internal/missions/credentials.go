package missions

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Credentials holds the shared secrets: one admin pair and one operative
// passphrase. Secrets are kept only as bcrypt hashes.
type Credentials struct {
	adminUsername  string
	adminHash      []byte
	passphraseHash []byte
}

func NewCredentials(adminUsername, adminPassword, passphrase string) (*Credentials, error) {
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	passHash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing operative passphrase: %w", err)
	}
	return &Credentials{
		adminUsername:  adminUsername,
		adminHash:      adminHash,
		passphraseHash: passHash,
	}, nil
}

// Authenticate returns the role the pair grants. The admin pair is checked
// first, then the operative passphrase for any username.
func (c *Credentials) Authenticate(username, password string) (Role, error) {
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if username == c.adminUsername && bcrypt.CompareHashAndPassword(c.adminHash, []byte(password)) == nil {
		return RoleAdmin, nil
	}
	if bcrypt.CompareHashAndPassword(c.passphraseHash, []byte(password)) == nil {
		return RoleUser, nil
	}
	return "", ErrInvalidCredentials
}
