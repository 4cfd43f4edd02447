package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvCookieA   = "FASCRAPER_COOKIE_A"
	EnvCookieB   = "FASCRAPER_COOKIE_B"
	EnvUsername  = "FASCRAPER_USERNAME"
	EnvUserAgent = "FASCRAPER_USER_AGENT"
)

// EnvironmentStore exposes cookies set in the environment as a read-only
// account.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve builds an account from the environment. The username comes from
// FASCRAPER_USERNAME, then the argument, then "default". A non-empty
// argument that disagrees with FASCRAPER_USERNAME is not found.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	cookieA := os.Getenv(EnvCookieA)
	cookieB := os.Getenv(EnvCookieB)
	if cookieA == "" || cookieB == "" {
		return nil, ErrCredentialsNotFound
	}

	name := os.Getenv(EnvUsername)
	switch {
	case name != "" && username != "" && name != username:
		return nil, ErrCredentialsNotFound
	case name == "" && username != "":
		name = username
	case name == "":
		name = "default"
	}

	return &Account{
		Username:     name,
		CookieA:      cookieA,
		CookieB:      cookieB,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

// List returns the environment account when one is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists reports whether Retrieve would succeed for username
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
