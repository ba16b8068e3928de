package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore over environment
// variables. Read-only; used as the last-resort backend so CI jobs can
// inject a token without touching the keychain.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(site string) (*Account, error) {
	token := os.Getenv("JIRASCRAPER_API_TOKEN")
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if site == "" {
		site = os.Getenv("JIRASCRAPER_BASE_URL")
	}

	return &Account{
		Site:         site,
		APIToken:     token,
		UserAgent:    os.Getenv("JIRASCRAPER_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the token variable is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(site string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(site string) bool {
	return os.Getenv("JIRASCRAPER_API_TOKEN") != ""
}
