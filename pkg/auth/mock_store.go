package auth

import "sync"

// MockStore is an in-memory CredentialStore for tests
type MockStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account

	// StoreErr, when set, is returned by every Store call
	StoreErr error
	// RetrieveErr, when set, is returned by every Retrieve call
	RetrieveErr error
}

// NewMockStore creates an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{accounts: make(map[string]*Account)}
}

// Store saves credentials in memory
func (m *MockStore) Store(account *Account) error {
	if m.StoreErr != nil {
		return m.StoreErr
	}
	if account == nil || account.Site == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *account
	m.accounts[account.Site] = &copied
	return nil
}

// Retrieve gets credentials from memory
func (m *MockStore) Retrieve(site string) (*Account, error) {
	if m.RetrieveErr != nil {
		return nil, m.RetrieveErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[site]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	copied := *account
	return &copied, nil
}

// List returns all stored accounts
func (m *MockStore) List() ([]*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]*Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		copied := *account
		accounts = append(accounts, &copied)
	}
	return accounts, nil
}

// Delete removes credentials from memory
func (m *MockStore) Delete(site string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[site]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, site)
	return nil
}

// Exists checks if credentials exist in memory
func (m *MockStore) Exists(site string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.accounts[site]
	return ok
}
