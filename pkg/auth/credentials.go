package auth

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// DefaultProfile is the profile name used when none is given
const DefaultProfile = "default"

// Credential is a stored database connection URL
type Credential struct {
	Profile      string    `json:"profile"`
	DatabaseURL  string    `json:"database_url"`
	Source       string    `json:"-"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Name identifies the store in status output
	Name() string

	Store(cred *Credential) error

	// Retrieve gets the credential for a profile
	Retrieve(profile string) (*Credential, error)

	Delete(profile string) error

	Exists(profile string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager. Environment variables win over
// the system keychain so deployments can override a stored URL.
func NewManager() *Manager {
	stores := []CredentialStore{NewEnvironmentStore()}
	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}
	return &Manager{stores: stores}
}

// NewManagerWithStores creates a Manager over the given stores, in lookup order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the credential in the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil {
		return ErrInvalidCredentials
	}
	if cred.Profile == "" {
		cred.Profile = DefaultProfile
	}
	if err := ValidateDatabaseURL(cred.DatabaseURL); err != nil {
		return err
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve(profile string) (*Credential, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if cred, err := store.Retrieve(profile); err == nil && cred != nil {
			cred.Source = store.Name()
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, profile)
}

// Delete removes the credential from every store that supports deletion
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		err := store.Delete(profile)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, profile)
}

// Stores lists the names of the configured stores
func (m *Manager) Stores() []string {
	names := make([]string, len(m.stores))
	for i, s := range m.stores {
		names[i] = s.Name()
	}
	return names
}

// ValidateDatabaseURL checks that s is a postgres connection URL
func ValidateDatabaseURL(s string) error {
	if s == "" {
		return fmt.Errorf("%w: database URL is required", ErrInvalidCredentials)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidCredentials, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidCredentials)
	}
	return nil
}

// MaskURL hides the password of a connection URL
func MaskURL(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return "********"
	}
	return u.Redacted()
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
