package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and serves every profile.
type EnvironmentStore struct {
	vars []string
}

// NewEnvironmentStore creates a store reading LCSCRAPER_DB_URL, then DB_URL
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{vars: []string{"LCSCRAPER_DB_URL", "DB_URL"}}
}

func (e *EnvironmentStore) Name() string { return "environment" }

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(profile string) (*Credential, error) {
	value := e.lookup()
	if value == "" {
		return nil, ErrCredentialsNotFound
	}
	if profile == "" {
		profile = DefaultProfile
	}
	return &Credential{
		Profile:      profile,
		DatabaseURL:  value,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(profile string) bool {
	return e.lookup() != ""
}

func (e *EnvironmentStore) lookup() string {
	for _, name := range e.vars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
