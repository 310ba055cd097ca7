package tupli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const credentialsFile = "credentials.json"

// Credentials holds the token pair issued at login.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialStore abstracts credential persistence so callers can keep
// tokens wherever suits them.
type CredentialStore interface {
	SaveCredentials(credentials *Credentials) error
	LoadCredentials() (*Credentials, error)
	DeleteCredentials() error
}

// FileStore implements CredentialStore using a JSON file under the
// user's home directory.
type FileStore struct {
	path string
}

var _ CredentialStore = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at ~/.tupli.
func NewFileStore() (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	dir := filepath.Join(home, ".tupli")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create .tupli directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, credentialsFile)}, nil
}

// NewFileStoreAt creates a FileStore at an explicit path.
func NewFileStoreAt(path string) *FileStore {
	return &FileStore{path: path}
}

// SaveCredentials writes the credentials file, readable by the owner
// only.
func (s *FileStore) SaveCredentials(credentials *Credentials) error {
	data, err := json.MarshalIndent(credentials, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

// LoadCredentials reads the credentials file.
func (s *FileStore) LoadCredentials() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not logged in")
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

// DeleteCredentials removes the credentials file if present.
func (s *FileStore) DeleteCredentials() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(s.path)
}

// memoryStore keeps credentials in process memory. Used when no
// persistent store is configured.
type memoryStore struct {
	creds *Credentials
}

func (s *memoryStore) SaveCredentials(credentials *Credentials) error {
	s.creds = credentials
	return nil
}

func (s *memoryStore) LoadCredentials() (*Credentials, error) {
	if s.creds == nil {
		return nil, fmt.Errorf("not logged in")
	}
	return s.creds, nil
}

func (s *memoryStore) DeleteCredentials() error {
	s.creds = nil
	return nil
}
