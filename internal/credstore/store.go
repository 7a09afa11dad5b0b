// Package credstore stores the SMTP password in the OS keychain
// (macOS Keychain, Linux Secret Service, Windows Credential Manager),
// so kvreport.yaml never has to carry it inline.
package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Service is the keychain service name all kvreport entries live under.
const Service = "kvreport"

// ErrNotFound indicates no stored credential for the account
var ErrNotFound = errors.New("credential not found in keychain")

// Client abstracts the OS keychain for testing
type Client interface {
	Get(service, account string) (string, error)
	Set(service, account, password string) error
	Delete(service, account string) error
}

// keyringClient is the real keychain client
type keyringClient struct{}

func (keyringClient) Get(service, account string) (string, error) {
	return keyring.Get(service, account)
}

func (keyringClient) Set(service, account, password string) error {
	return keyring.Set(service, account, password)
}

func (keyringClient) Delete(service, account string) error {
	return keyring.Delete(service, account)
}

// Store reads and writes kvreport credentials in the OS keychain.
// Entries are keyed by SMTP account (user@host) under the kvreport service.
type Store struct {
	client Client
}

// New creates a store backed by the platform keychain
func New() *Store {
	return &Store{client: keyringClient{}}
}

// NewWithClient creates a store with a custom keychain client.
// This is primarily for testing, allowing the keychain to be mocked.
func NewWithClient(client Client) *Store {
	return &Store{client: client}
}

// Account builds the keychain account key for an SMTP identity
func Account(username, host string) string {
	return fmt.Sprintf("%s@%s", username, host)
}

// Get retrieves the stored SMTP password for user@host
func (s *Store) Get(username, host string) (string, error) {
	secret, err := s.client.Get(Service, Account(username, host))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keychain read failed: %w", err)
	}
	return secret, nil
}

// Set stores the SMTP password for user@host, replacing any previous value
func (s *Store) Set(username, host, password string) error {
	if err := s.client.Set(Service, Account(username, host), password); err != nil {
		return fmt.Errorf("keychain write failed: %w", err)
	}
	return nil
}

// Delete removes the stored SMTP password for user@host.
// Deleting an absent entry is not an error.
func (s *Store) Delete(username, host string) error {
	err := s.client.Delete(Service, Account(username, host))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain delete failed: %w", err)
	}
	return nil
}
