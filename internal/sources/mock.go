package sources

import (
	"context"
	"fmt"
	"time"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/pkg/inventory"
)

// MockSource provides a fixed inventory that simulates vault behavior.
// It backs the "mock" source type, used for previewing report layout
// and for exercising the pipeline in tests without cloud credentials.
type MockSource struct {
	name     string
	keys     []inventory.Item
	secrets  []inventory.Item
	certs    []inventory.Item
	failures map[string]error
	delay    time.Duration
}

// NewMockSource creates a new mock source with an empty inventory
func NewMockSource(name string) *MockSource {
	return &MockSource{
		name:     name,
		failures: make(map[string]error),
	}
}

// Name returns the source's name
func (m *MockSource) Name() string {
	return m.name
}

// Type returns the source type tag
func (m *MockSource) Type() string {
	return "mock"
}

// Keys lists the configured key items
func (m *MockSource) Keys(ctx context.Context) ([]inventory.Item, error) {
	return m.list(ctx, "keys", m.keys)
}

// Secrets lists the configured secret items
func (m *MockSource) Secrets(ctx context.Context) ([]inventory.Item, error) {
	return m.list(ctx, "secrets", m.secrets)
}

// Certificates lists the configured certificate items
func (m *MockSource) Certificates(ctx context.Context) ([]inventory.Item, error) {
	return m.list(ctx, "certificates", m.certs)
}

// Validate checks if the source is properly configured
func (m *MockSource) Validate(ctx context.Context) error {
	if err, exists := m.failures["validate"]; exists {
		return err
	}
	return nil
}

func (m *MockSource) list(ctx context.Context, operation string, items []inventory.Item) ([]inventory.Item, error) {
	// Simulate network delay
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, exists := m.failures[operation]; exists {
		return nil, err
	}

	out := make([]inventory.Item, len(items))
	copy(out, items)
	return out, nil
}

// SetKeys replaces the key inventory
func (m *MockSource) SetKeys(items ...inventory.Item) {
	m.keys = items
}

// SetSecrets replaces the secret inventory
func (m *MockSource) SetSecrets(items ...inventory.Item) {
	m.secrets = items
}

// SetCertificates replaces the certificate inventory
func (m *MockSource) SetCertificates(items ...inventory.Item) {
	m.certs = items
}

// SetFailure simulates a failure for an operation
// ("keys", "secrets", "certificates", or "validate")
func (m *MockSource) SetFailure(operation string, err error) {
	m.failures[operation] = err
}

// SetDelay sets a simulated network delay
func (m *MockSource) SetDelay(delay time.Duration) {
	m.delay = delay
}

// NewMockSourceFactory creates a mock source from configured settings.
// Items are listed per kind, each with a name and an optional expiry:
//
//	settings:
//	  keys:
//	    - name: signing-key
//	      expires: 2026-04-01T00:00:00Z
//	  secrets:
//	    - name: db-password
//	      expires_in: 360h
//	    - name: static-token
func NewMockSourceFactory(name string, settings map[string]interface{}) (inventory.Source, error) {
	source := NewMockSource(name)

	keys, err := parseMockItems(settings["keys"], inventory.KindKey)
	if err != nil {
		return nil, err
	}
	source.SetKeys(keys...)

	secrets, err := parseMockItems(settings["secrets"], inventory.KindSecret)
	if err != nil {
		return nil, err
	}
	source.SetSecrets(secrets...)

	certs, err := parseMockItems(settings["certificates"], inventory.KindCertificate)
	if err != nil {
		return nil, err
	}
	source.SetCertificates(certs...)

	return source, nil
}

func parseMockItems(raw interface{}, kind inventory.Kind) ([]inventory.Item, error) {
	if raw == nil {
		return nil, nil
	}

	entries, ok := raw.([]interface{})
	if !ok {
		return nil, kverrors.ConfigError{
			Field:      "source.settings",
			Message:    fmt.Sprintf("mock %ss must be a list", kind),
			Suggestion: "List items with a name and an optional expires timestamp",
		}
	}

	items := make([]inventory.Item, 0, len(entries))
	for i, entry := range entries {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			return nil, kverrors.ConfigError{
				Field:   "source.settings",
				Message: fmt.Sprintf("mock %s entry %d must be a mapping", kind, i),
			}
		}

		itemName, ok := fields["name"].(string)
		if !ok || itemName == "" {
			return nil, kverrors.ConfigError{
				Field:   "source.settings",
				Message: fmt.Sprintf("mock %s entry %d is missing a name", kind, i),
			}
		}

		item := inventory.Item{Name: itemName, Kind: kind}

		if rawExpires, exists := fields["expires"]; exists {
			expiresStr, ok := rawExpires.(string)
			if !ok {
				return nil, kverrors.ConfigError{
					Field:      "source.settings",
					Value:      rawExpires,
					Message:    fmt.Sprintf("mock item %q has a non-string expires value", itemName),
					Suggestion: "Quote timestamps so YAML keeps them as strings",
				}
			}
			expires, err := time.Parse(time.RFC3339, expiresStr)
			if err != nil {
				return nil, kverrors.ConfigError{
					Field:      "source.settings",
					Value:      expiresStr,
					Message:    fmt.Sprintf("mock item %q has an invalid expires timestamp", itemName),
					Suggestion: "Use RFC3339 format, e.g. 2026-04-01T00:00:00Z",
				}
			}
			item.Expires = &expires
		} else if rawIn, exists := fields["expires_in"]; exists {
			inStr, ok := rawIn.(string)
			if !ok {
				return nil, kverrors.ConfigError{
					Field:   "source.settings",
					Value:   rawIn,
					Message: fmt.Sprintf("mock item %q has a non-string expires_in value", itemName),
				}
			}
			d, err := time.ParseDuration(inStr)
			if err != nil {
				return nil, kverrors.ConfigError{
					Field:      "source.settings",
					Value:      inStr,
					Message:    fmt.Sprintf("mock item %q has an invalid expires_in duration", itemName),
					Suggestion: "Use Go duration format, e.g. 720h for 30 days",
				}
			}
			expires := time.Now().Add(d)
			item.Expires = &expires
		}

		items = append(items, item)
	}

	return items, nil
}
