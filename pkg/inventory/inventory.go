// Package inventory defines the core types for credential inventory sources in kvreport.
//
// A source is a system that holds expiring credential material: a cloud
// key vault, a secrets manager, a parameter store, or a database with
// password-validity metadata. All source implementations expose the same
// three read operations (keys, secrets, certificates) so the report
// pipeline can stay uniform across backends.
//
// # Source Architecture
//
// kvreport never writes to a source and never reads secret values. The
// only data a source yields is inventory metadata: item names, an
// explicit kind tag, and the optional expiration timestamp. Backends
// without a native concept for a kind return an empty list for it, not
// an error. Azure Key Vault fills all three lists, AWS Secrets Manager
// only the secrets list, and so on.
//
// # Implementing a Custom Source
//
// To implement a custom source:
//
//  1. Implement the Source interface
//  2. Register a factory for its type tag in the source registry
//  3. Add configuration support (settings arrive as a YAML map)
//
// Example:
//
//	type inHouseVault struct {
//	    name string
//	}
//
//	func (s *inHouseVault) Name() string { return s.name }
//	func (s *inHouseVault) Type() string { return "inhouse.vault" }
//
//	func (s *inHouseVault) Secrets(ctx context.Context) ([]inventory.Item, error) {
//	    records, err := s.list(ctx)
//	    if err != nil {
//	        return nil, err
//	    }
//	    items := make([]inventory.Item, 0, len(records))
//	    for _, r := range records {
//	        items = append(items, inventory.Item{
//	            Name:    r.Name,
//	            Kind:    inventory.KindSecret,
//	            Expires: r.NotAfter,
//	        })
//	    }
//	    return items, nil
//	}
//
//	// ... implement the remaining methods
//
// # Error Handling
//
// Fetch methods return the backend error wrapped with enough context to
// be forwarded verbatim in an admin alert. Authentication failures
// should be returned as AuthError so health checks can report them
// distinctly.
//
// # Ordering
//
// Sources return items in the order the backend lists them. The report
// pipeline's tie-breaking depends on that order being stable within a
// single run; it does not require any particular order across runs.
package inventory

import (
	"context"
	"time"
)

// Kind tags an item with its credential category.
//
// The tag is carried from the point of fetch so downstream code never
// inspects runtime types to find a display label.
type Kind string

// Item kinds, in report display form.
const (
	KindKey         Kind = "Key"
	KindSecret      Kind = "Secret"
	KindCertificate Kind = "Certificate"
)

// Item is one inventory record: a key, secret, or certificate with a
// name and an optional expiration timestamp.
//
// Items are read-only snapshots fetched fresh each run; nothing in
// kvreport caches or persists them.
type Item struct {
	// Name identifies the item, unique within its kind and source.
	Name string

	// Kind is the item's credential category.
	Kind Kind

	// Expires is the expiration timestamp, nil for items that never
	// expire (or whose backend has no expiry concept).
	Expires *time.Time
}

// HasExpiry reports whether the item carries an expiration timestamp.
func (i Item) HasExpiry() bool {
	return i.Expires != nil
}

// Source is a credential inventory backend.
//
// Implementations must honor context cancellation on every fetch and
// must be safe for sequential reuse within a run: the pipeline calls
// Keys, Secrets, and Certificates once each, in that order.
//
// Example usage:
//
//	src, err := registry.Create("corp-vault", "azure.keyvault", settings)
//	if err != nil {
//	    return err
//	}
//	if err := src.Validate(ctx); err != nil {
//	    return fmt.Errorf("source validation failed: %w", err)
//	}
//	keys, err := src.Keys(ctx)
type Source interface {
	// Name returns the configured source name ("corp-vault"), used in
	// report titles, logs, and error messages.
	Name() string

	// Type returns the stable factory type tag ("azure.keyvault",
	// "aws.secretsmanager", ...), used in configuration and health output.
	Type() string

	// Keys lists key items. Backends without keys return an empty list.
	Keys(ctx context.Context) ([]Item, error)

	// Secrets lists secret items. Backends without secrets return an
	// empty list.
	Secrets(ctx context.Context) ([]Item, error)

	// Certificates lists certificate items. Backends without
	// certificates return an empty list.
	Certificates(ctx context.Context) ([]Item, error)

	// Validate checks connectivity and authentication without fetching
	// the full inventory. Used by the doctor command before a run is
	// scheduled anywhere.
	Validate(ctx context.Context) error
}

// AuthError indicates that authentication to a source failed.
//
// Sources return it when credentials are missing, expired, or rejected,
// so health checks can separate "cannot log in" from "backend is down".
type AuthError struct {
	// Source is the configured name of the source that failed.
	Source string

	// Message provides details about the authentication failure.
	Message string
}

// Error implements the error interface.
func (e AuthError) Error() string {
	return "authentication failed for " + e.Source + ": " + e.Message
}
