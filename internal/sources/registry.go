// Package sources contains the built-in inventory source implementations
// and the registry that creates them from configuration.
package sources

import (
	"fmt"
	"sort"
	"strings"

	kverrors "github.com/systmms/kvreport/internal/errors"
	"github.com/systmms/kvreport/pkg/inventory"
)

// Registry manages source creation and registration
type Registry struct {
	factories map[string]SourceFactory
}

// SourceFactory creates a source instance from its configured settings
type SourceFactory func(name string, settings map[string]interface{}) (inventory.Source, error)

// NewRegistry creates a new source registry with built-in sources
func NewRegistry() *Registry {
	registry := &Registry{
		factories: make(map[string]SourceFactory),
	}

	// Register built-in sources
	registry.RegisterFactory("mock", NewMockSourceFactory)
	registry.RegisterFactory("azure.keyvault", NewAzureKeyVaultSourceFactory)
	registry.RegisterFactory("aws.secretsmanager", NewAWSSecretsManagerSourceFactory)
	registry.RegisterFactory("aws.parameterstore", NewAWSParameterStoreSourceFactory)
	registry.RegisterFactory("gcp.secretmanager", NewGCPSecretManagerSourceFactory)
	registry.RegisterFactory("postgres.roles", NewPostgresRolesSourceFactory)
	registry.RegisterFactory("mysql.users", NewMySQLUsersSourceFactory)

	return registry
}

// RegisterFactory registers a source factory for a given type
func (r *Registry) RegisterFactory(sourceType string, factory SourceFactory) {
	r.factories[sourceType] = factory
}

// Create creates a source instance from configuration
func (r *Registry) Create(name string, sourceType string, settings map[string]interface{}) (inventory.Source, error) {
	factory, exists := r.factories[sourceType]
	if !exists {
		return nil, kverrors.ConfigError{
			Field:      "source.type",
			Value:      sourceType,
			Message:    fmt.Sprintf("unknown source type: %s", sourceType),
			Suggestion: "Available types: " + strings.Join(r.SupportedTypes(), ", "),
		}
	}

	return factory(name, settings)
}

// SupportedTypes returns a sorted list of supported source types
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for sourceType := range r.factories {
		types = append(types, sourceType)
	}
	sort.Strings(types)
	return types
}

// IsSupported checks if a source type is supported
func (r *Registry) IsSupported(sourceType string) bool {
	_, exists := r.factories[sourceType]
	return exists
}
