// Package catalog provides named storage for serialized expressions.
package catalog

import (
	"errors"
	"time"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/serial"
)

// Store persists serialized expressions by name.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores an expression's text under a name.
	// Overwrites if the name already exists.
	Save(name, text string) error

	// Load retrieves an expression's text.
	// Returns ErrNotFound if the name doesn't exist.
	Load(name string) (string, error)

	// List returns metadata for all stored expressions, ordered by name.
	// Returns empty slice (not error) if the store is empty.
	List() ([]Info, error)

	// Delete removes a stored expression.
	// Returns nil if the name doesn't exist.
	Delete(name string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the expression text.
type Info struct {
	Name      string
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for catalog operations.
var (
	// ErrNotFound indicates a stored expression doesn't exist.
	ErrNotFound = errors.New("expression not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("catalog store closed")
)

// Put serializes an expression and stores it under a name.
func Put[V exprgraph.Value[V]](s Store, name string, expr *exprgraph.Expression[V], codec serial.Codec[V]) error {
	return s.Save(name, serial.Store(expr, codec))
}

// Get loads a stored expression by name and rebuilds it. Validation runs
// on load; a catalog entry that was tampered with fails here, not during
// evaluation.
func Get[V exprgraph.Value[V]](s Store, name string, codec serial.Codec[V], registry *exprgraph.Registry[V]) (*exprgraph.Expression[V], error) {
	text, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	return serial.Load(text, codec, registry)
}
