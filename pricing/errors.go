/*
errors.go - Centralized error types for the pricing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match on sentinels with errors.Is() and unwrap structured
  errors with errors.As().

ERROR CATEGORIES:
  1. Configuration errors - Invalid rule configuration (client error)
  2. Catalog errors - Unknown or malformed items (client error)
  3. Persistence errors - Store/serialization failures (server error)

PROPAGATION POLICY:
  Validate-then-commit: every validation error is raised before any
  mutation is applied, so a rejected operation leaves catalog, rules,
  and ledger untouched. Nothing is retried automatically.
*/
package pricing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is returned when a rule save fails validation.
	// The prior rules stay active; no ledger entry is emitted.
	ErrInvalidConfiguration = errors.New("invalid rule configuration")

	// ErrUnknownItem is returned when an operation references an item ID
	// absent from the catalog.
	ErrUnknownItem = errors.New("unknown catalog item")

	// ErrInvalidItem is returned when catalog ingestion receives a
	// malformed item (empty ID, non-positive original price, negative
	// quantity).
	ErrInvalidItem = errors.New("invalid catalog item")

	// ErrEntryNotFound is returned when a ledger entry lookup misses.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrSerialization is returned when state fails to encode for
	// persistence. Fatal for the operation; in-memory state is rolled
	// back so the caller sees pre-call values.
	ErrSerialization = errors.New("serialization failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError reports which rule field failed validation and why.
type ConfigurationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid rule configuration: %s = %d (%s)", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// UnknownItemError reports a lookup for an item not in the catalog.
type UnknownItemError struct {
	ItemID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown catalog item: %q", e.ItemID)
}

func (e *UnknownItemError) Unwrap() error {
	return ErrUnknownItem
}

// InvalidItemError reports a malformed item rejected at ingestion.
type InvalidItemError struct {
	ItemID string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid catalog item %q: %s", e.ItemID, e.Reason)
}

func (e *InvalidItemError) Unwrap() error {
	return ErrInvalidItem
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidItem)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrEntryNotFound)
}
