package configuration

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// NoVersion is what VersionConflict reports as the actual version when the
// configuration does not exist
const NoVersion Version = "none"

// A Service that takes care of the versioned persistence of configurations.
type Service interface {
	// Retrieves the current version of a configuration, returns an error if:
	// - No such configuration exists
	Get(ctx context.Context, key Key) (*Document, error)

	// Retrieves a specific version of a configuration, returns an error if:
	// - No such configuration exists
	// - The configuration has no such version
	GetVersion(ctx context.Context, key Key, version Version) (*Document, error)

	// Persists the given Document as a new version, returning the new version.
	//
	// expectedVersion is nil when creating and must be the current version when updating.
	//
	// Errors out if
	//  1. The configuration exists but no expectedVersion was given (AlreadyExists)
	//  2. expectedVersion is not the current version (VersionConflict)
	//  3. The Document's content or schema is not a JSON object (ValidationError)
	Put(ctx context.Context, key Key, document *Document, expectedVersion *Version) (Version, error)

	// Deletes a configuration along with all its versions
	Delete(ctx context.Context, key Key) error

	// Deletes every configuration in the given environment of an application, returning the
	// number of configurations deleted.
	//
	// Failures on individual configurations are logged and skipped.
	DeleteEnvironment(ctx context.Context, application string, environment string) (uint, error)

	// Returns whether or not a configuration exists
	Exists(ctx context.Context, key Key) (bool, error)

	// Lists the keys of all configurations under the given path prefix, matching whole
	// segments. An empty prefix lists everything, an invalid one is an InvalidKey.
	List(ctx context.Context, prefix string) (mapset.Set[Key], error)

	// Returns the version history of a configuration, oldest first
	ListVersions(ctx context.Context, key Key) ([]VersionRecord, error)
}

// <-- Domain Errors

// NotFound is returned when a configuration, or a specific version of it,
// does not exist
type NotFound struct {
	Key     Key
	Version *Version
}

func (e NotFound) Error() string {
	if e.Version != nil {
		return fmt.Sprintf("Configuration not found: [%v] version [%v]", e.Key, *e.Version)
	} else {
		return fmt.Sprintf("Configuration not found: [%v]", e.Key)
	}
}

// AlreadyExists is returned when a configuration is created without an expected version,
// but it already exists
type AlreadyExists struct {
	Key Key
}

func (e AlreadyExists) Error() string {
	return fmt.Sprintf("Configuration [%v] already exists, an expected version is required to update it", e.Key)
}

// VersionConflict is returned when the expected version did not match the current one
type VersionConflict struct {
	Key      Key
	Expected Version
	Actual   Version
}

func (e VersionConflict) Error() string {
	return fmt.Sprintf("Version conflict for [%v]: expected [%v], actual [%v]", e.Key, e.Expected, e.Actual)
}

// ValidationError is returned when content or schema do not have the right shape
type ValidationError struct {
	Key     Key
	Reasons []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("Invalid configuration [%v]: %s", e.Key, strings.Join(e.Reasons, "; "))
}

// BadRequest is returned when a write cannot be carried out as submitted, e.g. no schema
// could be resolved or the content does not satisfy the schema
type BadRequest struct {
	Key     Key
	Reasons []string
}

func (e BadRequest) Error() string {
	return fmt.Sprintf("Bad request for [%v]: %s", e.Key, strings.Join(e.Reasons, "; "))
}

// StoreError is returned when the underlying storage failed. It is safe to retry.
type StoreError struct {
	Key        Key
	Underlying error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("Storage error for [%v]: %v", e.Key, e.Underlying)
}

func (e StoreError) Unwrap() error {
	return e.Underlying
}

// InvalidKey is returned when a Key cannot be built from the given segments
type InvalidKey struct {
	Errors []error
}

func (e InvalidKey) Error() string {
	return fmt.Sprintf("Illegal configuration key: %v", e.Errors)
}

//     Errors -->
