// blobstore holds the contract for the byte-addressed store that configuration documents
// and their metadata are persisted to.
package blobstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Path addresses a single blob. Segments are separated by '/'.
type Path string

// Join builds a Path out of segments
func Join(segments ...string) Path {
	return Path(strings.Join(segments, "/"))
}

// Segments splits a Path into its non-empty segments
func (p Path) Segments() []string {
	raw := strings.Split(string(p), "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if len(s) != 0 {
			segments = append(segments, s)
		}
	}
	return segments
}

// Revision is an opaque fingerprint of a blob's current contents, as reported by the
// backend. The zero value means the blob does not exist.
type Revision string

// Absent is the Revision to pass to PutIf when the blob must not exist yet
const Absent Revision = ""

// RevisionOf fingerprints data for backends that do not track versions natively
func RevisionOf(data []byte) Revision {
	return Revision(strconv.FormatUint(xxhash.Sum64(data), 16))
}

// Object is a blob along with the Revision it was read at
type Object struct {
	Data     []byte
	Revision Revision
}

// Store is an abstract key-addressed blob store.
//
// A single read or write is atomic; nothing is promised across multiple calls
// except through PutIf.
type Store interface {
	// Get retrieves the blob at the given path, returning NotFound if there is none
	Get(ctx context.Context, path Path) (*Object, error)

	// Put writes the blob unconditionally, returning its new Revision
	Put(ctx context.Context, path Path, data []byte) (Revision, error)

	// PutIf writes the blob only if its current Revision is the expected one.
	//
	// Passing Absent means the blob must not exist. Returns PreconditionFailed otherwise.
	PutIf(ctx context.Context, path Path, data []byte, expected Revision) (Revision, error)

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path Path) error

	// Head returns whether or not a blob exists at the given path
	Head(ctx context.Context, path Path) (bool, error)

	// List streams every path under the given prefix to fn, in one pass.
	//
	// Returning an error from fn stops the listing and the error is returned as-is.
	List(ctx context.Context, prefix Path, fn func(path Path) error) error

	// Close releases any resources held by the Store
	Close() error
}

// Setup abstracts away the bootstrapping a backend needs before it can be used,
// e.g. creating a bucket or installing an index template.
type Setup interface {
	// Check returns NotSetUp if Run needs to be called
	Check(ctx context.Context) error

	// Run carries out the bootstrapping
	Run(ctx context.Context) error
}

// NoopSetup is for backends that need no bootstrapping
type NoopSetup struct{}

func (n NoopSetup) Check(ctx context.Context) error {
	return nil
}

func (n NoopSetup) Run(ctx context.Context) error {
	return nil
}

// <-- Store Errors

// NotFound is returned when there is no blob at a given Path
type NotFound struct {
	Path Path
}

func (e NotFound) Error() string {
	return fmt.Sprintf("No blob at [%v]", e.Path)
}

// PreconditionFailed is returned by PutIf when the blob's current Revision
// is not the expected one
type PreconditionFailed struct {
	Path     Path
	Expected Revision
}

func (e PreconditionFailed) Error() string {
	if e.Expected == Absent {
		return fmt.Sprintf("Blob at [%v] already exists", e.Path)
	} else {
		return fmt.Sprintf("Blob at [%v] is no longer at revision [%v]", e.Path, e.Expected)
	}
}

// NotSetUp is returned by Setup.Check when the backend needs bootstrapping
type NotSetUp struct {
	Reason string
}

func (e NotSetUp) Error() string {
	return fmt.Sprintf("Storage backend is not set up: %s", e.Reason)
}

// BackendErr wraps failures coming out of a particular backend
type BackendErr struct {
	Backend    string
	Underlying error
}

func (e BackendErr) Error() string {
	return fmt.Sprintf("Error from [%s] storage backend: %v", e.Backend, e.Underlying)
}

func (e BackendErr) Unwrap() error {
	return e.Underlying
}

//    Store Errors -->
