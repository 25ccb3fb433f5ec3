// storage holds the versioned storage engine: configuration documents, their version history
// and the optimistic concurrency around updating them, all on top of a blobstore.Store
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/openappconfig/openappconfig/internal/config"
	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
	"github.com/openappconfig/openappconfig/internal/domain/configuration"
)

// How many higher version numbers are tried when the next one's blobs are already taken,
// either by a concurrent writer or by a put that never got to write its metadata
const versionClaimAttempts = 16

type StoreService struct {
	store    blobstore.Store
	settings config.Engine
	getUTC   func() time.Time // for mocking
}

// For testing
func (s *StoreService) SetUTCGetter(getter func() time.Time) {
	s.getUTC = getter
}

func NewService(store blobstore.Store, settings config.Engine) configuration.Service {
	return &StoreService{store: store, settings: settings, getUTC: func() time.Time {
		return time.Now().UTC()
	}}
}

func (s *StoreService) Get(ctx context.Context, key configuration.Key) (*configuration.Document, error) {
	metadata, _, err := s.readMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	if metadata == nil || metadata.IsEmpty() {
		return nil, configuration.NotFound{Key: key}
	}
	return s.readDocument(ctx, key, metadata.CurrentVersion)
}

func (s *StoreService) GetVersion(ctx context.Context, key configuration.Key, version configuration.Version) (*configuration.Document, error) {
	metadata, _, err := s.readMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		return nil, configuration.NotFound{Key: key}
	}
	if !metadata.HasVersion(version) {
		return nil, configuration.NotFound{Key: key, Version: &version}
	}
	return s.readDocument(ctx, key, version)
}

func (s *StoreService) Put(ctx context.Context, key configuration.Key, document *configuration.Document, expectedVersion *configuration.Version) (configuration.Version, error) {
	for timesRetried := uint(0); ; timesRetried++ {
		version, err := s.tryPut(ctx, key, document, expectedVersion)
		if _, isMetadataChanged := err.(metadataChanged); isMetadataChanged {
			if timesRetried < s.settings.VersionConflictRetryTimes {
				log.Warn().
					Str("key", key.String()).
					Uint("times_retried", timesRetried).
					Msg("Metadata changed while putting, retrying")
				continue
			}
			return "", s.conflictAfterRetries(ctx, key, expectedVersion)
		}
		return version, err
	}
}

func (s *StoreService) Delete(ctx context.Context, key configuration.Key) error {
	metadata, _, err := s.readMetadata(ctx, key)
	if err != nil {
		return err
	}
	if metadata == nil {
		return configuration.NotFound{Key: key}
	}
	return s.deleteAll(ctx, key, metadata)
}

func (s *StoreService) DeleteEnvironment(ctx context.Context, application string, environment string) (uint, error) {
	var errs []error
	errs = append(errs, configuration.ValidateSegment("application", application)...)
	errs = append(errs, configuration.ValidateSegment("environment", environment)...)
	if len(errs) != 0 {
		return 0, configuration.InvalidKey{Errors: errs}
	}

	// Collect first so that deletions don't happen under a listing in progress
	keys, err := s.listKeys(ctx, blobstore.Join(application, environment, ""))
	if err != nil {
		return 0, err
	}

	var deleted uint
	for _, key := range keys {
		metadata, _, err := s.readMetadata(ctx, key)
		if err != nil {
			log.Error().Err(err).Str("key", key.String()).Msg("Failed to read metadata, skipping")
			continue
		}
		if metadata == nil {
			// someone else got to it
			continue
		}
		if err := s.deleteAll(ctx, key, metadata); err != nil {
			log.Error().Err(err).Str("key", key.String()).Msg("Failed to delete configuration, skipping")
			continue
		}
		deleted++
	}
	log.Info().
		Str("application", application).
		Str("environment", environment).
		Uint("deleted", deleted).
		Int("found", len(keys)).
		Msg("Deleted environment")
	return deleted, nil
}

func (s *StoreService) Exists(ctx context.Context, key configuration.Key) (bool, error) {
	exists, err := s.store.Head(ctx, metadataPath(key))
	if err != nil {
		return false, configuration.StoreError{Key: key, Underlying: err}
	}
	return exists, nil
}

// List matches whole path segments: "app/dev" lists app/dev/* but not app/dev2/*. A trailing
// slash makes no difference.
func (s *StoreService) List(ctx context.Context, prefix string) (mapset.Set[configuration.Key], error) {
	if err := configuration.ValidatePrefix(prefix); err != nil {
		return nil, err
	}
	if len(prefix) != 0 && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	keys, err := s.listKeys(ctx, blobstore.Path(prefix))
	if err != nil {
		return nil, err
	}
	return mapset.NewSet(keys...), nil
}

func (s *StoreService) ListVersions(ctx context.Context, key configuration.Key) ([]configuration.VersionRecord, error) {
	metadata, _, err := s.readMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		return nil, configuration.NotFound{Key: key}
	}
	return metadata.Versions, nil
}

// metadataChanged means the metadata record was written by someone else between our read
// and our write
type metadataChanged struct{}

func (e metadataChanged) Error() string {
	return "metadata changed concurrently"
}

func (s *StoreService) tryPut(ctx context.Context, key configuration.Key, document *configuration.Document, expectedVersion *configuration.Version) (configuration.Version, error) {
	metadata, revision, err := s.readMetadata(ctx, key)
	if err != nil {
		return "", err
	}

	switch {
	case metadata == nil && expectedVersion == nil:
		metadata = &configuration.Metadata{}
	case metadata == nil:
		return "", configuration.VersionConflict{Key: key, Expected: *expectedVersion, Actual: configuration.NoVersion}
	case expectedVersion == nil:
		return "", configuration.AlreadyExists{Key: key}
	case metadata.CurrentVersion != *expectedVersion:
		return "", configuration.VersionConflict{Key: key, Expected: *expectedVersion, Actual: actualVersion(metadata)}
	}

	var reasons []string
	if !configuration.IsJsonObject(document.Content) {
		reasons = append(reasons, "content must be a JSON object")
	}
	if !configuration.IsJsonObject(document.Schema) {
		reasons = append(reasons, "schema must be a JSON object")
	}
	if len(reasons) != 0 {
		return "", configuration.ValidationError{Key: key, Reasons: reasons}
	}

	newVersion, err := s.writeBlobs(ctx, key, metadata.NextVersion(), document)
	if err != nil {
		return "", err
	}

	metadata.AddVersion(newVersion, s.getUTC())
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		s.discardBlobs(ctx, key, newVersion)
		return "", configuration.StoreError{Key: key, Underlying: err}
	}
	if _, err := s.store.PutIf(ctx, metadataPath(key), metadataBytes, revision); err != nil {
		var preconditionFailed blobstore.PreconditionFailed
		if errors.As(err, &preconditionFailed) {
			s.discardBlobs(ctx, key, newVersion)
			return "", metadataChanged{}
		}
		// The write may still have landed, in which case metadata already points at these
		// blobs. Leftovers are skipped by later puts.
		return "", configuration.StoreError{Key: key, Underlying: err}
	}
	return newVersion, nil
}

// writeBlobs claims the first free version starting from the given one by creating its data
// blob, then writes the schema next to it. Nothing references these blobs until metadata does.
func (s *StoreService) writeBlobs(ctx context.Context, key configuration.Key, from configuration.Version, document *configuration.Document) (configuration.Version, error) {
	n, _ := from.Number()
	for attempt := 0; attempt < versionClaimAttempts; attempt++ {
		candidate := configuration.VersionFromNumber(n + uint64(attempt))
		_, err := s.store.PutIf(ctx, dataPath(key, candidate), document.Content, blobstore.Absent)
		if err != nil {
			var preconditionFailed blobstore.PreconditionFailed
			if errors.As(err, &preconditionFailed) {
				log.Debug().Str("key", key.String()).Str("version", string(candidate)).Msg("Version already taken")
				continue
			}
			return "", configuration.StoreError{Key: key, Underlying: err}
		}
		if _, err := s.store.Put(ctx, schemaPath(key, candidate), document.Schema); err != nil {
			s.discardBlobs(ctx, key, candidate)
			return "", configuration.StoreError{Key: key, Underlying: err}
		}
		return candidate, nil
	}
	return "", configuration.StoreError{
		Key:        key,
		Underlying: fmt.Errorf("no free version found after [%d] attempts starting at [%v]", versionClaimAttempts, from),
	}
}

// discardBlobs is best-effort: anything left behind is unreferenced.
//
// The data blob is what claims a version, so it goes last.
func (s *StoreService) discardBlobs(ctx context.Context, key configuration.Key, version configuration.Version) {
	for _, path := range []blobstore.Path{schemaPath(key, version), dataPath(key, version)} {
		if err := s.store.Delete(ctx, path); err != nil {
			log.Warn().Err(err).Str("path", string(path)).Msg("Failed to discard orphaned blob")
		}
	}
}

func (s *StoreService) conflictAfterRetries(ctx context.Context, key configuration.Key, expectedVersion *configuration.Version) error {
	expected := configuration.NoVersion
	if expectedVersion != nil {
		expected = *expectedVersion
	}
	metadata, _, err := s.readMetadata(ctx, key)
	if err != nil {
		return err
	}
	return configuration.VersionConflict{Key: key, Expected: expected, Actual: actualVersion(metadata)}
}

func (s *StoreService) deleteAll(ctx context.Context, key configuration.Key, metadata *configuration.Metadata) error {
	var result *multierror.Error
	for _, record := range metadata.Versions {
		for _, path := range []blobstore.Path{dataPath(key, record.Version), schemaPath(key, record.Version)} {
			if err := s.store.Delete(ctx, path); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		// keep the metadata around so that the delete can be retried
		return configuration.StoreError{Key: key, Underlying: err}
	}
	if err := s.store.Delete(ctx, metadataPath(key)); err != nil {
		return configuration.StoreError{Key: key, Underlying: err}
	}
	return nil
}

func (s *StoreService) listKeys(ctx context.Context, prefix blobstore.Path) ([]configuration.Key, error) {
	var keys []configuration.Key
	err := s.store.List(ctx, prefix, func(path blobstore.Path) error {
		if key, ok := keyFromMetadataPath(path); ok {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, configuration.StoreError{Key: configuration.Key{}, Underlying: err}
	}
	return keys, nil
}

// readMetadata returns nil metadata if there is none
func (s *StoreService) readMetadata(ctx context.Context, key configuration.Key) (*configuration.Metadata, blobstore.Revision, error) {
	obj, err := s.store.Get(ctx, metadataPath(key))
	if err != nil {
		var notFound blobstore.NotFound
		if errors.As(err, &notFound) {
			return nil, blobstore.Absent, nil
		}
		return nil, blobstore.Absent, configuration.StoreError{Key: key, Underlying: err}
	}
	var metadata configuration.Metadata
	if err := json.Unmarshal(obj.Data, &metadata); err != nil {
		return nil, blobstore.Absent, configuration.StoreError{Key: key, Underlying: fmt.Errorf("corrupt metadata: %w", err)}
	}
	return &metadata, obj.Revision, nil
}

func (s *StoreService) readDocument(ctx context.Context, key configuration.Key, version configuration.Version) (*configuration.Document, error) {
	content, err := s.store.Get(ctx, dataPath(key, version))
	if err != nil {
		return nil, configuration.StoreError{Key: key, Underlying: err}
	}
	schema, err := s.store.Get(ctx, schemaPath(key, version))
	if err != nil {
		return nil, configuration.StoreError{Key: key, Underlying: err}
	}
	return &configuration.Document{
		Content: content.Data,
		Schema:  schema.Data,
		Version: version,
	}, nil
}

func actualVersion(metadata *configuration.Metadata) configuration.Version {
	if metadata == nil || metadata.IsEmpty() {
		return configuration.NoVersion
	}
	return metadata.CurrentVersion
}
