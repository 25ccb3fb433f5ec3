package configuration

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/openappconfig/openappconfig/internal/api/models/common"
	"github.com/openappconfig/openappconfig/internal/api/models/configuration"
	domainConfiguration "github.com/openappconfig/openappconfig/internal/domain/configuration"
)

// Controller is an interface that defines the methods that are available to the routing
// layer. It is framework-agnostic
type Controller interface {
	// Get returns the current version of a configuration
	Get(ctx context.Context, key domainConfiguration.Key) (*configuration.Document, *common.ApiError)

	// GetVersion returns a specific version of a configuration
	GetVersion(ctx context.Context, key domainConfiguration.Key, version domainConfiguration.Version) (*configuration.Document, *common.ApiError)

	// Put writes a new version of a configuration after resolving its schema and validating
	// the content against it.
	//
	// Never pass a nil here; it's a pointer because the struct isn't small
	Put(ctx context.Context, key domainConfiguration.Key, put *configuration.Put) (*configuration.PutResult, *common.ApiError)

	// Delete removes a configuration and all its versions
	Delete(ctx context.Context, key domainConfiguration.Key) (*configuration.Deleted, *common.ApiError)

	// DeleteEnvironment removes every configuration in an application's environment
	DeleteEnvironment(ctx context.Context, application string, environment string) (*configuration.EnvironmentDeleted, *common.ApiError)

	// ListVersions returns the version history of a configuration, oldest first
	ListVersions(ctx context.Context, key domainConfiguration.Key) (*configuration.Versions, *common.ApiError)

	// List returns summaries of every configuration under the given path prefix
	List(ctx context.Context, prefix string) (*configuration.Listing, *common.ApiError)
}

// New returns a Controller. listConcurrency caps how many configurations are looked up at
// the same time when listing; 0 means no cap.
func New(service domainConfiguration.Service, writer domainConfiguration.Writer, listConcurrency uint) Controller {
	return &impl{
		service:         service,
		writer:          writer,
		listConcurrency: listConcurrency,
	}
}

type impl struct {
	service         domainConfiguration.Service
	writer          domainConfiguration.Writer
	listConcurrency uint
}

func (c *impl) Get(ctx context.Context, key domainConfiguration.Key) (*configuration.Document, *common.ApiError) {
	result, err := c.service.Get(ctx, key)
	if err != nil {
		return nil, handleErr(err)
	} else {
		d := configuration.FromDomainDocument(key, result)
		return &d, nil
	}
}

func (c *impl) GetVersion(ctx context.Context, key domainConfiguration.Key, version domainConfiguration.Version) (*configuration.Document, *common.ApiError) {
	result, err := c.service.GetVersion(ctx, key, version)
	if err != nil {
		return nil, handleErr(err)
	} else {
		d := configuration.FromDomainDocument(key, result)
		return &d, nil
	}
}

func (c *impl) Put(ctx context.Context, key domainConfiguration.Key, put *configuration.Put) (*configuration.PutResult, *common.ApiError) {
	version, err := c.writer.Write(ctx, key, put.ToSubmission())
	if err != nil {
		return nil, handleErr(err)
	} else {
		return &configuration.PutResult{
			Message: "Configuration saved",
			Version: version,
		}, nil
	}
}

func (c *impl) Delete(ctx context.Context, key domainConfiguration.Key) (*configuration.Deleted, *common.ApiError) {
	if err := c.service.Delete(ctx, key); err != nil {
		return nil, handleErr(err)
	} else {
		return &configuration.Deleted{Message: fmt.Sprintf("Configuration [%v] deleted", key)}, nil
	}
}

func (c *impl) DeleteEnvironment(ctx context.Context, application string, environment string) (*configuration.EnvironmentDeleted, *common.ApiError) {
	deleted, err := c.service.DeleteEnvironment(ctx, application, environment)
	if err != nil {
		return nil, handleErr(err)
	} else {
		return &configuration.EnvironmentDeleted{
			Message: fmt.Sprintf("Environment [%s/%s] deleted", application, environment),
			Deleted: deleted,
		}, nil
	}
}

func (c *impl) ListVersions(ctx context.Context, key domainConfiguration.Key) (*configuration.Versions, *common.ApiError) {
	records, err := c.service.ListVersions(ctx, key)
	if err != nil {
		return nil, handleErr(err)
	} else {
		v := configuration.FromDomainVersionRecords(records)
		return &v, nil
	}
}

func (c *impl) List(ctx context.Context, prefix string) (*configuration.Listing, *common.ApiError) {
	keySet, err := c.service.List(ctx, prefix)
	if err != nil {
		return nil, handleErr(err)
	}
	keys := keySet.ToSlice()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	// One slot per key so that no locking is needed; keys deleted in the meantime stay nil
	summaries := make([]*configuration.Summary, len(keys))
	g, gCtx := errgroup.WithContext(ctx)
	if c.listConcurrency > 0 {
		g.SetLimit(int(c.listConcurrency))
	}
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			records, err := c.service.ListVersions(gCtx, key)
			if err != nil {
				var notFound domainConfiguration.NotFound
				if errors.As(err, &notFound) {
					log.Debug().Str("key", key.String()).Msg("Configuration went away while listing")
					return nil
				}
				return err
			}
			var current domainConfiguration.Version
			if len(records) > 0 {
				current = records[len(records)-1].Version
			}
			summaries[i] = &configuration.Summary{
				Application:    key.Application,
				Environment:    key.Environment,
				ConfigName:     key.ConfigName,
				CurrentVersion: current,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, handleErr(err)
	}

	listing := configuration.Listing{Configs: make([]configuration.Summary, 0, len(summaries))}
	for _, s := range summaries {
		if s != nil {
			listing.Configs = append(listing.Configs, *s)
		}
	}
	return &listing, nil
}

func handleErr(err error) *common.ApiError {
	switch v := err.(type) {
	case domainConfiguration.NotFound:
		return common.NotFound(v)
	case domainConfiguration.BadRequest:
		return common.BadRequest(v)
	case domainConfiguration.ValidationError:
		return common.BadRequest(v)
	case domainConfiguration.InvalidKey:
		return common.BadRequest(v)
	case domainConfiguration.VersionConflict:
		return common.Conflict(v)
	case domainConfiguration.AlreadyExists:
		return common.Conflict(v)
	default:
		return unhandledErr(v)
	}
}

func unhandledErr(err error) *common.ApiError {
	log.Error().Err(err).Msg("Unhandled error")
	return common.InternalServerError(err)
}
