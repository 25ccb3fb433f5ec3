package server

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
)

// Setup abstracts away:
//
// 1. Setting up the storage backend for running OpenAppConfig
// 2. Checking that things are set up
type Setup interface {

	// Check returns an error if all the necessary setup is not complete
	Check(ctx context.Context) error

	// RunIfNeeded attempts to run the subroutines necessary, no more no less
	RunIfNeeded(ctx context.Context) error
}

type impl struct {
	backend blobstore.Setup
}

// NewSetup returns a Setup implementation
func NewSetup(backend blobstore.Setup) Setup {
	return &impl{
		backend: backend,
	}
}

func (i *impl) Check(ctx context.Context) error {
	return i.backend.Check(ctx)
}

func (i *impl) RunIfNeeded(ctx context.Context) error {
	if err := i.backend.Check(ctx); err != nil {
		var notSetUp blobstore.NotSetUp
		if errors.As(err, &notSetUp) {
			log.Info().Str("reason", notSetUp.Reason).Msg("Setting up storage backend")
			if err := i.backend.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to set up storage backend")
				return err
			}
		} else {
			log.Info().Msg("Skipping storage backend setup")
			return err
		}
	}

	log.Info().Msg("Setup complete")
	return nil
}
