package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openappconfig/openappconfig/internal/infra/blobstore/backend"
	"github.com/openappconfig/openappconfig/internal/infra/server"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run openappconfig setup",
	Long:  "Runs setup routines for the configured storage backend, e.g. creating the root directory, bucket or index template",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, backendSetup, err := backend.New(ctx, appConfig.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not build storage backend")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close storage backend")
			}
		}()

		if err := server.NewSetup(backendSetup).RunIfNeeded(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to set up storage backend")
		}
		log.Info().Msg("Setup complete.")
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
