package cmd

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/backend"
	"github.com/openappconfig/openappconfig/internal/infra/server"
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showConfigCmd)
	showCmd.AddCommand(showBackendCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show information",
	Long:  `Sometimes you just need to know more`,
}

var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config",
	Long:  `Renders the config that we end up using, secrets left out`,
	Run: func(cmd *cobra.Command, args []string) {
		out, err := json.MarshalIndent(&appConfig, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Error marshalling config to JSON")
		} else {
			log.Info().Msg(string(out))
		}
	},
}

var showBackendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Show storage backend status",
	Long:  `Checks whether the configured storage backend is reachable and set up, without changing anything`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store, backendSetup, err := backend.New(ctx, appConfig.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not build storage backend")
		}
		defer func() {
			_ = store.Close()
		}()

		err = server.NewSetup(backendSetup).Check(ctx)
		var notSetUp blobstore.NotSetUp
		switch {
		case err == nil:
			log.Info().Str("backend", string(appConfig.Storage.Backend)).Msg("Storage backend is ready")
		case errors.As(err, &notSetUp):
			log.Warn().Str("backend", string(appConfig.Storage.Backend)).Str("reason", notSetUp.Reason).Msg("Storage backend is not set up, run the setup command")
		default:
			log.Error().Err(err).Str("backend", string(appConfig.Storage.Backend)).Msg("Storage backend check failed")
		}
	},
}
