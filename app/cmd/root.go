package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-openapi/swag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.elastic.co/apm"
	"go.elastic.co/apm/transport"

	"github.com/openappconfig/openappconfig/internal/config"
	"github.com/openappconfig/openappconfig/internal/infra/server"
)

var (
	configFile string
	appConfig  config.App
	logFile    *os.File

	defaultConfigPaths = []string{
		".",
		"./config",
		"/app/config",
	}
	rootCmd = &cobra.Command{
		Use:   "openappconfig",
		Short: "openappconfig is a configuration store.",
		Long:  `openappconfig stores versioned, schema-validated JSON configurations on pluggable storage backends`,
		Run: func(cmd *cobra.Command, args []string) {
			components, err := server.NewComponents(&appConfig)
			if err != nil {
				log.Fatal().Err(err).Send()
			} else {
				components.Run()
			}
		},
	}
)

const (
	serverConfigPrefix = "openappconfig.server."
	defaultHost        = "0.0.0.0"
	defaultPort        = "3000"
)

// Defaults, so that the server can run without any config file at all
var defaults = map[string]interface{}{
	"shutdown_timeout":                       10 * time.Second,
	"list_concurrency":                       8,
	"engine.version_conflict_retry_times":    3,
	"storage.backend":                        string(config.LocalBackend),
	"storage.local.path":                     "./data",
	"storage.bolt.path":                      "./data/openappconfig.db",
	"storage.bolt.bucket":                    "configurations",
	"storage.bolt.open_timeout":              time.Second,
	"storage.s3.region":                      "us-east-1",
	"storage.elasticsearch.client.addresses": []string{"http://localhost:9200"},
	"storage.elasticsearch.index":            ".openappconfig_blobs",
	"storage.elasticsearch.scroll_size":      500,
	"storage.elasticsearch.scroll_ttl":       time.Minute,
}

// Shorter env var names that are commonly set in container environments. These are
// checked after the namespaced OPENAPPCONFIG_SERVER_... ones; when several names are listed
// for a key, the first one that is set is used.
var envAliases = map[string][]string{
	"storage.backend":              {"STORAGE_BACKEND"},
	"storage.local.path":           {"STORAGE_PATH"},
	"storage.s3.bucket":            {"AWS_BUCKET", "S3_BUCKET"},
	"storage.s3.prefix":            {"S3_PREFIX"},
	"storage.s3.region":            {"AWS_REGION"},
	"storage.s3.endpoint":          {"AWS_ENDPOINT", "AWS_ENDPOINT_URL"},
	"storage.s3.access_key_id":     {"AWS_ACCESS_KEY_ID"},
	"storage.s3.secret_access_key": {"AWS_SECRET_ACCESS_KEY"},
	"storage.s3.allow_http":        {"AWS_ALLOW_HTTP"},
	"storage.elasticsearch.index":  {"ELASTICSEARCH_INDEX"},
}

// Executes the root command, which is to run the server
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Send()
		closeLogFile()
	}
	defer closeLogFile()
}

func init() {
	cobra.OnInitialize(initConfig, configureLogging, configureApm)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (by default, looks in [%v] for 'openappconfig.yaml')", defaultConfigPaths))
}

// initConfig reads the application config and sets it globally
func initConfig() {
	viper.AllowEmptyEnv(true)
	if configFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("openappconfig")
		for _, p := range defaultConfigPaths {
			viper.AddConfigPath(p)
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	setDefaults()
	if err := bindEnvAliases(); err != nil {
		log.Fatal().Err(err).Msg("Failed to bind env vars")
	}

	if err := viper.ReadInConfig(); err == nil {
		log.Info().Msgf("Using config file: %v", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			log.Info().Msg("No config file found, using defaults and env vars")
		} else {
			log.Fatal().Err(err).Msg("Failed to read the config file")
		}
	}

	// Unmarshal it, UnmarshalKey doesn't play well with Env vars, hence
	// the top level wrapping in order to do namespacing in the config file
	var t config.TopLevel
	err := viper.Unmarshal(&t)

	if err != nil {
		log.Error().Err(err).Send()
		closeLogFile()
		os.Exit(1)
	}
	appConfig = t.OpenAppConfig.Server
	if len(appConfig.BindAddress) == 0 {
		appConfig.BindAddress = bindAddressFromEnv()
	}
}

func setDefaults() {
	for k, v := range defaults {
		viper.SetDefault(serverConfigPrefix+k, v)
	}
}

// bindEnvAliases binds one env var per key, since viper only takes a single name
func bindEnvAliases() error {
	for k, envVars := range envAliases {
		if err := viper.BindEnv(serverConfigPrefix+k, firstSetEnv(envVars)); err != nil {
			return err
		}
	}
	return nil
}

// firstSetEnv returns the first of envVars that is set, or the first one if none are
func firstSetEnv(envVars []string) string {
	for _, envVar := range envVars {
		if _, ok := os.LookupEnv(envVar); ok {
			return envVar
		}
	}
	return envVars[0]
}

// bindAddressFromEnv is used when no bind address is configured. BIND_ADDRESS wins over
// HOST and PORT.
func bindAddressFromEnv() string {
	if bindAddress := os.Getenv("BIND_ADDRESS"); len(bindAddress) != 0 {
		return bindAddress
	}
	host, port := os.Getenv("HOST"), os.Getenv("PORT")
	if len(host) == 0 {
		host = defaultHost
	}
	if len(port) == 0 {
		port = defaultPort
	}
	return host + ":" + port
}

// configureLogging configures the logger based on loaded config
// It assumes that the config has already been set and is non-nil
func configureLogging() {
	jsonLogging := false
	var file *string
	var level *zerolog.Level
	if appConfig.Logging != nil {
		jsonLogging = swag.BoolValue(appConfig.Logging.Json)
		if appConfig.Logging.File != nil {
			file = appConfig.Logging.File
		}
		if appConfig.Logging.Level != nil {
			parsedLevel, err := zerolog.ParseLevel(*appConfig.Logging.Level)
			if err != nil {
				log.Warn().
					Str("configured_level", *appConfig.Logging.Level).
					Str("will_use_level", zerolog.InfoLevel.String()).
					Msg("Invalid level configured, ignoring")
			} else {
				level = &parsedLevel
			}
		}
	}
	writeTo := os.Stderr // default
	if file != nil {
		f, err := os.OpenFile(*file, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open log file for writing.")
		}
		logFile = f
		writeTo = f
	}
	if !jsonLogging {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: writeTo})
	} else {
		log.Logger = log.Output(writeTo)
	}
	if level == nil {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(*level)
	}
}

func closeLogFile() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

// configureApm configures APM by simply setting env vars if we override their
// values in our config
func configureApm() {
	if v := os.Getenv("ELASTIC_APM_SERVICE_NAME"); len(v) == 0 {
		if err := os.Setenv("ELASTIC_APM_SERVICE_NAME", "openappconfig"); err != nil {
			log.Fatal().Err(err).Send()
		}
	}
	if appConfig.ApmClient != nil {
		apmConf := *appConfig.ApmClient
		log.Info().Interface("apm_conf", apmConf).Msg("Configuring APM based on config file values")

		if apmConf.Address != nil {
			if err := os.Setenv("ELASTIC_APM_SERVER_URL", *apmConf.Address); err != nil {
				log.Fatal().Err(err).Send()
			}
		}
		if apmConf.SecretToken != nil {
			if err := os.Setenv("ELASTIC_APM_SECRET_TOKEN", *apmConf.SecretToken); err != nil {
				log.Fatal().Err(err).Send()
			}
		}
	}
	// re-init the global tracer
	tracerOptions := apm.TracerOptions{}
	apmTransport, err := transport.NewHTTPTransport()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	tracerOptions.Transport = apmTransport
	if tracer, err := apm.NewTracerOptions(tracerOptions); err != nil {
		log.Fatal().Err(err).Send()
	} else {
		apm.DefaultTracer.Close()
		apm.DefaultTracer = tracer
	}
}
