package config

import "time"

// TopLevel exists for namespacing in config files, e.g. openappconfig.server.bind_address,
// which also gives env vars like OPENAPPCONFIG_SERVER_BIND_ADDRESS
type TopLevel struct {
	OpenAppConfig OpenAppConfig `json:"openappconfig" mapstructure:"openappconfig"`
}

type OpenAppConfig struct {
	Server App `json:"server" mapstructure:"server"`
}

type App struct {
	BindAddress     string        `json:"bind_address" mapstructure:"bind_address"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	ListConcurrency uint          `json:"list_concurrency" mapstructure:"list_concurrency"`
	Engine          Engine        `json:"engine" mapstructure:"engine"`
	Storage         Storage       `json:"storage" mapstructure:"storage"`
	ApmClient       *ApmClient    `json:"apm,omitempty" mapstructure:"apm"`
	Logging         *Logging      `json:"logging,omitempty" mapstructure:"logging"`
}

type Logging struct {
	Json  *bool   `json:"json,omitempty" mapstructure:"json"`
	File  *string `json:"file,omitempty" mapstructure:"file"`
	Level *string `json:"level,omitempty" mapstructure:"level"`
}

type ApmClient struct {
	Address     *string `json:"address,omitempty" mapstructure:"address"`
	SecretToken *string `json:"secret_token,omitempty" mapstructure:"secret_token"`
}

type Engine struct {
	// How many times a put is retried from scratch when another writer changed the
	// configuration's metadata in between our read and our write
	VersionConflictRetryTimes uint `json:"version_conflict_retry_times" mapstructure:"version_conflict_retry_times"`
}

type Backend string

const (
	MemoryBackend        Backend = "memory"
	LocalBackend         Backend = "local"
	BoltBackend          Backend = "bolt"
	S3Backend            Backend = "s3"
	ElasticsearchBackend Backend = "elasticsearch"
)

type Storage struct {
	Backend       Backend              `json:"backend" mapstructure:"backend"`
	Local         LocalStorage         `json:"local" mapstructure:"local"`
	Bolt          BoltStorage          `json:"bolt" mapstructure:"bolt"`
	S3            S3Storage            `json:"s3" mapstructure:"s3"`
	Elasticsearch ElasticsearchStorage `json:"elasticsearch" mapstructure:"elasticsearch"`
}

type LocalStorage struct {
	Path string `json:"path" mapstructure:"path"`
}

type BoltStorage struct {
	Path        string        `json:"path" mapstructure:"path"`
	Bucket      string        `json:"bucket" mapstructure:"bucket"`
	OpenTimeout time.Duration `json:"open_timeout" mapstructure:"open_timeout"`
}

type S3Storage struct {
	Bucket          string  `json:"bucket" mapstructure:"bucket"`
	Prefix          string  `json:"prefix" mapstructure:"prefix"`
	Region          string  `json:"region" mapstructure:"region"`
	Endpoint        *string `json:"endpoint,omitempty" mapstructure:"endpoint"`
	AccessKeyId     *string `json:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey *string `json:"-" mapstructure:"secret_access_key"`
	AllowHttp       bool    `json:"allow_http" mapstructure:"allow_http"`
}

type ElasticsearchStorage struct {
	Client ElasticsearchClient `json:"client" mapstructure:"client"`
	Index  string              `json:"index" mapstructure:"index"`
	// Page size used when scrolling through paths
	ScrollSize uint          `json:"scroll_size" mapstructure:"scroll_size"`
	ScrollTtl  time.Duration `json:"scroll_ttl" mapstructure:"scroll_ttl"`
}

type ElasticsearchClient struct {
	Addresses []string       `json:"addresses" mapstructure:"addresses"`
	User      *BasicAuthUser `json:"user,omitempty" mapstructure:"user"`
}

type BasicAuthUser struct {
	Name     string `json:"name" mapstructure:"name"`
	Password string `json:"-" mapstructure:"password"`
}
