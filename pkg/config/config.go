package config

import (
	"net/url"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/librepod/librepod/pkg/feed"
	"github.com/librepod/librepod/pkg/model"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

type Server struct {
	// Port is a server port to listen to
	Port int `toml:"port"`
	// Bind a specific IP address, "*" binds all addresses
	BindAddress string `toml:"bind_address"`
	// Flag indicating if the server will use TLS
	TLS bool `toml:"tls"`
	// Path to a certificate file for TLS connections
	CertificatePath string `toml:"certificate_path"`
	// Path to a private key file for TLS connections
	KeyFilePath string `toml:"key_file_path"`
	// DebugEndpoints exposes expvar at /debug/vars
	DebugEndpoints bool `toml:"debug_endpoints"`
}

type Log struct {
	// Filename to write the log to (instead of stdout)
	Filename string `toml:"filename"`
	// MaxSize is the maximum size of the log file in MB
	MaxSize int `toml:"max_size"`
	// MaxBackups is the maximum number of log file backups to keep after rotation
	MaxBackups int `toml:"max_backups"`
	// MaxAge is the maximum number of days to keep the logs for
	MaxAge int `toml:"max_age"`
	// Compress old backups
	Compress bool `toml:"compress"`
}

type Database struct {
	// Driver is either "sqlite" or "postgres"
	Driver string `toml:"driver"`
	// Path is SQLite database file
	Path string `toml:"path"`
	// URL is Postgres connection string
	URL string `toml:"url"`
}

type Cache struct {
	// Backend is one of "memory", "redis" or "badger"
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
	// TTL limits how long a cached feed is kept, zero keeps it forever
	TTL Duration `toml:"ttl"`
	// Dir is a directory to keep Badger files
	Dir    string  `toml:"dir"`
	Badger *Badger `toml:"badger"`
}

// Badger represents BadgerDB configuration parameters
// See https://github.com/dgraph-io/badger#memory-usage
type Badger struct {
	Truncate bool `toml:"truncate"`
	FileIO   bool `toml:"file_io"`
}

type Updater struct {
	// Schedule is a cron expression of how often to refresh all channels
	Schedule string `toml:"schedule"`
	// Concurrency is the number of channels refreshed in parallel
	Concurrency int `toml:"concurrency"`
	// Timeout of a single feed request
	Timeout   Duration `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
	// Only store episodes that match the filters (defaults to matching anything)
	Filters feed.Filters `toml:"filters"`
	// OnNewEpisodes hooks run after a refresh inserted new episodes
	OnNewEpisodes []*feed.ExecHook `toml:"on_new_episodes"`
}

type Config struct {
	// Feeds to subscribe to on start
	Feeds StringSlice `toml:"feeds"`
	// OPML is a subscription list file to import on start
	OPML string `toml:"opml"`
	// Server is the web server configuration
	Server Server `toml:"server"`
	// Log is the optional logging configuration
	Log Log `toml:"log"`
	// Database configuration
	Database Database `toml:"database"`
	// Cache configuration
	Cache Cache `toml:"cache"`
	// Updater configuration
	Updater Updater `toml:"updater"`
}

// LoadConfig loads TOML configuration from a file path
func LoadConfig(path string) (*Config, error) {
	config := Config{}
	_, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config file")
	}

	config.applyDefaults(path)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	if c.Server.TLS && (c.Server.CertificatePath == "" || c.Server.KeyFilePath == "") {
		result = multierror.Append(result, errors.New("certificate and key files are required for TLS"))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			result = multierror.Append(result, errors.New("database path is required"))
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			result = multierror.Append(result, errors.New("database URL is required for postgres"))
		}
	default:
		result = multierror.Append(result, errors.Errorf("unsupported database driver %q", c.Database.Driver))
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			result = multierror.Append(result, errors.New("redis URL is required for redis cache"))
		}
	case BackendBadger:
		if c.Cache.Dir == "" {
			result = multierror.Append(result, errors.New("cache directory is required for badger cache"))
		}
	default:
		result = multierror.Append(result, errors.Errorf("unsupported cache backend %q", c.Cache.Backend))
	}

	if _, err := cron.ParseStandard(c.Updater.Schedule); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "invalid updater schedule %q", c.Updater.Schedule))
	}

	if c.Updater.Concurrency < 0 {
		result = multierror.Append(result, errors.New("updater concurrency can't be negative"))
	}

	for i, hook := range c.Updater.OnNewEpisodes {
		if hook == nil || len(hook.Command) == 0 {
			result = multierror.Append(result, errors.Errorf("hook %d has no command", i))
		}
	}

	for _, feedURL := range c.Feeds {
		u, err := url.Parse(feedURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			result = multierror.Append(result, errors.Errorf("invalid feed URL %q", feedURL))
		}
	}

	return result.ErrorOrNil()
}

func (c *Config) applyDefaults(configPath string) {
	if c.Server.Port == 0 {
		c.Server.Port = model.DefaultServerPort
	}

	if c.Log.Filename != "" {
		if c.Log.MaxSize == 0 {
			c.Log.MaxSize = model.DefaultLogMaxSize
		}
		if c.Log.MaxAge == 0 {
			c.Log.MaxAge = model.DefaultLogMaxAge
		}
		if c.Log.MaxBackups == 0 {
			c.Log.MaxBackups = model.DefaultLogMaxBackups
		}
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}

	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = filepath.Join(filepath.Dir(configPath), "db", "librepod.db")
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendMemory
	}

	if c.Cache.Backend == BackendBadger {
		if c.Cache.Dir == "" {
			c.Cache.Dir = filepath.Join(filepath.Dir(configPath), "cache")
		}
		if c.Cache.Badger == nil {
			c.Cache.Badger = &Badger{}
		}
	}

	if c.Updater.Schedule == "" {
		c.Updater.Schedule = model.DefaultRefreshSchedule
	}

	if c.Updater.Concurrency == 0 {
		c.Updater.Concurrency = model.DefaultConcurrency
	}

	if c.Updater.Timeout.Duration == 0 {
		c.Updater.Timeout.Duration = model.DefaultFetchTimeout
	}

	if c.Updater.UserAgent == "" {
		c.Updater.UserAgent = model.DefaultUserAgent
	}
}
