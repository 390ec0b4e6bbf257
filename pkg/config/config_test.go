package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librepod/librepod/pkg/model"
)

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	const file = `
feeds = ["https://a.example.com/feed.xml", " ", "https://b.example.com/rss"]
opml = "subscriptions.opml"

[server]
port = 80
bind_address = "127.0.0.1"

[log]
filename = "librepod.log"
max_size = 10

[database]
driver = "postgres"
url = "postgres://postgres:@localhost/librepod?sslmode=disable"

[cache]
backend = "badger"
ttl = "24h"
dir = "/var/cache/librepod"

  [cache.badger]
  truncate = true
  file_io = true

[updater]
schedule = "*/30 * * * *"
concurrency = 8
timeout = "15s"
user_agent = "librepod/1.0"

  [updater.filters]
  not_title = "(?i)trailer"
  max_age = 90

  [[updater.on_new_episodes]]
  command = ["curl", "-X", "POST", "http://localhost:8081/notify"]
  timeout = 10
`

	config, err := LoadConfig(writeConfig(t, file))
	require.NoError(t, err)

	assert.Equal(t, StringSlice{"https://a.example.com/feed.xml", "https://b.example.com/rss"}, config.Feeds)
	assert.Equal(t, "subscriptions.opml", config.OPML)

	assert.EqualValues(t, 80, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.BindAddress)

	assert.Equal(t, "librepod.log", config.Log.Filename)
	assert.Equal(t, 10, config.Log.MaxSize)
	assert.Equal(t, model.DefaultLogMaxAge, config.Log.MaxAge)
	assert.Equal(t, model.DefaultLogMaxBackups, config.Log.MaxBackups)

	assert.Equal(t, DriverPostgres, config.Database.Driver)
	assert.Equal(t, "postgres://postgres:@localhost/librepod?sslmode=disable", config.Database.URL)
	assert.Empty(t, config.Database.Path)

	assert.Equal(t, BackendBadger, config.Cache.Backend)
	assert.Equal(t, Duration{24 * time.Hour}, config.Cache.TTL)
	assert.Equal(t, "/var/cache/librepod", config.Cache.Dir)
	require.NotNil(t, config.Cache.Badger)
	assert.True(t, config.Cache.Badger.Truncate)
	assert.True(t, config.Cache.Badger.FileIO)

	assert.Equal(t, "*/30 * * * *", config.Updater.Schedule)
	assert.Equal(t, 8, config.Updater.Concurrency)
	assert.Equal(t, Duration{15 * time.Second}, config.Updater.Timeout)
	assert.Equal(t, "librepod/1.0", config.Updater.UserAgent)
	assert.Equal(t, "(?i)trailer", config.Updater.Filters.NotTitle)
	assert.Equal(t, 90, config.Updater.Filters.MaxAge)

	require.Len(t, config.Updater.OnNewEpisodes, 1)
	assert.Equal(t, []string{"curl", "-X", "POST", "http://localhost:8081/notify"}, config.Updater.OnNewEpisodes[0].Command)
	assert.Equal(t, 10, config.Updater.OnNewEpisodes[0].Timeout)
}

func TestApplyDefaults(t *testing.T) {
	path := writeConfig(t, `feeds = "https://a.example.com/feed.xml"`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, StringSlice{"https://a.example.com/feed.xml"}, config.Feeds)

	assert.Equal(t, model.DefaultServerPort, config.Server.Port)

	assert.Equal(t, DriverSQLite, config.Database.Driver)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "db", "librepod.db"), config.Database.Path)

	assert.Equal(t, BackendMemory, config.Cache.Backend)
	assert.Nil(t, config.Cache.Badger)

	assert.Equal(t, model.DefaultRefreshSchedule, config.Updater.Schedule)
	assert.Equal(t, model.DefaultConcurrency, config.Updater.Concurrency)
	assert.Equal(t, model.DefaultFetchTimeout, config.Updater.Timeout.Duration)
	assert.Equal(t, model.DefaultUserAgent, config.Updater.UserAgent)

	assert.Empty(t, config.Log.Filename)
	assert.Zero(t, config.Log.MaxSize)
}

func TestApplyDefaults_BadgerDir(t *testing.T) {
	path := writeConfig(t, "[cache]\nbackend = \"badger\"\n")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "cache"), config.Cache.Dir)
	assert.NotNil(t, config.Cache.Badger)
}

func TestValidate(t *testing.T) {
	const file = `
feeds = ["ftp://a.example.com/feed.xml", "not a url"]

[database]
driver = "mysql"

[cache]
backend = "redis"

[updater]
schedule = "every now and then"

  [[updater.on_new_episodes]]
  timeout = 5
`

	_, err := LoadConfig(writeConfig(t, file))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, `unsupported database driver "mysql"`)
	assert.Contains(t, msg, "redis URL is required")
	assert.Contains(t, msg, "invalid updater schedule")
	assert.Contains(t, msg, `invalid feed URL "ftp://a.example.com/feed.xml"`)
	assert.Contains(t, msg, `invalid feed URL "not a url"`)
	assert.Contains(t, msg, "hook 0 has no command")
}

func TestValidate_Postgres(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[database]\ndriver = \"postgres\"\n"))
	assert.Error(t, err)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("forever")))
}

func TestStringSlice(t *testing.T) {
	var s StringSlice
	require.NoError(t, s.UnmarshalTOML("a"))
	assert.Equal(t, StringSlice{"a"}, s)

	require.NoError(t, s.UnmarshalTOML([]interface{}{"a", " b "}))
	assert.Equal(t, StringSlice{"a", "b"}, s)

	assert.Error(t, s.UnmarshalTOML([]interface{}{1}))
	assert.Error(t, s.UnmarshalTOML(42))
}

func TestValidate_TLS(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[server]\ntls = true\ncertificate_path = \"cert.pem\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate and key files are required")
}
