package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexdict.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathGivesDefaults(t *testing.T) {
	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, dfltSourceURL, conf.SourceURL)
	assert.Equal(t, "data/Lexique383.tsv", conf.CachePath)
	assert.Equal(t, "data/dict.db", conf.DBPath)
	assert.Equal(t, "fr", conf.Language)
	assert.Equal(t, "wal", conf.JournalMode)
	assert.False(t, conf.DeriveReadings)
	assert.Equal(t, "", conf.SourcePath())
	assert.True(t, conf.Logging.Level.IsValid())
}

func TestLoadFillsLoggingLevel(t *testing.T) {
	conf, err := Load(writeConf(t, `language = "fr"`))
	require.NoError(t, err)
	assert.EqualValues(t, dfltLogLevel, conf.Logging.Level)
	assert.True(t, conf.Logging.Level.IsValid())

	conf, err = Load(writeConf(t, "[logging]\nlevel = \"debug\"\n"))
	require.NoError(t, err)
	assert.EqualValues(t, "debug", conf.Logging.Level)
}

func TestLoadOverridesAndFillsDefaults(t *testing.T) {
	path := writeConf(t, `
source_url = "https://example.org/words.tsv"
db_path = "/tmp/words.db"
language = "JA"
journal_mode = "DELETE"
derive_readings = true

[api]
listen_port = 9090
`)
	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/words.tsv", conf.SourceURL)
	assert.Equal(t, "/tmp/words.db", conf.DBPath)
	assert.Equal(t, dfltCachePath, conf.CachePath)
	assert.Equal(t, "ja", conf.Language)
	assert.Equal(t, "delete", conf.JournalMode)
	assert.True(t, conf.DeriveReadings)
	assert.True(t, conf.IsJapanese())
	assert.Equal(t, 9090, conf.API.ListenPort)
	assert.Equal(t, dfltDefaultLimit, conf.API.DefaultLimit)
	assert.Equal(t, path, conf.SourcePath())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"language":     `language = "not a language tag!"`,
		"journal mode": `journal_mode = "fast"`,
		"scheme":       `source_url = "ftp://example.org/words.tsv"`,
		"log level": `
[logging]
level = "chatty"`,
		"limits": `
[api]
default_limit = 100
max_limit = 10`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConf(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestIsJapanese(t *testing.T) {
	conf := Default()
	assert.False(t, conf.IsJapanese())
	conf.Language = "ja-JP"
	assert.True(t, conf.IsJapanese())
}
