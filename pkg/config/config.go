// Package config holds the settings of a dictionary build and of the lookup
// service. Defaults live in Default; a TOML file may override any of them.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/japaniel/lexdict/pkg/db"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

const (
	dfltSourceURL       = "http://www.lexique.org/databases/Lexique383/Lexique383.tsv"
	dfltCachePath       = "data/Lexique383.tsv"
	dfltDBPath          = "data/dict.db"
	dfltLanguage        = "fr"
	dfltJournalMode     = "wal"
	dfltHTTPTimeoutSecs = 600

	dfltListenAddress = "0.0.0.0"
	dfltListenPort    = 8080
	dfltDefaultLimit  = 30
	dfltMaxLimit      = 500
	dfltReadTimeout   = 10
	dfltWriteTimeout  = 10

	dfltLogLevel = "info"
)

// APIConf configures the read-only lookup service.
type APIConf struct {
	ListenAddress    string `toml:"listen_address"`
	ListenPort       int    `toml:"listen_port"`
	DefaultLimit     int    `toml:"default_limit"`
	MaxLimit         int    `toml:"max_limit"`
	ReadTimeoutSecs  int    `toml:"read_timeout_secs"`
	WriteTimeoutSecs int    `toml:"write_timeout_secs"`
}

// Conf is the complete configuration of a build run.
type Conf struct {
	SourceURL       string              `toml:"source_url"`
	CachePath       string              `toml:"cache_path"`
	DBPath          string              `toml:"db_path"`
	Language        string              `toml:"language"`
	JournalMode     string              `toml:"journal_mode"`
	DeriveReadings  bool                `toml:"derive_readings"`
	MetricsTextfile string              `toml:"metrics_textfile"`
	HTTPTimeoutSecs int                 `toml:"http_timeout_secs"`
	API             APIConf             `toml:"api"`
	Logging         logging.LoggingConf `toml:"logging"`

	srcPath string
}

// HTTPTimeout is the overall deadline for downloading the source dataset.
func (conf *Conf) HTTPTimeout() time.Duration {
	return time.Duration(conf.HTTPTimeoutSecs) * time.Second
}

// SourcePath returns the file the configuration was loaded from
// (empty for built-in defaults).
func (conf *Conf) SourcePath() string {
	return conf.srcPath
}

// Default returns the built-in configuration.
func Default() *Conf {
	return &Conf{
		SourceURL:       dfltSourceURL,
		CachePath:       dfltCachePath,
		DBPath:          dfltDBPath,
		Language:        dfltLanguage,
		JournalMode:     dfltJournalMode,
		HTTPTimeoutSecs: dfltHTTPTimeoutSecs,
		API: APIConf{
			ListenAddress:    dfltListenAddress,
			ListenPort:       dfltListenPort,
			DefaultLimit:     dfltDefaultLimit,
			MaxLimit:         dfltMaxLimit,
			ReadTimeoutSecs:  dfltReadTimeout,
			WriteTimeoutSecs: dfltWriteTimeout,
		},
		Logging: logging.LoggingConf{Level: dfltLogLevel},
	}
}

// Load reads a TOML configuration file. An empty path yields Default.
// Missing values are filled in by ApplyDefaults and the result is validated.
func Load(path string) (*Conf, error) {
	if path == "" {
		conf := Default()
		return conf, Validate(conf)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var conf Conf
	if _, err := toml.Decode(string(data), &conf); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	conf.srcPath = path
	ApplyDefaults(&conf)
	if err := Validate(&conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(conf *Conf) {
	if strings.TrimSpace(conf.SourceURL) == "" {
		conf.SourceURL = dfltSourceURL
		log.Warn().Msgf("source_url not specified, using default: %s", dfltSourceURL)
	}
	if strings.TrimSpace(conf.CachePath) == "" {
		conf.CachePath = dfltCachePath
		log.Warn().Msgf("cache_path not specified, using default: %s", dfltCachePath)
	}
	if strings.TrimSpace(conf.DBPath) == "" {
		conf.DBPath = dfltDBPath
		log.Warn().Msgf("db_path not specified, using default: %s", dfltDBPath)
	}
	if strings.TrimSpace(conf.Language) == "" {
		conf.Language = dfltLanguage
		log.Warn().Msgf("language not specified, using default: %s", dfltLanguage)
	}
	if strings.TrimSpace(conf.JournalMode) == "" {
		conf.JournalMode = dfltJournalMode
	}
	if conf.HTTPTimeoutSecs == 0 {
		conf.HTTPTimeoutSecs = dfltHTTPTimeoutSecs
	}
	if conf.API.ListenAddress == "" {
		conf.API.ListenAddress = dfltListenAddress
	}
	if conf.API.ListenPort == 0 {
		conf.API.ListenPort = dfltListenPort
	}
	if conf.API.DefaultLimit == 0 {
		conf.API.DefaultLimit = dfltDefaultLimit
	}
	if conf.API.MaxLimit == 0 {
		conf.API.MaxLimit = dfltMaxLimit
	}
	if conf.API.ReadTimeoutSecs == 0 {
		conf.API.ReadTimeoutSecs = dfltReadTimeout
	}
	if conf.API.WriteTimeoutSecs == 0 {
		conf.API.WriteTimeoutSecs = dfltWriteTimeout
	}
	if conf.Logging.Level == "" {
		conf.Logging.Level = dfltLogLevel
		log.Warn().Msgf("logging.level not specified, using default: %s", dfltLogLevel)
	}
}

// Validate checks the configuration and canonicalizes the language tag
// and journal mode in place.
func Validate(conf *Conf) error {
	u, err := url.Parse(conf.SourceURL)
	if err != nil {
		return fmt.Errorf("invalid source_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid source_url %q: scheme must be http or https", conf.SourceURL)
	}
	tag, err := language.Parse(strings.TrimSpace(conf.Language))
	if err != nil {
		return fmt.Errorf("invalid language %q: %w", conf.Language, err)
	}
	conf.Language = tag.String()

	conf.JournalMode = strings.ToLower(strings.TrimSpace(conf.JournalMode))
	if !db.IsJournalMode(conf.JournalMode) {
		return fmt.Errorf("invalid journal_mode %q", conf.JournalMode)
	}
	if !conf.Logging.Level.IsValid() {
		return fmt.Errorf("invalid logging.level %q", conf.Logging.Level)
	}
	if conf.HTTPTimeoutSecs < 0 {
		return fmt.Errorf("http_timeout_secs must not be negative")
	}
	if conf.API.DefaultLimit <= 0 || conf.API.MaxLimit <= 0 {
		return fmt.Errorf("api limits must be positive")
	}
	if conf.API.DefaultLimit > conf.API.MaxLimit {
		return fmt.Errorf("api.default_limit (%d) exceeds api.max_limit (%d)", conf.API.DefaultLimit, conf.API.MaxLimit)
	}
	return nil
}

// IsJapanese tells whether the configured language is Japanese.
func (conf *Conf) IsJapanese() bool {
	tag, err := language.Parse(conf.Language)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	return base.String() == "ja"
}
