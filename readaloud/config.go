package readaloud

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "READALOUD"

// LoadConfig reads the TOML file at path. Every key can be overridden by an
// environment variable such as READALOUD_REDIS_URL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)

	v.SetDefault("ui.locale", "en-US")
	v.SetDefault("ui.locales_dir", "locales")
	v.SetDefault("ui.color", true)

	v.SetDefault("engine.name", "clock")
	v.SetDefault("engine.words_per_minute", 180)
	v.SetDefault("engine.catalog_delay", "0s")
	v.SetDefault("engine.player", []string{})

	v.SetDefault("google.language_code", "en-US")
	v.SetDefault("google.default_voice", "")
	v.SetDefault("google.sample_rate", 24000)

	v.SetDefault("catalog.preferred_voice", "")
	v.SetDefault("catalog.preferred_language", "")
	v.SetDefault("catalog.poll_interval", "2s")

	v.SetDefault("preferences.store", "memory")
	v.SetDefault("preferences.driver", "sqlite")
	v.SetDefault("preferences.dsn", "readaloud.db")
	v.SetDefault("preferences.redis_key", "readaloud:preferences")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.ttl", "24h")
}

type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	UI          UIConfig          `mapstructure:"ui"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Google      GoogleConfig      `mapstructure:"google"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Redis       RedisConfig       `mapstructure:"redis"`
}

type LogConfig struct {
	Level     slog.Level `mapstructure:"level"`
	Format    string     `mapstructure:"format"`
	AddSource bool       `mapstructure:"add_source"`
}

type UIConfig struct {
	Locale     string `mapstructure:"locale"`
	LocalesDir string `mapstructure:"locales_dir"`
	Color      bool   `mapstructure:"color"`
}

type EngineConfig struct {
	// Name is "clock" or "google".
	Name           string        `mapstructure:"name"`
	WordsPerMinute float64       `mapstructure:"words_per_minute"`
	CatalogDelay   time.Duration `mapstructure:"catalog_delay"`
	// Player is a command that plays raw PCM from stdin, e.g. ["aplay", "-f", "S16_LE", "-r", "24000"].
	Player []string `mapstructure:"player"`
}

type GoogleConfig struct {
	LanguageCode string `mapstructure:"language_code"`
	DefaultVoice string `mapstructure:"default_voice"`
	SampleRate   int    `mapstructure:"sample_rate"`
}

type CatalogConfig struct {
	PreferredVoice    string        `mapstructure:"preferred_voice"`
	PreferredLanguage string        `mapstructure:"preferred_language"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
}

type PreferencesConfig struct {
	// Store is "memory", "sql" or "redis".
	Store    string `mapstructure:"store"`
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	RedisKey string `mapstructure:"redis_key"`
}

type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Url     string        `mapstructure:"url"`
	TTL     time.Duration `mapstructure:"ttl"`
}
