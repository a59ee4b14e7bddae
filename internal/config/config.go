// ABOUTME: Configuration loading for digimuse
// ABOUTME: Reads defaults, an optional YAML file and DIGIMUSE_ environment variables through viper
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// FixedTracks is the only supported track count
const FixedTracks = 8

// ErrInvalid is returned for configuration values out of range
var ErrInvalid = errors.New("invalid configuration")

// Volume holds the master and per-group volumes, 0..127
type Volume struct {
	Master int `mapstructure:"master"`
	Music  int `mapstructure:"music"`
	Voice  int `mapstructure:"voice"`
	Sfx    int `mapstructure:"sfx"`
}

// Control configures the websocket control server
type Control struct {
	Port int    `mapstructure:"port"`
	Name string `mapstructure:"name"`
	MDNS bool   `mapstructure:"mdns"`
}

// Config is the full engine configuration
type Config struct {
	GameDir      string  `mapstructure:"game_dir"`
	ResourceDir  string  `mapstructure:"resource_dir"`
	Title        string  `mapstructure:"title"`
	Demo         bool    `mapstructure:"demo"`
	Disk         int     `mapstructure:"disk"`
	CallbackHz   int     `mapstructure:"callback_hz"`
	SampleRate   int     `mapstructure:"sample_rate"`
	MaxTracks    int     `mapstructure:"max_tracks"`
	RadioChatter bool    `mapstructure:"radio_chatter"`
	Volume       Volume  `mapstructure:"volume"`
	LogLevel     string  `mapstructure:"log_level"`
	LogFormat    string  `mapstructure:"log_format"`
	Control      Control `mapstructure:"control"`
	MusicTables  string  `mapstructure:"music_tables"`
	TitleRules   string  `mapstructure:"title_rules"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game_dir", ".")
	v.SetDefault("resource_dir", "")
	v.SetDefault("title", "cmi")
	v.SetDefault("demo", false)
	v.SetDefault("disk", 1)
	v.SetDefault("callback_hz", 60)
	v.SetDefault("sample_rate", 44100)
	v.SetDefault("max_tracks", FixedTracks)
	v.SetDefault("radio_chatter", false)
	v.SetDefault("volume.master", 127)
	v.SetDefault("volume.music", 127)
	v.SetDefault("volume.voice", 127)
	v.SetDefault("volume.sfx", 127)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("control.port", 8928)
	v.SetDefault("control.name", "digimuse")
	v.SetDefault("control.mdns", true)
	v.SetDefault("music_tables", "")
	v.SetDefault("title_rules", "")
}

// Load reads configuration from cfgFile, or from digimuse.yaml in the home
// or working directory when cfgFile is empty. A missing default file is not
// an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DIGIMUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName("digimuse")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.MaxTracks != FixedTracks {
		return fmt.Errorf("%w: max_tracks must be %d, got %d", ErrInvalid, FixedTracks, c.MaxTracks)
	}
	if c.CallbackHz <= 0 || c.CallbackHz > 1000 {
		return fmt.Errorf("%w: callback_hz %d out of range 1..1000", ErrInvalid, c.CallbackHz)
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("%w: sample_rate %d out of range 8000..192000", ErrInvalid, c.SampleRate)
	}
	if c.Disk < 1 {
		return fmt.Errorf("%w: disk %d must be at least 1", ErrInvalid, c.Disk)
	}
	for name, vol := range map[string]int{
		"master": c.Volume.Master,
		"music":  c.Volume.Music,
		"voice":  c.Volume.Voice,
		"sfx":    c.Volume.Sfx,
	} {
		if vol < 0 || vol > 127 {
			return fmt.Errorf("%w: volume.%s %d out of range 0..127", ErrInvalid, name, vol)
		}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q (expected text or json)", ErrInvalid, c.LogFormat)
	}
	return nil
}
