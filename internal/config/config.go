package config

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/garagekb/garagekb/internal/utils"
)

// DefaultFile is the config file looked up in the working directory when
// --config is not given.
const DefaultFile = "garagekb.yaml"

// Config is the service configuration. There are no package-level globals;
// commands load one of these and pass it down.
type Config struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	Port    int    `mapstructure:"port" yaml:"port"`
	Debug   bool   `mapstructure:"debug" yaml:"debug"`

	// Document extraction
	TitlePattern string `mapstructure:"title_pattern" yaml:"title_pattern"`
	SharePattern string `mapstructure:"share_pattern" yaml:"share_pattern"`
	MaxFileSize  int64  `mapstructure:"max_file_size" yaml:"max_file_size"`

	// Search previews
	PreviewRadius int `mapstructure:"preview_radius" yaml:"preview_radius"`

	// Optional scan cache (off by default: every request rescans)
	CacheEnabled bool `mapstructure:"cache_enabled" yaml:"cache_enabled"`
	CacheWatch   bool `mapstructure:"cache_watch" yaml:"cache_watch"`
}

// Load reads configuration from disk and the environment.
// Precedence: env > config file > defaults; flag overrides are applied by cmd.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GARAGEKB")
	v.AutomaticEnv()
	// PaaS deployments inject a bare PORT
	_ = v.BindEnv("port", "GARAGEKB_PORT", "PORT")

	// Defaults
	v.SetDefault("data_dir", "data")
	v.SetDefault("port", 5000)
	v.SetDefault("debug", false)
	v.SetDefault("title_pattern", `(?m)^#\s+(.+)$`)
	v.SetDefault("share_pattern", `https://buildin\.ai/share/([a-f0-9-]+)`)
	v.SetDefault("max_file_size", 16<<20)
	v.SetDefault("preview_radius", 100)
	v.SetDefault("cache_enabled", false)
	v.SetDefault("cache_watch", true)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("garagekb")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Save writes the given configuration to path (DefaultFile when empty).
func Save(c *Config, path string) error {
	if path == "" {
		path = DefaultFile
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports the first invalid field, if any.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.TitlePattern, validation.Required, validation.By(compilesAsRegexp)),
		validation.Field(&c.SharePattern, validation.Required, validation.By(compilesAsRegexp)),
		validation.Field(&c.MaxFileSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.PreviewRadius, validation.Min(0)),
	)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func compilesAsRegexp(value interface{}) error {
	s, _ := value.(string)
	if _, err := regexp.Compile(s); err != nil {
		return fmt.Errorf("must compile as a regular expression: %v", err)
	}
	return nil
}
