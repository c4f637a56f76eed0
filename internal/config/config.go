package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/tomasbasham/figshare/internal/credentials"
	"github.com/tomasbasham/figshare/internal/figshare"
)

type Config struct {
	BaseURL     string           `mapstructure:"base_url" yaml:"base_url"`
	Credentials string           `mapstructure:"credentials" yaml:"credentials"`
	Quiet       bool             `mapstructure:"quiet" yaml:"quiet"`
	Log         LogConfig        `mapstructure:"log" yaml:"log"`
	Article     figshare.Article `mapstructure:"article" yaml:"article"`
	Archive     ArchiveConfig    `mapstructure:"archive" yaml:"archive"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ArchiveConfig selects where run artefacts go. Bucket wins over Dir; both
// empty disables archiving.
type ArchiveConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// Load builds a Config from defaults, the optional file at path (YAML or
// JSON, chosen by extension) and FIGSHARE_ environment variables, e.g.
// FIGSHARE_ARTICLE_TITLE or FIGSHARE_BASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set Defaults
	v.SetDefault("base_url", figshare.DefaultBaseURL)
	v.SetDefault("credentials", credentials.DefaultPath)
	v.SetDefault("quiet", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("article.title", "")
	v.SetDefault("article.description", "")
	v.SetDefault("article.defined_type", figshare.DefaultDefinedType)
	v.SetDefault("article.links", []string{})
	v.SetDefault("article.tags", []string{})
	v.SetDefault("archive.dir", "")
	v.SetDefault("archive.bucket", "")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("FIGSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that do not depend on the command being run.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}

	return nil
}
