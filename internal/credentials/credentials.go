// Package credentials loads the OAuth1 secrets used to sign figshare API
// requests. The file is JSON and must look like this:
//
//	{"client_key": "...",
//	 "client_secret": "...",
//	 "token_key": "...",
//	 "token_secret": "..."}
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is the credentials file looked up when none is given.
const DefaultPath = "client_auth_etc.json"

// ErrMissingKey is returned when one of the four secrets is absent or empty.
var ErrMissingKey = errors.New("credentials: missing required key")

// Credentials holds the consumer (client) and resource-owner (token) key
// pairs for one-legged OAuth1.
type Credentials struct {
	ClientKey    string `mapstructure:"client_key"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenKey     string `mapstructure:"token_key"`
	TokenSecret  string `mapstructure:"token_secret"`
}

var requiredKeys = []string{"client_key", "client_secret", "token_key", "token_secret"}

// Load reads credentials from a JSON file at path. Once the file has been
// read, FIGSHARE_CLIENT_KEY, FIGSHARE_CLIENT_SECRET, FIGSHARE_TOKEN_KEY and
// FIGSHARE_TOKEN_SECRET override the corresponding values.
func Load(path string) (*Credentials, error) {
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("credentials: cannot access %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("credentials: error reading %s: %w", path, err)
	}

	v.SetEnvPrefix("FIGSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range requiredKeys {
		// AutomaticEnv only applies to keys viper already knows about, which
		// is every key present in the file. Binding makes env-only keys visible.
		_ = v.BindEnv(key)
	}

	var c Credentials
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("credentials: error decoding %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate reports the first required key that is empty.
func (c *Credentials) Validate() error {
	values := map[string]string{
		"client_key":    c.ClientKey,
		"client_secret": c.ClientSecret,
		"token_key":     c.TokenKey,
		"token_secret":  c.TokenSecret,
	}
	for _, key := range requiredKeys {
		if values[key] == "" {
			return fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
	}
	return nil
}
