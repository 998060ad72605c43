package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/ghsql/internal/logging"
	"github.com/mesh-intelligence/ghsql/internal/output"
	"github.com/mesh-intelligence/ghsql/internal/paths"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// Settings keys. Each is also read from GHSQL_<KEY>.
const (
	keyEndpoint  = "endpoint"
	keyTransport = "transport"
	keyOutput    = "output"
	keyMaxPages  = "max_pages"
	keyLogLevel  = "log_level"
	keyToken     = "token"
)

const envPrefix = "GHSQL"

// tokenEnv lists the variables a token is read from, first match wins.
var tokenEnv = []string{"GHSQL_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"}

// flagKeys binds settings keys to the flags that override them.
var flagKeys = map[string]string{
	keyEndpoint:  "endpoint",
	keyTransport: "transport",
	keyOutput:    "output",
	keyMaxPages:  "max-pages",
	keyLogLevel:  "log-level",
}

// fileSettings is the structure written to a fresh config.yaml.
type fileSettings struct {
	Transport string `yaml:"transport"`
	Endpoint  string `yaml:"endpoint"`
	Output    string `yaml:"output"`
	MaxPages  int    `yaml:"max_pages"`
	LogLevel  string `yaml:"log_level"`
}

func defaultSettings() fileSettings {
	return fileSettings{
		Transport: types.TransportHTTP,
		Endpoint:  types.DefaultEndpoint,
		Output:    string(output.FormatTable),
		LogLevel:  logging.DefaultLevel,
	}
}

// loadSettings reads config.yaml from configDir, writing a default one first
// if it is missing. Environment variables override the file and changed
// flags override both.
func loadSettings(configDir string, fs *pflag.FlagSet) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(paths.ConfigFile(configDir)); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	v := viper.New()
	d := defaultSettings()
	v.SetDefault(keyTransport, d.Transport)
	v.SetDefault(keyEndpoint, d.Endpoint)
	v.SetDefault(keyOutput, d.Output)
	v.SetDefault(keyMaxPages, d.MaxPages)
	v.SetDefault(keyLogLevel, d.LogLevel)

	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv(append([]string{keyToken}, tokenEnv...)...); err != nil {
		return nil, err
	}

	if fs != nil {
		for key, name := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone.
func writeConfigIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	data, err := yaml.Marshal(defaultSettings())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// projectConfig builds the storage configuration for owner and number.
func projectConfig(v *viper.Viper, owner string, number int) types.Config {
	return types.Config{
		Owner:         owner,
		ProjectNumber: number,
		Transport:     v.GetString(keyTransport),
		Endpoint:      v.GetString(keyEndpoint),
		Token:         v.GetString(keyToken),
		MaxPages:      v.GetInt(keyMaxPages),
	}
}
