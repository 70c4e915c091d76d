package storecli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL = "http://127.0.0.1:8080"
	defaultBackend    = "sqlite"
	defaultDBFile     = "storesync.db"
)

// Config drives the CLI wiring. Values resolve in three layers: compiled
// defaults, then the YAML config file, then environment variables.
type Config struct {
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`

	// Backend selects the KV substrate: sqlite, postgres, or valkey.
	Backend     string `yaml:"backend" json:"backend"`
	DBPath      string `yaml:"db_path" json:"db_path"`
	DatabaseURL string `yaml:"database_url" json:"database_url"`
	KVAddr      string `yaml:"kv_addr" json:"kv_addr"`
	KVPassword  string `yaml:"kv_password" json:"kv_password"`

	// NATSURL switches the event bus from in-process to NATS when set.
	NATSURL      string `yaml:"nats_url" json:"nats_url"`
	NATSUser     string `yaml:"nats_user" json:"nats_user"`
	NATSPassword string `yaml:"nats_password" json:"nats_password"`

	ChatPollInterval         Duration `yaml:"chat_poll_interval" json:"-"`
	NotificationPollInterval Duration `yaml:"notification_poll_interval" json:"-"`

	Tracing bool `yaml:"tracing" json:"-"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func defaultConfig() Config {
	return Config{
		APIBaseURL: defaultAPIBaseURL,
		Backend:    defaultBackend,
		DBPath:     filepath.Join(configDir(), defaultDBFile),
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storesync"
	}
	return filepath.Join(home, ".storesync")
}

// LoadConfig overlays environment variables onto cfg. Variable names match
// the json tags, case insensitive (API_BASE_URL, BACKEND, KV_ADDR, ...).
func LoadConfig[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config pointer is nil")
	}
	config := map[string]string{}
	for _, kvPair := range os.Environ() {
		ar := strings.SplitN(kvPair, "=", 2)
		if len(ar) < 2 {
			continue
		}
		key := strings.ToLower(ar[0])
		value := ar[1]
		config[key] = value
	}

	b, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal env vars: %w", err)
	}
	err = json.Unmarshal(b, cfg)
	if err != nil {
		return fmt.Errorf("failed to unmarshal into config struct: %w", err)
	}

	return nil
}

// resolveConfig builds the effective configuration: defaults, overridden by
// the YAML file at path (when present), overridden by environment variables.
func resolveConfig(path string) (Config, error) {
	cfg := Config{}

	if path == "" {
		path = filepath.Join(configDir(), "config.yaml")
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file is fine; defaults plus env carry the day.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	defaults := defaultConfig()
	if err := mergo.Merge(&cfg, defaults); err != nil {
		return Config{}, fmt.Errorf("merge config defaults: %w", err)
	}

	if err := LoadConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
