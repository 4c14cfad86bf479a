package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "TRENDBUILD_CONFIG"

// EnvPrefix prefixes every structured environment override.
// A double underscore separates sections: TRENDBUILD_STORAGE__BACKEND.
const EnvPrefix = "TRENDBUILD_"

// DefaultPaths are searched in order when no path is given.
var DefaultPaths = []string{
	"trendbuild.yaml",
	"trendbuild.yml",
}

// legacyEnv maps the environment names used by the scraper deployment onto
// config paths. Earlier names in each list win.
var legacyEnv = []struct {
	path  string
	names []string
}{
	{"feed.token", []string{"APIFY_TOKEN"}},
	{"feed.us_task_id", []string{"US_VIDEO_TASK_ID", "APIFY_US_TASK_ID", "US_TASK_ID"}},
	{"feed.uk_task_id", []string{"UK_VIDEO_TASK_ID", "APIFY_UK_TASK_ID", "UK_TASK_ID"}},
	{"notify.discord.webhook_url", []string{"DISCORD_WEBHOOK", "DISCORD_WEBHOOK_URL"}},
	{"notify.nats.url", []string{"NATS_URL"}},
	{"storage.data_dir", []string{"CACHE_DIR"}},
	{"storage.postgres_dsn", []string{"DATABASE_URL"}},
	{"storage.clickhouse_dsn", []string{"CLICKHOUSE_DSN"}},
	{"output.dir", []string{"OUTPUT_DIR"}},
	{"log.level", []string{"LOG_LEVEL"}},
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"accounts.own",
	"accounts.competitors",
}

// Load builds the configuration in layers: struct defaults, the YAML file,
// legacy environment names, then TRENDBUILD_ overrides. A .env file in the
// working directory is read first and never overrides the real environment.
// An empty path searches PathEnvVar and DefaultPaths.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	for _, l := range legacyEnv {
		if v, ok := firstEnv(l.names...); ok {
			if err := k.Set(l.path, v); err != nil {
				return nil, fmt.Errorf("set %s: %w", l.path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envTransform maps TRENDBUILD_FEED__US_TASK_ID to feed.us_task_id.
func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func firstEnv(names ...string) (string, bool) {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v, true
		}
	}
	return "", false
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		if err := k.Set(path, list); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
