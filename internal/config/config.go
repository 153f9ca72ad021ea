// Package config loads and defaults Thaw.toml, the project configuration
// file for the dev-loop core.
//
// release, public-dir, env-dir and build.assets-manganis check viper.IsSet
// before applying a default. The string and port fields of [server] and
// [build] take their default whenever they are empty or zero, including when
// the file sets them to "" or 0 explicitly.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ProxyRule is one user-configured reverse-proxy rule.
type ProxyRule struct {
	Proxy        string `mapstructure:"proxy"`
	Target       string `mapstructure:"target"`
	ChangeOrigin bool   `mapstructure:"change-origin"`
}

// WatchPath is one extra path the file watcher should track.
type WatchPath struct {
	Path string `mapstructure:"path"`
}

// WatchConfig is the `[server.watch]` table of Thaw.toml.
type WatchConfig struct {
	Paths   []WatchPath `mapstructure:"paths"`
	Ignored []string    `mapstructure:"ignored"`
}

// ServerConfig is the `[server]` table of Thaw.toml.
type ServerConfig struct {
	Host            string      `mapstructure:"host"`
	Port            uint32      `mapstructure:"port"`
	Open            bool        `mapstructure:"open"`
	EraseComponents bool        `mapstructure:"erase-components"`
	Proxy           []ProxyRule `mapstructure:"proxy"`
	Watch           WatchConfig `mapstructure:"watch"`
	BackendURL      string      `mapstructure:"backend-url"`
}

// BuildConfig is the `[build]` table of Thaw.toml.
type BuildConfig struct {
	OutDir          string `mapstructure:"out-dir"`
	AssetsDir       string `mapstructure:"assets-dir"`
	AssetsManganis  bool   `mapstructure:"assets-manganis"`
}

// Config is the fully-defaulted contents of Thaw.toml.
type Config struct {
	Release    bool   `mapstructure:"release"`
	PublicDir  string `mapstructure:"public-dir"`
	EnvDir     string `mapstructure:"env-dir"`
	EnvDirOff  bool   `mapstructure:"-"`
	Server     ServerConfig `mapstructure:"server"`
	Build      BuildConfig  `mapstructure:"build"`
}

// Load reads <project>/Thaw.toml (if present) and returns a fully defaulted
// Config. A missing file is not an error: all defaults apply.
func Load(projectDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("Thaw")
	v.SetConfigType("toml")
	v.AddConfigPath(projectDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading Thaw.toml: %w", err)
		}
	}

	cfg := defaultConfig()

	// env-dir can be the boolean `false` in TOML (disables env loading) or a
	// string search root. Viper gives us the raw value so we can tell which.
	if v.IsSet("env-dir") {
		raw := v.Get("env-dir")
		switch val := raw.(type) {
		case bool:
			if !val {
				cfg.EnvDirOff = true
				cfg.EnvDir = ""
			}
		case string:
			cfg.EnvDir = val
		default:
			return nil, fmt.Errorf("env-dir must be a string or false, got %T", raw)
		}
	}

	if v.IsSet("release") {
		cfg.Release = v.GetBool("release")
	}
	if v.IsSet("public-dir") {
		cfg.PublicDir = v.GetString("public-dir")
	}

	if err := v.UnmarshalKey("server", &cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing [server]: %w", err)
	}
	if err := v.UnmarshalKey("build", &cfg.Build); err != nil {
		return nil, fmt.Errorf("parsing [build]: %w", err)
	}

	applyServerDefaults(&cfg.Server, v)
	applyBuildDefaults(&cfg.Build, v)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Release:   false,
		PublicDir: "public",
		EnvDir:    "",
		Server: ServerConfig{
			Host:       "localhost",
			Port:       6321,
			Open:       false,
			BackendURL: "http://127.0.0.1:3000",
		},
		Build: BuildConfig{
			OutDir:         "dist",
			AssetsDir:      "assets",
			AssetsManganis: true,
		},
	}
}

func applyServerDefaults(s *ServerConfig, v *viper.Viper) {
	if s.Host == "" {
		s.Host = "localhost"
	}
	if s.Port == 0 {
		s.Port = 6321
	}
	if s.BackendURL == "" {
		s.BackendURL = "http://127.0.0.1:3000"
	}
}

func applyBuildDefaults(b *BuildConfig, v *viper.Viper) {
	if b.OutDir == "" {
		b.OutDir = "dist"
	}
	if b.AssetsDir == "" {
		b.AssetsDir = "assets"
	}
	if !v.IsSet("build.assets-manganis") {
		b.AssetsManganis = true
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", cfg.Server.Port)
	}
	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, ch := range dangerous {
		if strings.Contains(cfg.Server.Host, ch) {
			return fmt.Errorf("host contains dangerous character: %s", ch)
		}
	}
	for _, rule := range cfg.Server.Proxy {
		if rule.Proxy == "" || rule.Target == "" {
			return fmt.Errorf("proxy rule requires both proxy and target")
		}
	}
	return nil
}

// EnvMode reports the mode string used to select .env.<mode> files:
// "production" for a build-mode invocation, "development" for serve.
func EnvMode(release bool) string {
	if release {
		return "production"
	}
	return "development"
}
