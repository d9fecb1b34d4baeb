// Package config loads the project configuration (Doxidize.toml), the menu
// document (docs/Menu.toml) and derives every project path from the
// location of the crate manifest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/foundation/normalization"
)

// Analysis backends.
const (
	BackendTreeSitter = "treesitter"
	BackendDump       = "dump"
	BackendNone       = "none"
)

var backends = normalization.NewNormalizer(map[string]string{
	BackendTreeSitter: BackendTreeSitter,
	"source":          BackendTreeSitter,
	BackendDump:       BackendDump,
	"rustdoc":         BackendDump,
	BackendNone:       BackendNone,
	"off":             BackendNone,
}, BackendTreeSitter)

type DocsConfig struct {
	BaseURL string `mapstructure:"base-url"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

type AnalysisConfig struct {
	Backend string   `mapstructure:"backend"`
	Dump    string   `mapstructure:"dump"`
	Command []string `mapstructure:"command"`
}

type ServeConfig struct {
	Addr     string        `mapstructure:"addr"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type NotifyConfig struct {
	NATSURL string `mapstructure:"nats-url"`
	Subject string `mapstructure:"subject"`
}

type PublishConfig struct {
	Branch string `mapstructure:"branch"`
	Remote string `mapstructure:"remote"`
}

// Config is the decoded Doxidize.toml.
type Config struct {
	Docs      DocsConfig      `mapstructure:"docs"`
	Output    OutputConfig    `mapstructure:"output"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Serve     ServeConfig     `mapstructure:"serve"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Publish   PublishConfig   `mapstructure:"publish"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("docs.base-url", "")
	v.SetDefault("output.dir", filepath.Join("target", "docs"))
	v.SetDefault("templates.dir", "")
	v.SetDefault("analysis.backend", BackendTreeSitter)
	v.SetDefault("analysis.dump", "")
	v.SetDefault("analysis.command", []string{})
	v.SetDefault("serve.addr", "127.0.0.1:7878")
	v.SetDefault("serve.debounce", "300ms")
	v.SetDefault("notify.nats-url", "")
	v.SetDefault("notify.subject", "doxidize.builds")
	v.SetDefault("publish.branch", "gh-pages")
	v.SetDefault("publish.remote", "origin")
}

// Load reads the config file at path. A missing file yields the defaults.
// Values can be overridden with DOXIDIZE_<SECTION>_<KEY> environment
// variables, and a .env file next to the config file is loaded first.
func Load(path string) (*Config, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load .env").
			WithContext("file", envFile).
			Build()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix("DOXIDIZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
				WithContext("file", path).
				Build()
		}
	}

	var cfg Config
	if err := decode(v.AllSettings(), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration").
			WithContext("file", path).
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToCommandHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// stringToCommandHookFunc accepts a whitespace separated string for
// analysis.command so it can be set from the environment.
func stringToCommandHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf([]string{}) {
			return data, nil
		}
		return strings.Fields(data.(string)), nil
	}
}

// Validate checks the decoded values.
func (c *Config) Validate() error {
	backend, err := backends.Lookup(c.Analysis.Backend)
	if err != nil {
		return ferrors.ConfigError(fmt.Sprintf("unknown analysis backend %q", c.Analysis.Backend)).
			WithContext("backend", c.Analysis.Backend).
			WithContext("valid", backends.Keys()).
			Build()
	}
	c.Analysis.Backend = backend

	switch c.Analysis.Backend {
	case BackendTreeSitter, BackendNone:
	case BackendDump:
		if c.Analysis.Dump == "" && len(c.Analysis.Command) == 0 {
			return ferrors.ConfigError("analysis backend \"dump\" needs analysis.dump or analysis.command").Build()
		}
	default:
		return ferrors.ConfigError(fmt.Sprintf("unknown analysis backend %q", c.Analysis.Backend)).
			WithContext("backend", c.Analysis.Backend).
			Build()
	}
	if c.Serve.Debounce < 0 {
		return ferrors.ConfigError("serve.debounce must not be negative").Build()
	}
	return nil
}

// BasePath returns the configured base URL sub-path without surrounding slashes.
func (c *Config) BasePath() string {
	return strings.Trim(c.Docs.BaseURL, "/")
}

const defaultConfigTemplate = `# doxidize configuration

[docs]
# Sub-path the site is published under, e.g. "my-crate" for project pages.
# base-url = ""

# [analysis]
# backend = "treesitter"   # treesitter, dump or none
`

// WriteDefault creates a commented Doxidize.toml at path. An existing file is
// left untouched.
func WriteDefault(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create config file").
			WithContext("file", path).
			Build()
	}
	defer f.Close()
	if _, err := f.WriteString(defaultConfigTemplate); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("file", path).
			Build()
	}
	return nil
}
