package config

import (
	"maps"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"

	"github.com/dshills/gotodef/internal/config/loader"
	"github.com/dshills/gotodef/internal/event/topic"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "GOTODEF_"

// Config is the full set of gotodef settings.
type Config struct {
	Plugin  PluginConfig            `mapstructure:"plugin"`
	Log     LogConfig               `mapstructure:"log"`
	Servers map[string]ServerConfig `mapstructure:"servers"`
}

// PluginConfig configures the go-to-definition plugin.
type PluginConfig struct {
	// ID is the plugin identity stamped on outbound requests.
	ID string `mapstructure:"id"`

	// LSPID is the identity responses must carry.
	LSPID string `mapstructure:"lsp_id"`

	// Command is the editor command that starts a lookup.
	Command string `mapstructure:"command"`

	RequestTopic  string `mapstructure:"request_topic"`
	ResponseTopic string `mapstructure:"response_topic"`

	// Timeout is how long a request stays pending.
	Timeout time.Duration `mapstructure:"timeout"`

	// TabWidth is the tab stop used for display columns.
	TabWidth int `mapstructure:"tab_width"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig describes how to start a language server for one file type.
type ServerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Plugin: PluginConfig{
			ID:            "lsp_goto_definition",
			LSPID:         "lsp",
			Command:       "lsp-goto-definition",
			RequestTopic:  "lsp-request:textDocument/definition",
			ResponseTopic: "textDocument/definition",
			Timeout:       5 * time.Second,
			TabWidth:      4,
		},
		Log: LogConfig{
			Level: "info",
		},
		Servers: map[string]ServerConfig{},
	}
}

// Clone returns a copy that shares nothing mutable with c.
func (c Config) Clone() Config {
	out := c
	out.Servers = make(map[string]ServerConfig, len(c.Servers))
	for ft, s := range c.Servers {
		s.Args = append([]string(nil), s.Args...)
		out.Servers[ft] = s
	}
	return out
}

// Server returns the server for a file type.
func (c Config) Server(fileType string) (ServerConfig, bool) {
	s, ok := c.Servers[fileType]
	if !ok || s.Command == "" {
		return ServerConfig{}, false
	}
	return s, true
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	p := c.Plugin
	switch {
	case p.ID == "":
		return errors.Wrap(ErrValidationFailed, "plugin.id is empty")
	case p.LSPID == "":
		return errors.Wrap(ErrValidationFailed, "plugin.lsp_id is empty")
	case p.Command == "":
		return errors.Wrap(ErrValidationFailed, "plugin.command is empty")
	case p.RequestTopic == "":
		return errors.Wrap(ErrValidationFailed, "plugin.request_topic is empty")
	case p.ResponseTopic == "":
		return errors.Wrap(ErrValidationFailed, "plugin.response_topic is empty")
	case !topic.Topic(p.RequestTopic).IsValid():
		return invalidTopic("plugin.request_topic", p.RequestTopic)
	case !topic.Topic(p.ResponseTopic).IsValid():
		return invalidTopic("plugin.response_topic", p.ResponseTopic)
	case p.Timeout <= 0:
		return errors.WithHint(
			errors.Wrapf(ErrValidationFailed, "plugin.timeout %s is not positive", p.Timeout),
			"use a duration such as \"5s\"")
	case p.TabWidth < 1:
		return errors.Wrapf(ErrValidationFailed, "plugin.tab_width %d is less than 1", p.TabWidth)
	}

	for ft, s := range c.Servers {
		if s.Command == "" {
			return errors.Wrapf(ErrValidationFailed, "servers.%s.command is empty", ft)
		}
	}
	return nil
}

func invalidTopic(key, value string) error {
	return errors.WithHint(
		errors.Wrapf(ErrValidationFailed, "%s %q is not a valid topic", key, value),
		"topics contain no whitespace and no empty segments")
}

// Load reads the file at path (missing files are skipped), applies
// environment overrides and validates the result. An empty path skips the
// file layer.
func Load(path string) (Config, error) {
	var file map[string]any
	if path != "" {
		var err error
		file, err = loader.NewTOMLLoader(path).Load()
		if err != nil {
			return Config{}, err
		}
	}

	env, err := loader.NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		return Config{}, err
	}

	return FromMap(loader.DeepMerge(file, env))
}

// FromMap decodes raw settings over the defaults and validates them.
func FromMap(raw map[string]any) (Config, error) {
	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return errors.Wrap(err, "build decoder")
	}

	// Decoding into a non-nil map merges, so defaults for other file types survive.
	if cfg.Servers == nil {
		cfg.Servers = map[string]ServerConfig{}
	} else {
		cfg.Servers = maps.Clone(cfg.Servers)
	}

	if err := dec.Decode(raw); err != nil {
		return errors.Mark(errors.Wrap(err, "decode config"), ErrDecodeFailed)
	}
	return nil
}
