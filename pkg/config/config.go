// Package config loads riglink.toml.
//
// A config file is optional. Lookup order:
//
//  1. the path passed to [Load] (the --config flag)
//  2. $XDG_CONFIG_HOME/riglink/riglink.toml, or ~/.config/riglink/riglink.toml
//  3. built-in defaults
//
// An explicit path that does not exist is an error. A missing file in the
// default location is not.
//
// # Example
//
//	[store]
//	backend = "sqlite"
//	sqlite  = "/var/lib/riglink/scenes.db"
//
//	[controllers]
//	prefix = "Controller"
//
//	[kinds.circular]
//	policy = "overwrite"
//	guard  = true
//
//	[server]
//	addr = ":8427"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/errors"
	"github.com/matzehuels/riglink/pkg/params"
	"github.com/matzehuels/riglink/pkg/rig"
	"github.com/matzehuels/riglink/pkg/store"
)

const (
	appName  = "riglink"
	fileName = "riglink.toml"

	// DefaultAddr is the listen address of `riglink serve`.
	DefaultAddr = "127.0.0.1:8427"
)

// Config is the decoded riglink.toml.
type Config struct {
	Store       store.Config    `toml:"store"`
	Controllers Controllers     `toml:"controllers"`
	Kinds       map[string]Kind `toml:"kinds"`
	Server      Server          `toml:"server"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// Controllers configures controller naming.
type Controllers struct {
	Prefix string `toml:"prefix"`
}

// Kind overrides the settings of one controller kind. Unset fields keep
// the kind's built-in default.
type Kind struct {
	Policy string `toml:"policy"`
	Guard  *bool  `toml:"guard"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:       store.Config{Backend: store.BackendFile},
		Controllers: Controllers{Prefix: controller.DefaultPrefix},
		Server:      Server{Addr: DefaultAddr},
	}
}

// Load reads the config at path, or the default location when path is
// empty, and validates it.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML text on top of the defaults. Unknown keys are
// rejected so a typo does not silently fall back to a default.
func Parse(text string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend, prefix and kind settings.
func (c *Config) Validate() error {
	if c.Store.Backend == "" {
		c.Store.Backend = store.BackendFile
	}
	if !store.ValidBackends[c.Store.Backend] {
		valid := make([]string, 0, len(store.ValidBackends))
		for b := range store.ValidBackends {
			valid = append(valid, b)
		}
		slices.Sort(valid)
		return errors.New(errors.ErrCodeInvalidInput, "store.backend %q is not one of %s", c.Store.Backend, strings.Join(valid, ", "))
	}
	if c.Controllers.Prefix == "" {
		c.Controllers.Prefix = controller.DefaultPrefix
	}
	if err := errors.ValidateLayerName(c.Controllers.Prefix); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "controllers.prefix")
	}
	for name, k := range c.Kinds {
		if _, err := controller.LookupKind(name); err != nil {
			return err
		}
		if _, err := params.ParsePolicy(k.Policy); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "kinds.%s.policy", name)
		}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	return nil
}

// KindOptions merges the [kinds] overrides onto the built-in defaults.
func (c *Config) KindOptions() map[string]rig.KindOptions {
	out := rig.DefaultKindOptions()
	for name, k := range c.Kinds {
		o := out[name]
		if k.Policy != "" {
			o.Policy = params.Policy(k.Policy)
		}
		if k.Guard != nil {
			o.Guard = *k.Guard
		}
		out[name] = o
	}
	return out
}

// RunnerOptions returns the rig options the config implies.
func (c *Config) RunnerOptions() []rig.Option {
	var opts []rig.Option
	for name, o := range c.KindOptions() {
		opts = append(opts, rig.WithKindOptions(name, o))
	}
	return opts
}

// DefaultPath returns the config location using the XDG standard
// (~/.config/riglink/riglink.toml).
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Dir returns the riglink config directory.
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
