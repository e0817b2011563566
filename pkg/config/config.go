package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configDir  string = "regtool"
	configFile string = "config.yml"
)

// DefaultLanguages are the languages generated when neither the command
// line nor the config file name any.
var DefaultLanguages = []string{"c"}

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Languages generated by "regtool gen" when --lang is not given.
	Languages []string `yaml:"languages,omitempty"`
	// OutDir is the directory generated files are written to, the current
	// directory when empty.
	OutDir string `yaml:"out-dir,omitempty"`
	// GoPackage overrides the package clause of generated Go code.
	GoPackage string `yaml:"go-package,omitempty"`

	// Params are passed to Starlark descriptions, values given with
	// --param take precedence.
	Params map[string]string `yaml:"params,omitempty"`

	// StarlarkMaxSteps bounds the execution of Starlark descriptions.
	StarlarkMaxSteps *uint64 `yaml:"starlark-max-steps,omitempty"`
}

// GetLanguages returns the configured languages or DefaultLanguages.
func (c *Config) GetLanguages() []string {
	if len(c.Languages) == 0 {
		return DefaultLanguages
	}
	return c.Languages
}

// MergeParams returns the configured params overridden by override.
func (c *Config) MergeParams(override map[string]string) map[string]string {
	r := make(map[string]string, len(c.Params)+len(override))
	for k, v := range c.Params {
		r[k] = v
	}
	for k, v := range override {
		r[k] = v
	}
	return r
}

// LoadConfig populates a Config from the file at path, or from the
// default location if path is empty. A missing default file is created
// with every option commented out.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		if err := createConfigPath(); err != nil {
			return &Config{}, errors.Wrap(err, "could not create config directory")
		}
		var err error
		path, err = GetConfigFilePath(configFile)
		if err != nil {
			return &Config{}, errors.Wrap(err, "unable to get config file path")
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := writeDefaultConfig(path); err != nil {
				return &Config{}, errors.Wrap(err, "error creating default config file")
			}
		}
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return &Config{}, errors.Wrap(err, "unable to read config data")
	}

	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return &Config{}, errors.Wrapf(err, "unable to decode config file %s", path)
	}
	return &c, nil
}

// SaveConfig will marshal and save the config struct to path, or to the
// default location if path is empty.
func SaveConfig(path string, conf *Config) error {
	if path == "" {
		if err := createConfigPath(); err != nil {
			return err
		}
		var err error
		if path, err = GetConfigFilePath(configFile); err != nil {
			return err
		}
	}
	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, out, 0600)
}

// String renders the configuration the way "regtool config" shows it.
func (c *Config) String() string {
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := fmt.Sprintf("languages: %v\nout-dir: %q\ngo-package: %q\n", c.GetLanguages(), c.OutDir, c.GoPackage)
	for _, k := range keys {
		s += fmt.Sprintf("param %s=%s\n", k, c.Params[k])
	}
	if c.StarlarkMaxSteps != nil {
		s += fmt.Sprintf("starlark-max-steps: %d\n", *c.StarlarkMaxSteps)
	}
	return s
}

func writeDefaultConfig(path string) error {
	return renameio.WriteFile(path, []byte(`# Configuration file for regtool.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Languages generated by "regtool gen" when --lang is not passed (c, go, yaml).
# languages: [c]

# Directory generated files are written to.
# out-dir: .

# Package clause of generated Go code, derived from the block name if unset.
# go-package: taggerreg

# Parameters of Starlark descriptions, overridden by --param.
params:
  # MaxPartition: 8

# Maximum number of execution steps of a Starlark description.
# starlark-max-steps: 1048576
`), 0600)
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
// Files live in $XDG_CONFIG_HOME/regtool, or ~/.config/regtool.
func GetConfigFilePath(file string) (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, configDir, file), nil
	}
	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return filepath.Join(userHomeDir, ".config", configDir, file), nil
}
