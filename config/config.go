// Package config loads the mbimctl command's YAML configuration using
// koanf, layering a file on top of built-in defaults the way
// cmd/andorhttp2 and envsrv do for their own device-server configs.
package config

import (
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
)

// USB identifies the MBIM function to open by USB vendor/product id.
type USB struct {
	VID uint16 `yaml:"vid"`
	PID uint16 `yaml:"pid"`
}

// Config is mbimctl's full configuration.
type Config struct {
	// Addr is the listen address for the debug introspection server.
	Addr string `yaml:"addr"`

	// USB selects the MBIM function to open.
	USB USB `yaml:"usb"`

	// MaxControlTransfer is the value for an OPEN message's
	// max_control_transfer field. mbimctl sends no OPEN message itself;
	// it only loads this setting and prints it with conf.
	MaxControlTransfer uint32 `yaml:"max_control_transfer"`

	// MaxFragmentSize is the largest outbound fragment size, in bytes.
	// mbimctl sends no messages itself; it only loads this setting and
	// prints it with conf.
	MaxFragmentSize uint32 `yaml:"max_fragment_size"`
}

// defaults returns the built-in configuration used before any file is
// loaded on top of it.
func defaults() Config {
	return Config{
		Addr:               ":8181",
		USB:                USB{VID: 0x0000, PID: 0x0000},
		MaxControlTransfer: 4096,
		MaxFragmentSize:    2048,
	}
}

// Load reads path as YAML into a Config, starting from defaults() and
// overriding whichever fields the file sets. A missing file is not an
// error -- the defaults are returned as-is, matching
// cmd/andorhttp2.setupconfig's tolerance for a missing config on first
// run.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "yaml"), nil); err != nil {
		return Config{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such file") {
			return Config{}, err
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
