package vm

import (
	"os"

	"github.com/BurntSushi/toml"
)

// MagicConstant is the default 8-byte header sentinel every executable
// stream starts with.
var MagicConstant = [8]byte{'R', 'A', 'V', 'M', 0, 0, 0, 1}

// RuntimeVersion is the default exact-match version string Load compares
// against. There is no negotiation: a mismatch of any kind fails Load.
const RuntimeVersion = "ravm-1.0"

// Config parameterizes the magic/version pair Save writes and Load checks,
// and whether Save may compress the code section. Magic and version only
// change the header bytes, letting an embedding application pin the exact
// bytes it accepts instead of hardcoding MagicConstant/RuntimeVersion;
// AllowCompression makes Save lz4-compress the code section and set the
// header's flags byte.
type Config struct {
	Magic            [8]byte `toml:"-"`
	MagicString      string  `toml:"magic"`
	RuntimeVersion   string  `toml:"runtime_version"`
	AllowCompression bool    `toml:"allow_compression"`
}

// DefaultConfig returns the config matching MagicConstant/RuntimeVersion.
func DefaultConfig() *Config {
	return &Config{
		Magic:          MagicConstant,
		MagicString:    string(MagicConstant[:]),
		RuntimeVersion: RuntimeVersion,
	}
}

// LoadConfigFile reads a Config from a TOML file at path, falling back to
// DefaultConfig's runtime version and compression setting for any field
// left unset.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfigBytes(data)
}

// LoadConfigBytes parses TOML config data.
func LoadConfigBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}
	if cfg.MagicString != "" {
		copy(cfg.Magic[:], cfg.MagicString)
	}
	if cfg.RuntimeVersion == "" {
		cfg.RuntimeVersion = RuntimeVersion
	}
	return cfg, nil
}
