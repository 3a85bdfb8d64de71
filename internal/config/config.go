// Package config loads MuduDB's server configuration from a TOML file,
// matching the configuration surface of the original mudu server
// (mpk_path/data_path/listen_ip/http_listen_port/pg_listen_port/enable_p2/
// enable_async), using github.com/pelletier/go-toml/v2 since the original
// implementation's own config files are TOML (see package.cfg.toml in the
// procedure package format, C12).
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/mududb/mududb/internal/kernel/errs"
)

// Config is the full set of server startup parameters (§6).
type Config struct {
	MpkPath        string `toml:"mpk_path"`
	DataPath       string `toml:"data_path"`
	ListenIP       string `toml:"listen_ip"`
	HTTPListenPort int    `toml:"http_listen_port"`
	PGListenPort   int    `toml:"pg_listen_port"`
	EnableP2       bool   `toml:"enable_p2"`
	EnableAsync    bool   `toml:"enable_async"`

	WALChannels  int `toml:"wal_channels"`
	BufferFrames int `toml:"buffer_frames"`
	PageSize     int `toml:"page_size"`
}

// Default returns the configuration used when no config file is found.
func Default() Config {
	return Config{
		ListenIP:       "127.0.0.1",
		HTTPListenPort: 8080,
		PGListenPort:   5433,
		DataPath:       "./data",
		WALChannels:    4,
		BufferFrames:   256,
		PageSize:       8192,
	}
}

// DefaultPath returns $HOME/.mudu/mududb_cfg.toml, the fallback location
// used when --config is not given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errs.Wrap(errs.IOErr, "resolve home directory", err)
	}
	return filepath.Join(home, ".mudu", "mududb_cfg.toml"), nil
}

// Load reads and parses the TOML config file at path, filling in defaults
// for any field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errs.Wrap(errs.IOErr, "read config file", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errs.Wrap(errs.DecodeErr, "parse config toml", err)
	}
	return cfg, nil
}
