// Package config provides the axolotld configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultAddress          = "127.0.0.1:8080"
	defaultLogLevel         = "NOTICE"
	defaultMaxSkip          = 1000
	defaultSkippedKeyMaxAge = "168h"

	// BackendMemory keeps sessions in memory only.
	BackendMemory = "memory"
	// BackendFile keeps one JSON file per session.
	BackendFile = "file"
	// BackendBolt keeps sessions in a bbolt database.
	BackendBolt = "bolt"
)

// Server is the listener and data directory configuration.
type Server struct {
	// Address is the host:port the HTTP transport binds to.
	Address string

	// DataDir is the absolute path to the identity and state directory.
	DataDir string
}

func (sCfg *Server) applyDefaults() {
	if sCfg.Address == "" {
		sCfg.Address = defaultAddress
	}
}

func (sCfg *Server) validate() error {
	if _, _, err := net.SplitHostPort(sCfg.Address); err != nil {
		return fmt.Errorf("config: Server: Address '%v' is invalid: %v", sCfg.Address, err)
	}
	if sCfg.DataDir == "" {
		return errors.New("config: Server: DataDir is not set")
	}
	if !filepath.IsAbs(sCfg.DataDir) {
		return fmt.Errorf("config: Server: DataDir '%v' is not an absolute path", sCfg.DataDir)
	}
	return nil
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	case "":
		lvl = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl // Force uppercase.
	return nil
}

// Storage selects the ratchet state backend.
type Storage struct {
	// Backend is one of "memory", "file" or "bolt".
	Backend string

	// Path is the bolt database file, relative to DataDir unless absolute.
	Path string
}

func (stCfg *Storage) applyDefaults() {
	if stCfg.Backend == "" {
		stCfg.Backend = BackendBolt
	}
	if stCfg.Path == "" {
		stCfg.Path = "states.db"
	}
}

func (stCfg *Storage) validate() error {
	switch stCfg.Backend {
	case BackendMemory, BackendFile, BackendBolt:
		return nil
	default:
		return fmt.Errorf("config: Storage: Backend '%v' is invalid", stCfg.Backend)
	}
}

// Ratchet tunes the message ratchet.
type Ratchet struct {
	// MaxSkip bounds the message keys a single receive may derive ahead.
	MaxSkip int

	// SkippedKeyMaxAge is how long an unused skipped key is kept, as a Go
	// duration string. "0" keeps them forever.
	SkippedKeyMaxAge string

	maxAge time.Duration
}

func (rCfg *Ratchet) applyDefaults() {
	if rCfg.MaxSkip == 0 {
		rCfg.MaxSkip = defaultMaxSkip
	}
	if rCfg.SkippedKeyMaxAge == "" {
		rCfg.SkippedKeyMaxAge = defaultSkippedKeyMaxAge
	}
}

func (rCfg *Ratchet) validate() error {
	if rCfg.MaxSkip < 0 {
		return fmt.Errorf("config: Ratchet: MaxSkip %d is negative", rCfg.MaxSkip)
	}
	d, err := time.ParseDuration(rCfg.SkippedKeyMaxAge)
	if err != nil {
		return fmt.Errorf("config: Ratchet: SkippedKeyMaxAge: %v", err)
	}
	if d < 0 {
		return fmt.Errorf("config: Ratchet: SkippedKeyMaxAge %v is negative", d)
	}
	rCfg.maxAge = d
	return nil
}

// MaxAge returns the parsed SkippedKeyMaxAge. Valid after validation.
func (rCfg *Ratchet) MaxAge() time.Duration { return rCfg.maxAge }

// Metrics toggles the /metrics endpoint.
type Metrics struct {
	Enable bool
}

// Config is the top level axolotld configuration.
type Config struct {
	Server  *Server
	Logging *Logging
	Storage *Storage
	Ratchet *Ratchet
	Metrics *Metrics
}

// FixupAndValidate applies defaults to config entries and validates the
// supplied configuration. Most callers want one of the Load variants.
func (cfg *Config) FixupAndValidate() error {
	// The Server section is mandatory, everything else is optional.
	if cfg.Server == nil {
		return errors.New("config: No Server block was present")
	}
	if cfg.Logging == nil {
		cfg.Logging = &Logging{}
	}
	if cfg.Storage == nil {
		cfg.Storage = &Storage{}
	}
	if cfg.Ratchet == nil {
		cfg.Ratchet = &Ratchet{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &Metrics{}
	}

	cfg.Server.applyDefaults()
	cfg.Storage.applyDefaults()
	cfg.Ratchet.applyDefaults()

	if err := cfg.Server.validate(); err != nil {
		return err
	}
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	if err := cfg.Storage.validate(); err != nil {
		return err
	}
	return cfg.Ratchet.validate()
}

// StatePath returns the bolt database path, resolved against DataDir.
func (cfg *Config) StatePath() string {
	if filepath.IsAbs(cfg.Storage.Path) {
		return cfg.Storage.Path
	}
	return filepath.Join(cfg.Server.DataDir, cfg.Storage.Path)
}

// Default returns a validated configuration rooted at dataDir.
func Default(dataDir string) (*Config, error) {
	cfg := &Config{Server: &Server{DataDir: dataDir}}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	if b == nil {
		return nil, errors.New("config: no nil buffer as config file")
	}

	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

// Store writes cfg to fileName as TOML, refusing to overwrite.
func Store(cfg *Config, fileName string) error {
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
