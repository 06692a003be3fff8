package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
)

var (
	ErrInvalidConfig = errors.New("invalid parser configuration")
	ErrFrozen        = errors.New("configuration already in use")
)

// Config holds the size ceilings every parse runs against.
// A Config is a plain value: pass it by value and never mutate it while
// parses that received it may still be running.
type Config struct {
	// MaxMethodSize bounds the request method token
	MaxMethodSize int `json:"max_method_size"`

	// MaxVersionSize bounds the protocol version token
	MaxVersionSize int `json:"max_version_size"`

	// MaxPathSize bounds the scan offset reached while reading the path
	MaxPathSize int `json:"max_path_size"`

	// MaxHeadersSize bounds the header block, excluding the first line
	MaxHeadersSize int `json:"max_headers_size"`

	// MaxBodySize is advisory only. The parser never enforces it; the
	// connection layer may.
	MaxBodySize *int64 `json:"max_body_size,omitempty"`
}

// Provider supplies a ceilings snapshot.
type Provider interface {
	Ceilings() Config
}

// Default returns the ceilings used when nothing else is configured.
func Default() Config {
	return Config{
		MaxMethodSize:  10,
		MaxVersionSize: 20,
		MaxPathSize:    3 * 1024,
		MaxHeadersSize: 10 * 1024,
	}
}

// Ceilings makes a Config its own Provider.
func (c Config) Ceilings() Config {
	return c
}

// Validate reports whether every ceiling is usable.
func (c Config) Validate() error {
	switch {
	case c.MaxMethodSize <= 0:
		return fmt.Errorf("%w: max_method_size must be positive, got %d", ErrInvalidConfig, c.MaxMethodSize)
	case c.MaxVersionSize <= 0:
		return fmt.Errorf("%w: max_version_size must be positive, got %d", ErrInvalidConfig, c.MaxVersionSize)
	case c.MaxPathSize <= 0:
		return fmt.Errorf("%w: max_path_size must be positive, got %d", ErrInvalidConfig, c.MaxPathSize)
	case c.MaxHeadersSize <= 0:
		return fmt.Errorf("%w: max_headers_size must be positive, got %d", ErrInvalidConfig, c.MaxHeadersSize)
	case c.MaxBodySize != nil && *c.MaxBodySize < 0:
		return fmt.Errorf("%w: max_body_size must not be negative, got %d", ErrInvalidConfig, *c.MaxBodySize)
	}
	return nil
}

// Load reads ceilings from a JSON file. Keys missing from the file keep
// their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(data)
}

// Decode parses JSON-encoded ceilings on top of Default.
func Decode(data []byte) (Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Store is the setup-time holder for process-wide ceilings.
// Set may only be called before the first read; once any caller has
// taken a snapshot the store is frozen and Set fails with ErrFrozen.
type Store struct {
	mu     sync.Mutex
	cfg    Config
	set    bool
	frozen atomic.Bool
}

// NewStore returns a store seeded with cfg.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg, set: true}
}

// Set replaces the stored ceilings.
func (s *Store) Set(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen.Load() {
		return ErrFrozen
	}
	s.cfg = cfg
	s.set = true
	return nil
}

// Ceilings returns the stored snapshot and freezes the store.
func (s *Store) Ceilings() Config {
	if s.frozen.Load() {
		return s.cfg
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		s.cfg = Default()
		s.set = true
	}
	s.frozen.Store(true)
	return s.cfg
}
