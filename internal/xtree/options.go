package xtree

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	// DefaultMaxEntries matches the fanout the song index has always used.
	DefaultMaxEntries = 5
	// DefaultOverlapThreshold is the overlap ratio above which a split is
	// abandoned in favour of a supernode.
	DefaultOverlapThreshold = 0.2
	// supernodeFactor derives the supernode ceiling from M when unset.
	supernodeFactor = 3
)

// Config holds the fanout bounds and split parameters of a Tree. It is fixed
// at construction.
type Config struct {
	// MaxEntries is M, the regular node capacity.
	MaxEntries int
	// MinEntries is m, the minimum fill of a non-root node. Zero derives 40% of M.
	MinEntries int
	// MaxSupernode is S, the hard ceiling for supernodes. Zero derives 3*M.
	MaxSupernode int
	// OverlapThreshold is compared against overlap(left, right) / area(node).
	OverlapThreshold float64
	// Logger receives debug events about splits and supernodes.
	Logger *zap.Logger
}

// Option mutates a Config before the tree is created.
type Option func(*Config)

// WithMaxEntries sets M.
func WithMaxEntries(m int) Option {
	return func(c *Config) { c.MaxEntries = m }
}

// WithMinEntries sets m.
func WithMinEntries(m int) Option {
	return func(c *Config) { c.MinEntries = m }
}

// WithMaxSupernode sets S.
func WithMaxSupernode(s int) Option {
	return func(c *Config) { c.MaxSupernode = s }
}

// WithOverlapThreshold sets the supernode trigger.
func WithOverlapThreshold(ratio float64) Option {
	return func(c *Config) { c.OverlapThreshold = ratio }
}

// WithLogger sets the logger; nil disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

func newConfig(opts ...Option) (Config, error) {
	cfg := Config{
		MaxEntries:       DefaultMaxEntries,
		OverlapThreshold: DefaultOverlapThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MinEntries == 0 {
		cfg.MinEntries = max(1, cfg.MaxEntries*2/5)
	}
	if cfg.MaxSupernode == 0 {
		cfg.MaxSupernode = supernodeFactor * cfg.MaxEntries
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.MaxEntries < 2:
		return fmt.Errorf("%w: max entries %d < 2", ErrInvalidConfig, c.MaxEntries)
	case c.MinEntries < 1 || c.MinEntries > c.MaxEntries/2:
		return fmt.Errorf("%w: min entries %d outside [1, %d]", ErrInvalidConfig, c.MinEntries, c.MaxEntries/2)
	case c.MaxSupernode < c.MaxEntries:
		return fmt.Errorf("%w: max supernode %d < max entries %d", ErrInvalidConfig, c.MaxSupernode, c.MaxEntries)
	case c.OverlapThreshold < 0 || c.OverlapThreshold != c.OverlapThreshold:
		return fmt.Errorf("%w: overlap threshold %v", ErrInvalidConfig, c.OverlapThreshold)
	}
	return nil
}
