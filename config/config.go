// Package config holds the configuration of the songknn command line tool.
// Values come from an optional TOML file and are overridden by flags.
package config

import (
	"fmt"
	"math"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/pflag"
)

const (
	defaultDataFile         = "data.csv"
	defaultDB               = ":memory:"
	defaultMaxEntries       = 5
	defaultOverlapThreshold = 0.2
	defaultLogLevel         = "info"
)

// Config is the songknn configuration.
type Config struct {
	// DataFile is the song dataset in CSV form.
	DataFile string `toml:"data-file" json:"data-file"`
	// DB is the SQLite DSN of the song catalog.
	DB string `toml:"db" json:"db"`

	// MaxEntries is the regular node capacity M.
	MaxEntries int `toml:"max-entries" json:"max-entries"`
	// MinEntries is the minimum node fill m; 0 derives it from MaxEntries.
	MinEntries int `toml:"min-entries" json:"min-entries"`
	// MaxSupernode is the supernode ceiling S; 0 derives it from MaxEntries.
	MaxSupernode int `toml:"max-supernode" json:"max-supernode"`
	// OverlapThreshold is the overlap ratio above which a split is abandoned
	// in favour of a supernode.
	OverlapThreshold float64 `toml:"overlap-threshold" json:"overlap-threshold"`
	// QueryParallelism bounds concurrent batch queries; 0 uses GOMAXPROCS.
	QueryParallelism int `toml:"query-parallelism" json:"query-parallelism"`

	// StatusAddr serves /metrics when set.
	StatusAddr string `toml:"status-addr" json:"status-addr"`
	// Verify cross-checks every answer against the catalog's SQL scan.
	Verify bool `toml:"verify" json:"verify"`

	Log log.Config `toml:"log" json:"log"`

	// WarningMsgs contains the warnings raised while loading the config.
	WarningMsgs []string `toml:"-" json:"-"`
}

// NewConfig creates an empty config.
func NewConfig() *Config {
	return &Config{}
}

// RegisterFlags adds the config flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "config file")
	fs.String("data-file", "", "song dataset (CSV)")
	fs.String("db", "", "SQLite DSN of the song catalog")
	fs.Int("max-entries", 0, "regular node capacity M")
	fs.Int("min-entries", 0, "minimum node fill m (0 derives 2M/5)")
	fs.Int("max-supernode", 0, "supernode ceiling S (0 derives 3M)")
	fs.Float64("overlap-threshold", 0, "overlap ratio that keeps a supernode instead of splitting")
	fs.Int("query-parallelism", 0, "concurrent batch queries (0 uses GOMAXPROCS)")
	fs.String("status-addr", "", "address serving /metrics")
	fs.Bool("verify", false, "cross-check answers against the SQL linear scan")
	fs.StringP("log-level", "L", "", "log level: debug, info, warn, error, fatal")
	fs.String("log-file", "", "log file path")
}

// Parse loads the config file named by the config flag, if any, then
// applies flags and defaults.
func (c *Config) Parse(flagSet *pflag.FlagSet) error {
	var meta *toml.MetaData
	if configFile, _ := flagSet.GetString("config"); configFile != "" {
		md, err := toml.DecodeFile(configFile, c)
		if err != nil {
			return errors.Annotatef(err, "load config %s", configFile)
		}
		meta = &md
		for _, key := range md.Undecoded() {
			c.WarningMsgs = append(c.WarningMsgs, fmt.Sprintf("config %s: unknown key %s", configFile, key.String()))
		}
	}

	adjustCommandlineString(flagSet, &c.DataFile, "data-file")
	adjustCommandlineString(flagSet, &c.DB, "db")
	adjustCommandlineString(flagSet, &c.StatusAddr, "status-addr")
	adjustCommandlineString(flagSet, &c.Log.Level, "log-level")
	adjustCommandlineString(flagSet, &c.Log.File.Filename, "log-file")
	adjustCommandlineInt(flagSet, &c.MaxEntries, "max-entries")
	adjustCommandlineInt(flagSet, &c.MinEntries, "min-entries")
	adjustCommandlineInt(flagSet, &c.MaxSupernode, "max-supernode")
	adjustCommandlineInt(flagSet, &c.QueryParallelism, "query-parallelism")
	adjustCommandlineBool(flagSet, &c.Verify, "verify")

	thresholdSet := meta != nil && meta.IsDefined("overlap-threshold")
	if flagSet.Changed("overlap-threshold") {
		c.OverlapThreshold, _ = flagSet.GetFloat64("overlap-threshold")
		thresholdSet = true
	}
	if !thresholdSet {
		c.OverlapThreshold = defaultOverlapThreshold
	}
	return c.Adjust()
}

// Adjust fills defaults and validates the result.
func (c *Config) Adjust() error {
	adjustString(&c.DataFile, defaultDataFile)
	adjustString(&c.DB, defaultDB)
	adjustString(&c.Log.Level, defaultLogLevel)
	if c.MaxEntries == 0 {
		c.MaxEntries = defaultMaxEntries
	}
	return c.Validate()
}

// Validate checks the index parameters. Relationships between them are
// checked again when the tree is created.
func (c *Config) Validate() error {
	switch {
	case c.MaxEntries < 2:
		return errors.Errorf("max-entries must be at least 2, got %d", c.MaxEntries)
	case c.MinEntries < 0 || (c.MinEntries > 0 && c.MinEntries > c.MaxEntries/2):
		return errors.Errorf("min-entries must be within [1, %d], got %d", c.MaxEntries/2, c.MinEntries)
	case c.MaxSupernode < 0 || (c.MaxSupernode > 0 && c.MaxSupernode < c.MaxEntries):
		return errors.Errorf("max-supernode must be at least max-entries (%d), got %d", c.MaxEntries, c.MaxSupernode)
	case c.OverlapThreshold < 0 || math.IsNaN(c.OverlapThreshold):
		return errors.Errorf("overlap-threshold must be non-negative, got %v", c.OverlapThreshold)
	case c.QueryParallelism < 0:
		return errors.Errorf("query-parallelism must be non-negative, got %d", c.QueryParallelism)
	}
	return nil
}

func adjustCommandlineString(flagSet *pflag.FlagSet, v *string, name string) {
	if value, _ := flagSet.GetString(name); value != "" {
		*v = value
	}
}

func adjustCommandlineInt(flagSet *pflag.FlagSet, v *int, name string) {
	if flagSet.Changed(name) {
		*v, _ = flagSet.GetInt(name)
	}
}

func adjustCommandlineBool(flagSet *pflag.FlagSet, v *bool, name string) {
	if value, _ := flagSet.GetBool(name); value {
		*v = value
	}
}

func adjustString(v *string, defValue string) {
	if len(*v) == 0 {
		*v = defValue
	}
}
