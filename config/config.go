// Package config describes branch predictors in JSON and builds them.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-multierror/multierror"
	"github.com/pkg/errors"

	"github.com/sarchlab/bpsim/predictor"
)

// Kind names a predictor variant.
type Kind string

// Supported predictor kinds.
const (
	KindBimodal    Kind = "bimodal"
	KindGlobal     Kind = "global"
	KindTournament Kind = "tournament"
	KindTAGE       Kind = "tage"
)

// BimodalConfig is the JSON form of predictor.BimodalConfig.
type BimodalConfig struct {
	IndexBits    uint `json:"index_bits"`
	CounterWidth uint `json:"counter_width,omitempty"`
}

// GlobalConfig is the JSON form of predictor.GlobalHistoryConfig.
type GlobalConfig struct {
	HistoryWidth uint   `json:"history_width"`
	IndexBits    uint   `json:"index_bits"`
	TagBits      uint   `json:"tag_bits"`
	CounterWidth uint   `json:"counter_width,omitempty"`
	IndexHash    string `json:"index_hash,omitempty"`
	TagHash      string `json:"tag_hash,omitempty"`
}

// TournamentConfig holds the two sub-predictors and the selector width.
type TournamentConfig struct {
	First         *Config `json:"first"`
	Second        *Config `json:"second"`
	SelectorWidth uint    `json:"selector_width,omitempty"`
}

// TAGEConfig is the JSON form of predictor.TAGEConfig.
type TAGEConfig struct {
	NumTables        uint    `json:"num_tables"`
	BaseIndexBits    uint    `json:"base_index_bits"`
	BaseCounterWidth uint    `json:"base_counter_width,omitempty"`
	HistoryLength    uint    `json:"history_length"`
	Alpha            float64 `json:"alpha"`
	IndexBits        uint    `json:"index_bits"`
	TagBits          uint    `json:"tag_bits"`
	CounterWidth     uint    `json:"counter_width,omitempty"`
	ResetPeriod      uint64  `json:"reset_period,omitempty"`
	IndexHash        string  `json:"index_hash,omitempty"`
	TagHash          string  `json:"tag_hash,omitempty"`
}

// Config describes one predictor. Exactly the block matching Kind is used.
type Config struct {
	// Name labels the predictor in reports. Defaults to Kind.
	Name string `json:"name,omitempty"`
	Kind Kind   `json:"kind"`

	Bimodal    *BimodalConfig    `json:"bimodal,omitempty"`
	Global     *GlobalConfig     `json:"global,omitempty"`
	Tournament *TournamentConfig `json:"tournament,omitempty"`
	TAGE       *TAGEConfig       `json:"tage,omitempty"`
}

// DefaultConfig returns the default TAGE predictor: seven tables with
// histories of 2 to 64 outcomes.
func DefaultConfig() *Config {
	return &Config{
		Name: "tage",
		Kind: KindTAGE,
		TAGE: &TAGEConfig{
			NumTables:     7,
			BaseIndexBits: 14,
			HistoryLength: 2,
			Alpha:         2,
			IndexBits:     11,
			TagBits:       12,
		},
	}
}

// Label returns the report name of the predictor.
func (c *Config) Label() string {
	if c == nil {
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	return string(c.Kind)
}

// LoadConfig loads a predictor configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config from %q", path)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config %q", path)
	}
	return config, nil
}

// Parse decodes and validates a JSON predictor configuration.
func Parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the configuration to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config to %q", path)
	}
	return nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	errs := c.validate("")
	if len(errs) == 0 {
		return nil
	}
	return multierror.Of(errs...)
}

func (c *Config) validate(path string) []error {
	if c == nil {
		return []error{fmt.Errorf("%smissing predictor", path)}
	}

	var errs []error
	wrap := func(err error) {
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "%s%s", path, c.Kind))
		}
	}

	switch c.Kind {
	case KindBimodal:
		if c.Bimodal == nil {
			return []error{fmt.Errorf("%sbimodal: missing \"bimodal\" block", path)}
		}
		wrap(c.Bimodal.predictorConfig().Validate())
	case KindGlobal:
		if c.Global == nil {
			return []error{fmt.Errorf("%sglobal: missing \"global\" block", path)}
		}
		pc, err := c.Global.predictorConfig()
		wrap(err)
		if err == nil {
			wrap(pc.Validate())
		}
	case KindTournament:
		if c.Tournament == nil {
			return []error{fmt.Errorf("%stournament: missing \"tournament\" block", path)}
		}
		if c.Tournament.SelectorWidth > predictor.MaxCounterWidth {
			wrap(fmt.Errorf("selector_width must be at most %d", predictor.MaxCounterWidth))
		}
		errs = append(errs, c.Tournament.First.validate(path+"tournament.first: ")...)
		errs = append(errs, c.Tournament.Second.validate(path+"tournament.second: ")...)
	case KindTAGE:
		if c.TAGE == nil {
			return []error{fmt.Errorf("%stage: missing \"tage\" block", path)}
		}
		pc, err := c.TAGE.predictorConfig()
		wrap(err)
		if err == nil {
			wrap(pc.Validate())
		}
	default:
		errs = append(errs, fmt.Errorf("%sunknown predictor kind %q", path, c.Kind))
	}

	return errs
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := &Config{Name: c.Name, Kind: c.Kind}
	if c.Bimodal != nil {
		b := *c.Bimodal
		clone.Bimodal = &b
	}
	if c.Global != nil {
		g := *c.Global
		clone.Global = &g
	}
	if c.Tournament != nil {
		clone.Tournament = &TournamentConfig{
			First:         c.Tournament.First.Clone(),
			Second:        c.Tournament.Second.Clone(),
			SelectorWidth: c.Tournament.SelectorWidth,
		}
	}
	if c.TAGE != nil {
		t := *c.TAGE
		clone.TAGE = &t
	}
	return clone
}

func (b *BimodalConfig) predictorConfig() predictor.BimodalConfig {
	return predictor.BimodalConfig{
		IndexBits:    b.IndexBits,
		CounterWidth: b.CounterWidth,
	}
}

func (g *GlobalConfig) predictorConfig() (predictor.GlobalHistoryConfig, error) {
	indexHash, tagHash, err := hashes(g.IndexHash, g.TagHash)
	if err != nil {
		return predictor.GlobalHistoryConfig{}, err
	}

	return predictor.GlobalHistoryConfig{
		HistoryWidth: g.HistoryWidth,
		IndexBits:    g.IndexBits,
		TagBits:      g.TagBits,
		CounterWidth: g.CounterWidth,
		IndexHash:    indexHash,
		TagHash:      tagHash,
	}, nil
}

func (t *TAGEConfig) predictorConfig() (predictor.TAGEConfig, error) {
	indexHash, tagHash, err := hashes(t.IndexHash, t.TagHash)
	if err != nil {
		return predictor.TAGEConfig{}, err
	}

	return predictor.TAGEConfig{
		NumTables:        t.NumTables,
		BaseIndexBits:    t.BaseIndexBits,
		BaseCounterWidth: t.BaseCounterWidth,
		HistoryLength:    t.HistoryLength,
		Alpha:            t.Alpha,
		IndexBits:        t.IndexBits,
		TagBits:          t.TagBits,
		CounterWidth:     t.CounterWidth,
		ResetPeriod:      t.ResetPeriod,
		IndexHash:        indexHash,
		TagHash:          tagHash,
	}, nil
}

// hashes resolves hash names; empty names keep the predictor defaults.
func hashes(index, tag string) (predictor.HashFunc, predictor.HashFunc, error) {
	var indexHash, tagHash predictor.HashFunc
	var err error

	if index != "" {
		if indexHash, err = predictor.HashByName(index); err != nil {
			return nil, nil, errors.Wrap(err, "index_hash")
		}
	}
	if tag != "" {
		if tagHash, err = predictor.HashByName(tag); err != nil {
			return nil, nil, errors.Wrap(err, "tag_hash")
		}
	}
	return indexHash, tagHash, nil
}
