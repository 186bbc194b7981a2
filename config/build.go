package config

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/sarchlab/bpsim/predictor"
)

// Build validates the configuration and constructs the predictor it
// describes. Tournament sub-predictors are built recursively.
func (c *Config) Build() (predictor.Predictor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.build()
}

func (c *Config) build() (predictor.Predictor, error) {
	var (
		p   predictor.Predictor
		err error
	)

	switch c.Kind {
	case KindBimodal:
		p, err = asPredictor(predictor.NewBimodal(c.Bimodal.predictorConfig()))
	case KindGlobal:
		var pc predictor.GlobalHistoryConfig
		if pc, err = c.Global.predictorConfig(); err == nil {
			p, err = asPredictor(predictor.NewGlobalHistory(pc))
		}
	case KindTournament:
		p, err = c.Tournament.build()
	case KindTAGE:
		var pc predictor.TAGEConfig
		if pc, err = c.TAGE.predictorConfig(); err == nil {
			p, err = asPredictor(predictor.NewTAGE(pc))
		}
	default:
		err = fmt.Errorf("unknown predictor kind %q", c.Kind)
	}

	if err != nil {
		return nil, err
	}
	return p, nil
}

func (t *TournamentConfig) build() (predictor.Predictor, error) {
	first, err := t.First.build()
	if err != nil {
		return nil, errors.Wrap(err, "tournament.first")
	}
	second, err := t.Second.build()
	if err != nil {
		return nil, errors.Wrap(err, "tournament.second")
	}
	return asPredictor(predictor.NewTournament(first, second, t.SelectorWidth))
}

// asPredictor keeps a failed constructor from yielding a typed nil.
func asPredictor[T predictor.Predictor](p T, err error) (predictor.Predictor, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

var presets = map[string]func() *Config{
	"bimodal": func() *Config {
		return &Config{
			Name:    "bimodal",
			Kind:    KindBimodal,
			Bimodal: &BimodalConfig{IndexBits: 14},
		}
	},
	"global": func() *Config {
		return &Config{
			Name: "global",
			Kind: KindGlobal,
			Global: &GlobalConfig{
				HistoryWidth: 22,
				IndexBits:    11,
				TagBits:      9,
				IndexHash:    "xor",
				TagHash:      "xnor",
			},
		}
	},
	"tournament": func() *Config {
		return &Config{
			Name: "tournament",
			Kind: KindTournament,
			Tournament: &TournamentConfig{
				First: &Config{
					Kind: KindGlobal,
					Global: &GlobalConfig{
						HistoryWidth: 13, IndexBits: 13, TagBits: 8,
						IndexHash: "xor",
					},
				},
				Second: &Config{
					Kind: KindGlobal,
					Global: &GlobalConfig{
						HistoryWidth: 13, IndexBits: 13, TagBits: 8,
						IndexHash: "xnor",
					},
				},
			},
		}
	},
	"tage": DefaultConfig,
}

// Preset returns a copy of a named built-in configuration.
func Preset(name string) (*Config, error) {
	preset, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	return preset(), nil
}

// PresetNames lists the built-in configurations in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
