// Package config loads the run configuration the CLI wires into a
// factory.Builder, using the same viper-then-yaml.v3 double-unmarshal idiom
// the teacher's reinforcement.FromYaml does.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// HyperParameter is a single named knob passed through to whichever ranker
// the run selects, mirroring the teacher's reinforcement.HyperParameter.
type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// RunConfig is the full set of knobs a screening run needs beyond what's
// fixed by the calculator/feature-store Go code wiring it together. The
// yaml tags are lower-case because viper lower-cases every key it reads, so
// a file's "poolSize" reaches the yaml.v3 decode step as "poolsize".
type RunConfig struct {
	PoolSize          int              `yaml:"poolsize"`
	TruthQuota        int              `yaml:"truthquota"`
	DirtyThreshold    int              `yaml:"dirtythreshold"`
	CandidateListPath string           `yaml:"candidatelistpath"`
	ResultSinkPath    string           `yaml:"resultsinkpath"`
	Ranker            string           `yaml:"ranker"`
	RunCode           string           `yaml:"runcode"`
	HyperParams       []HyperParameter `yaml:"hyperparams"`
}

// GetHyperParamOrDefault looks up a named hyperparameter, returning
// defaultVal if it was not set in the config file.
func (cfg *RunConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// outerConfig mirrors the teacher's OuterConfig: viper reads the file into
// this generic shape first, and only the "def" subtree is re-marshalled and
// decoded into the concrete RunConfig, which keeps viper's mapstructure
// quirks (it dislikes nested nil maps, nested slices of structs, etc.) away
// from the typed struct entirely.
type outerConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// LoadRunConfig reads a YAML run configuration from path. Any field the
// file omits keeps its Go zero value; RunCode is filled in with a short
// random hex code if the file didn't set one. Nothing in this module reads
// RunCode: the result sink path is used exactly as configured.
func LoadRunConfig(path string) (*RunConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}

	var outer outerConfig
	if err := vp.Unmarshal(&outer); err != nil {
		return nil, fmt.Errorf("config: decoding %q into outer shape: %w", path, err)
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, fmt.Errorf("config: re-marshalling %q: %w", path, err)
	}

	cfg := &RunConfig{}
	if err := yaml.Unmarshal(spec, cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %q into RunConfig: %w", path, err)
	}

	if cfg.RunCode == "" {
		code, err := randomRunCode()
		if err != nil {
			return nil, fmt.Errorf("config: generating run code: %w", err)
		}
		cfg.RunCode = code
	}

	return cfg, nil
}

func randomRunCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
