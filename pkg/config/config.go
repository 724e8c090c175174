// Package config loads feature extraction experiments.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrConfig is returned for invalid experiment configuration
var ErrConfig = errors.New("invalid configuration")

const (
	DefaultWorkers   = 4
	DefaultBatchSize = 100

	EnvWorkers   = "RELFEAT_WORKERS"
	EnvBatchSize = "RELFEAT_BATCH_SIZE"
)

// FeatureList is a list of feature specs. In YAML it is either a sequence or
// a block string with one spec per whitespace-separated word.
type FeatureList []string

// UnmarshalYAML accepts a sequence or a scalar block
func (l *FeatureList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = ParseFeatureList(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		out := make(FeatureList, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*l = out
		return nil
	}
	return errors.Wrapf(ErrConfig, "line %d: feature list must be a sequence or a string", node.Line)
}

// ParseFeatureList splits a block of feature specs on whitespace
func ParseFeatureList(block string) FeatureList {
	return FeatureList(strings.Fields(block))
}

// Experiment describes which features to extract for a relation
type Experiment struct {
	Relation       string      `yaml:"relation"`
	SparseFeatures FeatureList `yaml:"sparse_features"`
	DenseFeatures  FeatureList `yaml:"dense_features"`
	Workers        int         `yaml:"workers"`
	BatchSize      int         `yaml:"batch_size"`
}

// DefaultExperiment returns an experiment with default concurrency and no
// features
func DefaultExperiment() *Experiment {
	return &Experiment{
		Workers:   DefaultWorkers,
		BatchSize: DefaultBatchSize,
	}
}

// Features returns the sparse features followed by the dense ones
func (e *Experiment) Features() []string {
	out := make([]string, 0, len(e.SparseFeatures)+len(e.DenseFeatures))
	out = append(out, e.SparseFeatures...)
	return append(out, e.DenseFeatures...)
}

// Validate checks the experiment is usable
func (e *Experiment) Validate() error {
	if len(e.SparseFeatures)+len(e.DenseFeatures) == 0 {
		return errors.Wrap(ErrConfig, "no features configured")
	}
	if e.Workers <= 0 {
		return errors.Wrapf(ErrConfig, "workers must be positive, got %d", e.Workers)
	}
	if e.BatchSize <= 0 {
		return errors.Wrapf(ErrConfig, "batch_size must be positive, got %d", e.BatchSize)
	}
	return nil
}

// Load reads an experiment from a YAML file and applies environment
// overrides
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read experiment %s", path)
	}
	return Parse(data)
}

// Parse decodes an experiment from YAML and applies environment overrides
func Parse(data []byte) (*Experiment, error) {
	exp := DefaultExperiment()
	if err := yaml.Unmarshal(data, exp); err != nil {
		if errors.Cause(err) == ErrConfig {
			return nil, err
		}
		return nil, errors.Wrapf(ErrConfig, "parse experiment: %v", err)
	}
	if err := exp.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	return exp, nil
}

func (e *Experiment) applyEnvOverrides() error {
	for _, o := range []struct {
		key string
		dst *int
	}{
		{EnvWorkers, &e.Workers},
		{EnvBatchSize, &e.BatchSize},
	} {
		raw := os.Getenv(o.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.Wrapf(ErrConfig, "%s=%q is not an integer", o.key, raw)
		}
		*o.dst = n
	}
	return nil
}
