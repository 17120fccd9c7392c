// Package config loads the pylift.yaml project configuration.
//
// The configuration controls the parts of translation that are policy, not
// semantics: where output goes, how the Python worker is started when the
// translated program needs one, and whether warnings are promoted to
// errors. Absence of a pylift.yaml is not an error; every field has a
// usable default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// SourceFileExt is the recognized source file extension.
const SourceFileExt = ".py"

// DefaultWorkerProtocol is the protocol constraint used when pylift.yaml
// does not pin one. The worker's hello response must satisfy it.
const DefaultWorkerProtocol = "^1.7"

// Config represents the top-level pylift.yaml configuration.
type Config struct {
	// Worker configures the Python worker process used by delegated
	// calls in the translated program.
	Worker WorkerConfig `yaml:"worker,omitempty"`

	// Emit configures output generation.
	Emit EmitConfig `yaml:"emit,omitempty"`

	// Strict promotes warning-severity diagnostics to errors.
	Strict bool `yaml:"strict,omitempty"`
}

// WorkerConfig describes how to reach the Python worker.
type WorkerConfig struct {
	// Command launches the worker; defaults to ["python3", "-m",
	// "pylift_worker"].
	Command []string `yaml:"command,omitempty"`

	// Protocol is a semver constraint the worker's protocol version must
	// satisfy (e.g. "^1.7").
	Protocol string `yaml:"protocol,omitempty"`
}

// EmitConfig describes output generation options.
type EmitConfig struct {
	// Dir is the output directory for the generated .rs file, relative
	// to the source file. Defaults to the source file's directory.
	Dir string `yaml:"dir,omitempty"`

	// Overwrite allows replacing an existing output file.
	Overwrite bool `yaml:"overwrite,omitempty"`
}

// Load reads pylift.yaml from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses pylift.yaml content from bytes. The path argument is used
// only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Find searches for pylift.yaml starting from dir and walking up to
// parent directories. Returns the path if found, or empty string and nil
// error if not found.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range []string{"pylift.yaml", "pylift.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Default returns the configuration used when no pylift.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) validate(path string) error {
	if c.Worker.Protocol != "" {
		if _, err := semver.NewConstraint(c.Worker.Protocol); err != nil {
			return fmt.Errorf("%s: worker.protocol %q is not a valid version constraint: %w", path, c.Worker.Protocol, err)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if len(c.Worker.Command) == 0 {
		c.Worker.Command = []string{"python3", "-m", "pylift_worker"}
	}
	if c.Worker.Protocol == "" {
		c.Worker.Protocol = DefaultWorkerProtocol
	}
}

// ProtocolConstraint returns the parsed worker protocol constraint.
func (c *Config) ProtocolConstraint() (*semver.Constraints, error) {
	return semver.NewConstraint(c.Worker.Protocol)
}
