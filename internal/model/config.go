package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	_ "embed"

	"github.com/CZERTAINLY/procawait/internal/launch"
)

const configFilename = "procawait.yaml"

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource, cue.Filename("config.cue"))
	if compiled.Err() != nil {
		panic(compiled.Err())
	}
	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

type Config struct {
	Version      int      `yaml:"version"` // fixed 0 for now
	Verbose      bool     `yaml:"verbose,omitempty"`
	DrainTimeout Duration `yaml:"drain_timeout,omitempty"`
	Command      Command  `yaml:"command,omitempty"`
}

// Command holds defaults applied to every launched command.
type Command struct {
	Timeout Duration          `yaml:"timeout,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"` // values starting with $ are expanded
}

// Duration is a time.Duration written as a Go duration string, e.g. "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("%w: line %d: %w", ErrDuration, value.Line, err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: line %d: %w", ErrDuration, value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func DefaultConfig() Config {
	return Config{
		Version:      0,
		DrainTimeout: Duration(launch.DefaultDrainTimeout),
	}
}

// LoadConfig validates YAML from r against the CUE schema and decodes it on
// top of DefaultConfig. Schema violations match ErrConfig; CueErrDetails
// explains them.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	src, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if len(bytes.TrimSpace(src)) == 0 {
		return cfg, nil
	}

	yamlFile, err := cueyaml.Extract(configFilename, src)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	unified := schema.Unify(cueCtx.BuildFile(yamlFile))
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Environ returns the parent environment extended by the configured variables,
// or nil when none are configured.
func (c Command) Environ() []string {
	if len(c.Env) == 0 {
		return nil
	}
	env := os.Environ()
	for _, k := range slices.Sorted(maps.Keys(c.Env)) {
		v := c.Env[k]
		if strings.HasPrefix(v, "$") {
			v = os.ExpandEnv(v)
		}
		env = append(env, k+"="+v)
	}
	return env
}

// Descriptor builds a launch descriptor for executable and args using the
// configured defaults.
func (c Config) Descriptor(executable string, args []string) launch.Descriptor {
	return launch.Descriptor{
		Executable:   executable,
		ArgumentList: args,
		WorkingDir:   c.Command.Dir,
		Env:          c.Command.Environ(),
		Timeout:      time.Duration(c.Command.Timeout),
	}
}
