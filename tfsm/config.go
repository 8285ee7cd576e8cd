package tfsm

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// Config is the YAML description of a state table. Successors refer to states
// by name and callbacks by their Registry name.
//
//	name: breathalyzer
//	maxCyclePeriod: 7s
//	states:
//	  - name: CONFIG
//	    cycle: 1s
//	    steps: 1
//	    delay: 4
//	    primary: MAIN
//	    alternate: CALIBRATE
//	    action: config
type Config struct {
	Name           string        `json:"name"           yaml:"name"`
	MaxCyclePeriod time.Duration `json:"maxCyclePeriod" yaml:"maxCyclePeriod"`
	States         []StateConfig `json:"states"         yaml:"states"`

	// Fingerprint is the xxh3 hash of the bytes the config was parsed from.
	Fingerprint uint64 `json:"-" yaml:"-"`
}

// StateConfig describes one state.
type StateConfig struct {
	Name      string        `json:"name"      yaml:"name"`
	Cycle     time.Duration `json:"cycle"     yaml:"cycle"`
	Steps     int32         `json:"steps"     yaml:"steps"`
	Delay     int32         `json:"delay"     yaml:"delay"`
	Primary   string        `json:"primary"   yaml:"primary"`
	Alternate string        `json:"alternate" yaml:"alternate"` // defaults to primary
	Action    string        `json:"action"    yaml:"action"`
	OnDelay   string        `json:"onDelay"   yaml:"onDelay"`
	Argument  string        `json:"argument"  yaml:"argument"`
}

// LoadConfig reads a state table description from a file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromFS reads a state table description from fsys, typically an embed.FS.
func LoadConfigFromFS(fsys fs.FS, name string) (*Config, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", name, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes parses and validates a YAML state table description.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Fingerprint = xxh3.Hash(data)

	err = config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks names and counters. Callback names are checked by Build,
// since they depend on the registry.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrConfigNameRequired
	}

	if len(c.States) == 0 {
		return ErrEmptyTable
	}

	names := make(map[string]int, len(c.States))

	for i, st := range c.States {
		if st.Name == "" {
			return wrapStateError(i, "", ErrStateNameRequired)
		}

		if _, dup := names[st.Name]; dup {
			return wrapStateError(i, st.Name, ErrDuplicateStateName)
		}

		names[st.Name] = i
	}

	for i, st := range c.States {
		switch {
		case st.Steps < 1:
			return wrapStateError(i, st.Name, ErrInvalidSteps)
		case st.Delay < 0:
			return wrapStateError(i, st.Name, ErrInvalidDelay)
		case st.Cycle < 0:
			return wrapStateError(i, st.Name, ErrInvalidCyclePeriod)
		}

		if _, ok := names[st.Primary]; !ok {
			return wrapStateError(i, st.Name, fmt.Errorf("%w: primary %q", ErrUnknownSuccessor, st.Primary))
		}

		if st.Alternate != "" {
			if _, ok := names[st.Alternate]; !ok {
				return wrapStateError(i, st.Name, fmt.Errorf("%w: alternate %q", ErrUnknownSuccessor, st.Alternate))
			}
		}
	}

	return nil
}

// Build turns the description into a state table, resolving callbacks in reg.
func (c *Config) Build(reg *Registry) ([]State, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(c.States))
	for i, st := range c.States {
		index[st.Name] = i
	}

	table := make([]State, 0, len(c.States))

	for i, st := range c.States {
		action, err := resolve(reg, st.Action)
		if err != nil {
			return nil, wrapStateError(i, st.Name, err)
		}

		onDelay, err := resolve(reg, st.OnDelay)
		if err != nil {
			return nil, wrapStateError(i, st.Name, err)
		}

		alternate := st.Alternate
		if alternate == "" {
			alternate = st.Primary
		}

		state := State{
			Name:        st.Name,
			CyclePeriod: st.Cycle,
			Steps:       st.Steps,
			Delay:       st.Delay,
			Primary:     index[st.Primary],
			Alternate:   index[alternate],
			Action:      action,
			OnDelay:     onDelay,
		}

		if st.Argument != "" {
			state.Argument = StaticArgument(st.Argument)
		}

		table = append(table, state)
	}

	return table, nil
}

func resolve(reg *Registry, name string) (Callback, error) { //nolint:ireturn
	if name == "" {
		return nil, nil //nolint:nilnil
	}

	if reg == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCallback, name)
	}

	cb, ok := reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCallback, name)
	}

	return cb, nil
}

// NewFromConfig builds the table from config and starts an engine on it. The
// config's name and cycle cap apply unless opts override them.
func NewFromConfig(config *Config, reg *Registry, opts ...Option) (*Engine, error) {
	table, err := config.Build(reg)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithName(config.Name),
		WithMaxCyclePeriod(config.MaxCyclePeriod),
	}

	return New(table, append(base, opts...)...)
}
