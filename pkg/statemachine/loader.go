package statemachine

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StateDef declares one state in a topology document. Behavior names a
// callback in the registry handed to the loader; it may be empty for a no-op
// state.
type StateDef struct {
	Name     string `yaml:"name"`
	Behavior string `yaml:"behavior,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Topology is a declarative machine description, typically unmarshaled from
// YAML. Initial optionally pre-selects the current state; the machine is
// returned stopped either way.
type Topology struct {
	Initial string     `yaml:"initial,omitempty"`
	States  []StateDef `yaml:"states"`
}

// FromYAML parses a topology document and builds a machine from it. Behaviors
// are bound by name through the behaviors registry. See FromTopology for the
// validation rules.
func FromYAML(data []byte, behaviors map[string]Behavior, opts ...Option) (*Machine, error) {
	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, errors.Join(ErrInvalidTopology, err)
	}
	return FromTopology(topo, behaviors, opts...)
}

// FromTopology builds a machine from an already-parsed topology. It rejects
// empty state names, duplicate states, behavior names missing from the
// registry, and an initial state that is not defined. On success the machine
// has every state defined, disabled flags applied, and the initial state
// pre-selected (not started).
func FromTopology(topo Topology, behaviors map[string]Behavior, opts ...Option) (*Machine, error) {
	seen := make(map[string]struct{}, len(topo.States))
	for _, s := range topo.States {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: state with empty name", ErrInvalidTopology)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateState, s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Behavior != "" {
			if _, ok := behaviors[s.Behavior]; !ok {
				return nil, fmt.Errorf("%w: state %q references %q", ErrUnknownBehavior, s.Name, s.Behavior)
			}
		}
	}
	if topo.Initial != "" {
		if _, ok := seen[topo.Initial]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownInitial, topo.Initial)
		}
	}

	m := New(opts...)
	for _, s := range topo.States {
		var behavior Behavior
		if s.Behavior != "" {
			behavior = behaviors[s.Behavior]
		}
		m.Define(s.Name, behavior)
		if s.Disabled {
			m.DisableDefinition(s.Name)
		}
	}
	if topo.Initial != "" {
		m.ChangeState(topo.Initial)
	}
	return m, nil
}
