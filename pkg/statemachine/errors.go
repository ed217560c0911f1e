package statemachine

import "errors"

var (
	// ErrInvalidTopology indicates a topology document that could not be
	// parsed or names a state with an empty name.
	ErrInvalidTopology = errors.New("statemachine: invalid topology")

	// ErrDuplicateState indicates a topology defining the same state twice.
	ErrDuplicateState = errors.New("statemachine: duplicate state in topology")

	// ErrUnknownBehavior indicates a topology referencing a behavior name
	// absent from the registry passed to the loader.
	ErrUnknownBehavior = errors.New("statemachine: behavior not registered")

	// ErrUnknownInitial indicates a topology whose initial state is not among
	// its defined states.
	ErrUnknownInitial = errors.New("statemachine: initial state not defined")
)
