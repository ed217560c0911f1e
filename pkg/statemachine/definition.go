package statemachine

// definition is the registered record for a state.
type definition struct {
	behavior Behavior
	running  bool
	disabled bool
}

// Define registers state, overwriting any previous definition. The behavior
// may be nil for a no-op state. Overwriting does not cancel a task already
// running for that state: only future activations see the new behavior. That
// is a sharp edge to be aware of, not a bug.
func (m *Machine) Define(state string, behavior Behavior) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defs[state] = &definition{behavior: behavior}
}

// DisableDefinition marks state as disabled: transitions into it still
// succeed and update the current state, but its behavior is not launched. A
// task already running for the state is left alone. No-op when state is not
// registered.
func (m *Machine) DisableDefinition(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if def, ok := m.defs[state]; ok {
		def.disabled = true
	}
}

// ReEnableDefinition clears the disabled flag set by DisableDefinition.
// No-op when state is not registered.
func (m *Machine) ReEnableDefinition(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if def, ok := m.defs[state]; ok {
		def.disabled = false
	}
}

// DestroyDefinition removes state from the registry; no-op when it is not
// registered. A running task for the state is not stopped, and the current
// state is not cleared even when it names the removed entry — the machine is
// left pointing at a missing key, and later activations of it simply find
// nothing and no-op.
func (m *Machine) DestroyDefinition(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.defs, state)
}

// ChangeDefinition swaps only the behavior of an existing definition,
// preserving its running and disabled flags. No-op when state is not
// registered.
func (m *Machine) ChangeDefinition(state string, behavior Behavior) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if def, ok := m.defs[state]; ok {
		def.behavior = behavior
	}
}

// DefinitionIsRunning reports whether state's behavior is currently active.
// It is false for unregistered states. The flag is true only while the
// machine is running and state is the current state.
func (m *Machine) DefinitionIsRunning(state string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := m.defs[state]
	return ok && def.running
}
