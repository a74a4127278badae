package statemanager

// Action identifies one entry of a Dispatcher's registry. Values are assigned
// in definition order starting at zero.
type Action int

// Unrecognized is returned by Parse for names outside the registry.
const Unrecognized Action = -1

// Definition binds an action name to its handler.
type Definition struct {
	Name    string
	Handler func()
}
