package statemanager

// Names of the built-in actions installed by Default.
const (
	ActionState0 = "state0"
	ActionState1 = "state1"
	ActionState2 = "state2"
	ActionKey    = "key"
)

// Default returns a Dispatcher with the built-in action set. Each action logs
// a line at info level through the dispatcher's logger.
func Default(opts ...Option) *Dispatcher {
	var d *Dispatcher

	say := func(msg, name string) func() {
		return func() { d.logger.Info(msg, "action", name) }
	}

	d, err := New([]Definition{
		{Name: ActionState0, Handler: say("running first case", ActionState0)},
		{Name: ActionState1, Handler: say("running second case", ActionState1)},
		{Name: ActionState2, Handler: say("running third case", ActionState2)},
		{Name: ActionKey, Handler: say("matched keyed action", ActionKey)},
	}, opts...)
	if err != nil {
		// the definitions above are fixed and distinct
		panic(err)
	}

	return d
}
