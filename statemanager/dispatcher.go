package statemanager

import (
	"fmt"
	"log/slog"
	"sync"

	berr "github.com/next-trace/scg-message-center/contract/errors"
)

// Dispatcher holds a fixed action registry and the current selection.
//
// The registry is immutable after New. The selection is replaced on every
// non-empty SetState and read by Run. Dispatcher is concurrency-safe.
type Dispatcher struct {
	names    []string
	index    map[string]Action
	handlers []func()

	mu        sync.RWMutex
	selection []Action

	onUnknown  func(name string)
	onNoAction func()
	logger     *slog.Logger
}

// Option configures a Dispatcher instance.
type Option func(*Dispatcher)

// WithLogger sets the logger used by the default reserved handlers.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithUnknownHandler replaces the handler invoked for names outside the registry.
func WithUnknownHandler(fn func(name string)) Option {
	return func(d *Dispatcher) { d.onUnknown = fn }
}

// WithNoActionHandler replaces the handler invoked when SetState receives no names.
func WithNoActionHandler(fn func()) Option {
	return func(d *Dispatcher) { d.onNoAction = fn }
}

// New builds a Dispatcher over defs. Names must be non-empty and unique and
// every definition needs a handler.
func New(defs []Definition, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		names:    make([]string, 0, len(defs)),
		index:    make(map[string]Action, len(defs)),
		handlers: make([]func(), 0, len(defs)),
	}

	for _, def := range defs {
		if def.Name == "" || def.Handler == nil {
			return nil, fmt.Errorf("define action %q: %w", def.Name, berr.ErrActionInvalid)
		}

		if _, exists := d.index[def.Name]; exists {
			return nil, fmt.Errorf("define action %s: %w", def.Name, berr.ErrActionExists)
		}

		d.index[def.Name] = Action(len(d.names))
		d.names = append(d.names, def.Name)
		d.handlers = append(d.handlers, def.Handler)
	}

	for _, o := range opts {
		o(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	if d.onUnknown == nil {
		d.onUnknown = func(name string) {
			d.logger.Warn("unknown directive", "directive", name, "error", berr.ErrUnknownAction)
		}
	}

	if d.onNoAction == nil {
		d.onNoAction = func() { d.logger.Info("no action taken") }
	}

	return d, nil
}

// Parse maps name to its Action, or Unrecognized.
func (d *Dispatcher) Parse(name string) Action {
	if a, ok := d.index[name]; ok {
		return a
	}

	return Unrecognized
}

// Name returns the registered name of a, or "" for values outside the registry.
func (d *Dispatcher) Name(a Action) string {
	if !d.registered(a) {
		return ""
	}

	return d.names[a]
}

func (d *Dispatcher) registered(a Action) bool {
	return a >= 0 && int(a) < len(d.names)
}

// SetState replaces the current selection with names, in order.
//
// With no names the no-action handler runs and the selection is left as is.
// Unknown names are reported to the unknown handler as they are encountered
// and are not selected. Duplicates are kept.
func (d *Dispatcher) SetState(names ...string) *Dispatcher {
	if len(names) == 0 {
		d.onNoAction()
		return d
	}

	selection := make([]Action, 0, len(names))

	for _, name := range names {
		a := d.Parse(name)
		if a == Unrecognized {
			d.onUnknown(name)
			continue
		}

		selection = append(selection, a)
	}

	d.mu.Lock()
	d.selection = selection
	d.mu.Unlock()

	return d
}

// Run invokes the handler of every selected action in selection order.
// It performs no validation and leaves the selection untouched.
func (d *Dispatcher) Run() *Dispatcher {
	d.mu.RLock()
	selection := append([]Action(nil), d.selection...)
	d.mu.RUnlock()

	for _, a := range selection {
		// SetState only selects registered actions.
		if !d.registered(a) {
			d.logger.Error("selection references unregistered action", "action", int(a))
			continue
		}

		d.handlers[a]()
	}

	return d
}

// Selection returns the names of the current selection in order.
func (d *Dispatcher) Selection() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.selection))
	for _, a := range d.selection {
		out = append(out, d.names[a])
	}

	return out
}

// Actions returns the registered action names in definition order.
func (d *Dispatcher) Actions() []string {
	return append([]string(nil), d.names...)
}
