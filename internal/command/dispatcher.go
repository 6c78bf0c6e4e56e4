package command

import (
	"fmt"
	"reflect"

	"github.com/vartexter/vartexter/internal/logging"
)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatchLogger sets the logger.
func WithDispatchLogger(l *logging.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithResultLevel sets the level used to log non-empty command results.
func WithResultLevel(level logging.Level) DispatcherOption {
	return func(d *Dispatcher) {
		d.resultLevel = level
	}
}

// Dispatcher executes invocations against a Registry.
type Dispatcher struct {
	registry    *Registry
	api         API
	logger      *logging.Logger
	resultLevel logging.Level
}

// NewDispatcher creates a dispatcher. api is passed to every command.
func NewDispatcher(registry *Registry, api API, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		api:         api,
		logger:      logging.Nop(),
		resultLevel: logging.LevelInfo,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs inv and returns the command's result.
//
// Errors are logged before they are returned; callers wired to UI triggers
// may ignore them. A missing command yields ErrNotFound; construction or run
// failures, including panics, yield *RuntimeError.
func (d *Dispatcher) Execute(inv Invocation) (any, error) {
	desc, ok := d.registry.Get(inv.Command)
	if !ok {
		d.logger.Warn("Command '%s' not found", inv.Command)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, inv.Command)
	}

	args := inv.Args
	if args == nil {
		args = desc.Args
	}
	kwargs := inv.Kwargs
	if kwargs == nil {
		kwargs = desc.Kwargs
	}

	d.syncChecked(desc, inv.Restoring)

	out, err := d.run(desc, args, kwargs)
	if err != nil {
		rerr := &RuntimeError{Command: desc.Name, Err: err}
		if p, ok := err.(panicError); ok {
			rerr.Err = p.err
			rerr.Panicked = true
		}
		d.logger.Error("Found error in '%s' - '%v'. Kind: %s, plugin: %s",
			desc.Name, rerr.Err, desc.Kind, ownerName(desc.Plugin))
		return nil, rerr
	}

	d.logger.Info("Executed command '%s' with args '%v', kwargs '%v'", desc.Name, args, kwargs)
	if !isEmpty(out) {
		d.logger.Log(d.resultLevel, "Command '%s' returned '%v'", desc.Name, out)
	}
	return out, nil
}

// syncChecked sets a checkable trigger from persisted state: the stored value
// while restoring, its negation for a live toggle.
func (d *Dispatcher) syncChecked(desc *Descriptor, restoring bool) {
	if desc.Trigger == nil || !desc.Trigger.Checkable() || desc.CheckedStatePath == "" {
		return
	}

	persisted := false
	if d.api != nil {
		if v, ok := d.api.State(desc.CheckedStatePath); ok {
			persisted = truthy(v)
		}
	}

	if restoring {
		desc.Trigger.SetChecked(persisted)
	} else {
		desc.Trigger.SetChecked(!persisted)
	}
}

// run constructs a fresh instance and runs it, converting panics to errors.
func (d *Dispatcher) run(desc *Descriptor, args []any, kwargs map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = panicError{err: fmt.Errorf("%v", r)}
		}
	}()

	target, err := d.target(desc.Kind)
	if err != nil {
		return nil, err
	}
	if desc.Class == nil || desc.Class.New == nil {
		return nil, ErrUnbound
	}

	runner, err := desc.Class.New(target)
	if err != nil {
		return nil, fmt.Errorf("constructing: %w", err)
	}
	if runner == nil {
		return nil, fmt.Errorf("constructing: class returned no instance")
	}
	return runner.Run(args, kwargs)
}

// target builds the construction context for kind.
func (d *Dispatcher) target(kind Kind) (Target, error) {
	t := Target{API: d.api}

	switch kind {
	case Application:
		return t, nil
	case Window, Text:
		if d.api == nil {
			return t, ErrNoWindow
		}
		w := d.api.ActiveWindow()
		if w == nil {
			return t, ErrNoWindow
		}
		if kind == Window {
			t.Window = w
			return t, nil
		}
		v := w.ActiveView()
		if v == nil {
			return t, ErrNoView
		}
		t.View = v
		return t, nil
	default:
		return t, ErrUnbound
	}
}

type panicError struct {
	err error
}

func (p panicError) Error() string { return p.err.Error() }

// truthy interprets a persisted value as a checked flag.
func truthy(v any) bool {
	return !isEmpty(v)
}

// isEmpty reports nil, false, zero numbers and empty strings or collections.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String, reflect.Chan:
		return rv.Len() == 0
	default:
		return rv.IsZero()
	}
}
