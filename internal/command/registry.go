package command

import (
	"errors"
	"sort"

	"github.com/vartexter/vartexter/internal/logging"
)

// Invocation is the runtime payload passed through dispatch.
type Invocation struct {
	Command string
	// Args and Kwargs override the descriptor defaults when non-nil.
	Args   []any
	Kwargs map[string]any
	// Restoring marks a state-restore pass rather than a user action.
	Restoring bool
}

// Trigger is the UI handle a user activates to run a command.
type Trigger interface {
	Checkable() bool
	SetCheckable(b bool)
	Checked() bool
	SetChecked(b bool)
}

// Binder creates trigger handles and binds key combinations to them.
type Binder interface {
	// Bound reports whether combo already has a binding.
	Bound(combo string) bool
	// NewTrigger creates a trigger wired to dispatch inv.
	NewTrigger(inv Invocation) Trigger
	// BindShortcut binds combo to t.
	BindShortcut(combo string, t Trigger) error
}

// Resolver looks up a command class by symbol name. An empty plugin means
// a host built-in.
type Resolver interface {
	Resolve(plugin, symbol string) (*Class, error)
}

// Descriptor is the registry's record for one command.
type Descriptor struct {
	Name             string
	Kind             Kind
	Class            *Class
	Args             []any
	Kwargs           map[string]any
	Trigger          Trigger
	CheckedStatePath string
	// Plugin is the owning plugin, "" for host built-ins.
	Plugin string
}

// Registration is the input to Registry.RegisterFunction.
type Registration struct {
	// Name is the command name. It may be empty when Class is set.
	Name string
	// Class is the implementation. When nil, Name is resolved against Plugin.
	Class  *Class
	Plugin string
	Args   []any
	Kwargs map[string]any

	// Shortcuts are bound to Trigger, or to a new trigger when Trigger is nil.
	Shortcuts []string
	Trigger   Trigger

	Checkable        bool
	Checked          *bool
	CheckedStatePath string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithResolver sets the symbol resolver.
func WithResolver(r Resolver) RegistryOption {
	return func(reg *Registry) {
		reg.resolver = r
	}
}

// WithBinder sets the shortcut binder.
func WithBinder(b Binder) RegistryOption {
	return func(reg *Registry) {
		reg.binder = b
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) RegistryOption {
	return func(reg *Registry) {
		reg.logger = l
	}
}

// Registry maps command names to descriptors.
type Registry struct {
	descriptors map[string]*Descriptor
	resolver    Resolver
	binder      Binder
	logger      *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		descriptors: make(map[string]*Descriptor),
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterFunction normalises reg into a descriptor and stores it.
// A name-only registration is resolved through the Resolver; failure drops
// this entry only. Shortcut conflicts are logged and do not fail the
// registration.
func (r *Registry) RegisterFunction(reg Registration) error {
	name := reg.Name
	if name == "" && reg.Class != nil {
		name = reg.Class.Name
	}
	if name == "" {
		return r.fail(&RegistrationError{Plugin: reg.Plugin, Err: ErrEmptyName})
	}

	class := reg.Class
	if class == nil {
		if r.resolver == nil {
			return r.fail(&RegistrationError{Command: name, Plugin: reg.Plugin, Err: ErrNoResolver})
		}
		resolved, err := r.resolver.Resolve(reg.Plugin, name)
		if err != nil {
			return r.fail(&RegistrationError{Command: name, Plugin: reg.Plugin, Err: err})
		}
		class = resolved
	}

	trigger := r.bindShortcuts(name, reg.Shortcuts, reg.Trigger)
	if trigger != nil && reg.Checkable {
		trigger.SetCheckable(true)
		if reg.Checked != nil {
			trigger.SetChecked(*reg.Checked)
		}
	}

	desc := &Descriptor{
		Name:             name,
		Kind:             class.Kind,
		Class:            class,
		Args:             reg.Args,
		Kwargs:           reg.Kwargs,
		Trigger:          trigger,
		CheckedStatePath: reg.CheckedStatePath,
		Plugin:           reg.Plugin,
	}

	if prev, exists := r.descriptors[name]; exists {
		r.logger.Info("Command '%s' re-registered (was from '%s', now from '%s')",
			name, ownerName(prev.Plugin), ownerName(reg.Plugin))
	}
	r.descriptors[name] = desc
	return nil
}

// RegisterClass registers class under its own name, owned by plugin.
func (r *Registry) RegisterClass(class *Class, plugin string) error {
	if class == nil {
		return r.fail(&RegistrationError{Plugin: plugin, Err: errors.New("nil class")})
	}
	return r.RegisterFunction(Registration{
		Name:   class.Name,
		Class:  class,
		Plugin: plugin,
	})
}

// bindShortcuts binds every free combo to trigger, creating the trigger on
// the first free combo when none was supplied.
func (r *Registry) bindShortcuts(name string, combos []string, trigger Trigger) Trigger {
	if len(combos) == 0 || r.binder == nil {
		return trigger
	}

	for _, combo := range combos {
		if r.binder.Bound(combo) {
			r.logger.Warn("Shortcut '%s' for function '%s' is already used.", combo, name)
			continue
		}
		if trigger == nil {
			trigger = r.binder.NewTrigger(Invocation{Command: name})
		}
		if err := r.binder.BindShortcut(combo, trigger); err != nil {
			r.logger.Warn("Shortcut '%s' for function '%s': %v", combo, name, err)
		}
	}
	return trigger
}

func (r *Registry) fail(err *RegistrationError) error {
	r.logger.Error("Error when %v", err)
	return err
}

func ownerName(plugin string) string {
	if plugin == "" {
		return "host"
	}
	return plugin
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Has returns true if name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.descriptors[name]
	return ok
}

// Unregister removes name. Returns true if it existed.
func (r *Registry) Unregister(name string) bool {
	if _, ok := r.descriptors[name]; !ok {
		return false
	}
	delete(r.descriptors, name)
	return true
}

// UnregisterPlugin removes every command owned by plugin and returns how many.
func (r *Registry) UnregisterPlugin(plugin string) int {
	n := 0
	for name, d := range r.descriptors {
		if d.Plugin == plugin {
			delete(r.descriptors, name)
			n++
		}
	}
	return n
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns all descriptors sorted by name.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.descriptors))
	for _, name := range r.Names() {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.descriptors)
}
