package menu

import (
	"github.com/vartexter/vartexter/internal/command"
	"github.com/vartexter/vartexter/internal/logging"
	"github.com/vartexter/vartexter/internal/shortcut"
)

// Translator translates a caption within a scope.
type Translator interface {
	Translate(scope, text string) string
}

// Targets are the menus a manifest compiles into.
type Targets struct {
	Main          *Menu
	TextContext   *Menu
	TabBarContext *Menu
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithTranslator sets the caption translator.
func WithTranslator(t Translator) CompilerOption {
	return func(c *Compiler) {
		c.translator = t
	}
}

// WithDispatch sets the handler wired to every compiled action.
func WithDispatch(fn func(command.Invocation)) CompilerOption {
	return func(c *Compiler) {
		c.dispatch = fn
	}
}

// WithCompilerLogger sets the logger.
func WithCompilerLogger(l *logging.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = l
	}
}

// Compiler turns manifest nodes into UI tree items and command registrations.
type Compiler struct {
	registry   *command.Registry
	shortcuts  *shortcut.Table
	translator Translator
	dispatch   func(command.Invocation)
	logger     *logging.Logger
	hidden     []*Action
}

// NewCompiler creates a compiler registering into registry and binding into
// shortcuts.
func NewCompiler(registry *command.Registry, shortcuts *shortcut.Table, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		registry:  registry,
		shortcuts: shortcuts,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTranslator replaces the caption translator.
func (c *Compiler) SetTranslator(t Translator) {
	c.translator = t
}

// CompileFile compiles every target present in f.
func (c *Compiler) CompileFile(f *File, targets Targets, plugin string) {
	if targets.Main != nil {
		c.Compile(f.Main, targets.Main, plugin, ScopeMainMenu)
	}
	if targets.TextContext != nil {
		c.Compile(f.TextContext, targets.TextContext, plugin, ScopeTextContextMenu)
	}
	if targets.TabBarContext != nil {
		c.Compile(f.TabBarContext, targets.TabBarContext, plugin, ScopeTabBarContextMenu)
	}
}

// Compile appends nodes to parent in declaration order. Submenus merge into
// an existing submenu with the same id anywhere below parent. Leaf
// registration failures are logged by the registry; the action is still
// appended.
func (c *Compiler) Compile(nodes []Node, parent *Menu, plugin, scope string) {
	for _, n := range nodes {
		switch {
		case n.IsSeparator():
			parent.AddSeparator()
		case n.IsMenu():
			c.compileMenu(n, parent, plugin, scope)
		default:
			parent.Add(c.compileAction(n, plugin, scope))
		}
	}
}

func (c *Compiler) compileMenu(n Node, parent *Menu, plugin, scope string) {
	if n.ID != "" {
		if existing := parent.FindMenu(n.ID); existing != nil {
			c.Compile(n.Children, existing, plugin, scope)
			return
		}
	}
	sub := NewMenu(n.ID, c.translate(scope, n.Caption))
	sub.Plugin = plugin
	parent.Add(sub)
	c.Compile(n.Children, sub, plugin, scope)
}

func (c *Compiler) compileAction(n Node, plugin, scope string) *Action {
	a := NewAction(c.translate(scope, n.Caption), command.Invocation{})
	a.Plugin = plugin
	a.StatusTip = n.StatusTip
	a.SetCheckable(n.Checkable)
	if n.Checked != nil {
		a.SetChecked(*n.Checked)
	}

	name := ""
	if n.Command != nil {
		name = n.Command.Command
		a.Invocation = command.Invocation{
			Command: name,
			Args:    n.Command.Args,
			Kwargs:  n.Command.Kwargs,
		}
	}

	c.bind(a, n.Shortcut, name)

	if name == "" {
		return a
	}
	if c.dispatch != nil {
		a.OnTrigger(c.dispatch)
	}
	_ = c.registry.RegisterFunction(command.Registration{
		Name:             name,
		Plugin:           plugin,
		Args:             n.Command.Args,
		Kwargs:           n.Command.Kwargs,
		Trigger:          a,
		Checkable:        n.Checkable,
		Checked:          n.Checked,
		CheckedStatePath: n.CheckedStatePath,
	})
	return a
}

// bind binds each free combo to a. Taken combos are logged and skipped.
func (c *Compiler) bind(a *Action, combos []string, name string) int {
	bound := 0
	for _, combo := range combos {
		if c.shortcuts.Bound(combo) {
			c.logger.Warn("Shortcut '%s' for function '%s' is already used.", combo, name)
			continue
		}
		if err := c.shortcuts.Bind(combo, a, name); err != nil {
			c.logger.Warn("Shortcut '%s' for function '%s': %v", combo, name, err)
			continue
		}
		if a.Shortcut == "" {
			a.Shortcut = shortcut.Canonical(combo)
			if a.StatusTip == "" {
				a.StatusTip = a.Shortcut
			}
		}
		bound++
	}
	return bound
}

// BindShortcuts creates a hidden action per entry and binds its keys.
// Entries whose keys are all taken are dropped.
func (c *Compiler) BindShortcuts(entries []ShortcutEntry, plugin string) []*Action {
	var out []*Action
	for _, e := range entries {
		a := NewAction("", command.Invocation{
			Command: e.Command.Command,
			Args:    e.Command.Args,
			Kwargs:  e.Command.Kwargs,
		})
		a.Plugin = plugin
		if c.dispatch != nil {
			a.OnTrigger(c.dispatch)
		}
		if c.bind(a, e.Keys, e.Command.Command) == 0 {
			continue
		}
		c.logger.Info("Shortcut '%v' for function '%s' registered.", []string(e.Keys), e.Command.Command)
		c.hidden = append(c.hidden, a)
		out = append(out, a)
	}
	return out
}

// Hidden returns the actions created for shortcut manifests.
func (c *Compiler) Hidden() []*Action {
	out := make([]*Action, len(c.hidden))
	copy(out, c.hidden)
	return out
}

// Reset forgets hidden actions.
func (c *Compiler) Reset() {
	c.hidden = nil
}

func (c *Compiler) translate(scope, caption string) string {
	if caption == "" {
		caption = "Unnamed"
	}
	if c.translator == nil {
		return caption
	}
	return c.translator.Translate(scope, caption)
}
