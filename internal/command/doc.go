// Package command implements the command registry and dispatcher.
//
// A command is a Class: a named constructor tagged with a Kind that decides
// which context the dispatcher hands it.
//
//	Text         API + the focused view
//	Window       API + the active window
//	Application  API only
//
// Registry maps names to Descriptors (class, default args/kwargs, trigger
// handle, checked-state path, owning plugin). Registering a name twice
// replaces the first descriptor entirely.
//
// Dispatcher resolves an Invocation to its descriptor, resynchronises the
// trigger's checked flag against persisted state, constructs one instance of
// the class and runs it. Every failure is logged and returned; nothing from a
// command escapes as a panic.
//
// Registry and Dispatcher are used from the window's control loop only and are
// not safe for concurrent use.
package command
