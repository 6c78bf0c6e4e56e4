// Package menu holds the window's UI tree and compiles declarative menu
// manifests into it.
//
// A tree is made of Menus, Actions and Separators. Actions are the trigger
// handles users activate; each carries the invocation it dispatches and a
// checkable/checked flag pair mirrored from persisted state.
//
// The Compiler walks manifest nodes in declaration order, merging submenus
// that share an id, binding shortcuts through a shortcut.Table, and
// registering each leaf's command with the command registry.
package menu
