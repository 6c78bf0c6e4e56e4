// Package api builds the "vt" Lua module plugins use to reach the host.
//
// Every plugin state gets its own Facade. The facade preloads two modules:
//
//   - "vt": logging, persisted and scratch state, the active window and its
//     views, command dispatch, and the command class constructors.
//   - "vt.app": the host application object. The plugin loader denies this
//     module while a plugin's top-level code runs.
//
// A plugin declares commands as global tables built by the constructors:
//
//	local vt = require("vt")
//
//	UpperCaseCommand = vt.TextCommand()
//
//	function UpperCaseCommand:run(args, kwargs)
//	    self.view:set_text(self.view:text():upper())
//	end
//
// The global name is the command name. Classes returns every such table as a
// command.Class; each invocation constructs a fresh instance carrying api,
// and view or window depending on the kind.
package api
