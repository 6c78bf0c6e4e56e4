// Package plugin discovers, loads and installs VarTexter plugins.
//
// A plugin is a directory below the plugins root holding a manifest:
//
//	Plugins/
//	└── Alpha/
//	    ├── config.json      # manifest
//	    ├── main.lua         # entry file
//	    ├── menu.json        # menu manifest
//	    ├── sc.json          # shortcut manifest
//	    ├── locale/ru.json   # menu caption catalogs
//	    └── lib/util.lua     # require("lib.util")
//
// # Manifest
//
// The first of config.json, config.vt-conf, config.yaml, config.yml and
// config.toml found is used:
//
//	{
//	  "name": "Alpha",
//	  "version": "1.2",
//	  "main": "main.lua",
//	  "menu": "menu.json",
//	  "sc": "sc.json",
//	  "requirements": ["https://github.com/user/Dep"]
//	}
//
// # Loading
//
// Loader runs an entry file in its own sandboxed Lua state with the vt
// module preloaded. While the file's top-level code and its initAPI run,
// require of vt.app is refused. Command classes the file defines as globals
// are registered under their global names:
//
//	local vt = require("vt")
//
//	Upper = vt.TextCommand()
//	function Upper:run(args, kwargs)
//	    self.view:set_text(self.view:text():upper())
//	end
//
// Scanner walks the root, loading the bootstrap plugin first, then compiles
// each plugin's menu and shortcut manifests. A failing plugin is logged and
// recorded in the Report; the scan continues.
//
// # Packages
//
// Installer fetches a package archive (a GitHub repository's master
// zipball by default), moves it into the plugins root and installs the URLs
// listed in its requirement.vt-plugins file. Watcher reports file changes
// below the root so the host can reload.
package plugin
