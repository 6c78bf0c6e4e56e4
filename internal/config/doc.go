// Package config loads the host settings file.
//
// Settings are read from a TOML document:
//
//	app_name = "VT2"
//	packages_dir = "~/VarTexter/Packages"
//	locale = "auto"
//	bootstrap_plugin = "Basic"
//	blocked_imports = ["vt.app"]
//
//	[packages_dirs]
//	windows = "%APPDATA%/VarTexter/Packages"
//
// A missing file yields DefaultSettings. Directory settings expand "~" and
// environment variables, and Resolve derives the Plugins, Themes, Ui and cache
// directories below the packages directory.
package config
