// Package config assembles the wrapper configuration from command-line flags,
// GitHub Actions inputs and an optional Lua file.
//
// # Precedence
//
// Values are merged field by field: a flag wins over the matching INPUT_*
// variable, which wins over the Lua file, which wins over the defaults.
// Merge only fills fields that are still empty.
//
// # Lua file
//
// The file declares a global "action" table:
//
//	action = {
//	  version = "^2.0.0",
//	  args = "--org acme",
//	  config = [[
//	    repos: all
//	  ]],
//	  verify = platform.is_linux and "required" or "auto",
//	  download_retries = 1,
//	  platform = { os_family = "Linux", arch = "x64" },
//	  sigstore = { identity = "^https://github.com/acme/" },
//	}
//
// The read-only platform table (see the platform package) is available, so a
// single file can serve runners of different operating systems.
//
// # Sandbox
//
// The file runs in a restricted VM: os, io, debug, module loading and
// metatable manipulation are removed. String, table and math remain. Execution
// is bounded by the caller's context and the file size by MaxConfigSize.
//
// The access token is never read from the file; it comes from the flag or
// the github-access-token input only. Files that look like they contain a
// token produce a warning.
package config
