package config

import (
	"context"

	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM configures a Lua VM to run in a restricted sandbox.
// This disables functions that could:
// - Execute system commands (os.execute, os.exit)
// - Access the filesystem (io.open, io.popen)
// - Load external code (require, dofile, loadfile)
// - Bypass the read-only platform table (setmetatable, rawset)
//
// string, table and math are preserved.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range []string{
		"os", "io", "debug",
		"require", "module", "package",
		"dofile", "loadfile", "load", "loadstring",
		"getmetatable", "setmetatable", "rawget", "rawset", "rawequal",
		"getfenv", "setfenv", "collectgarbage", "newproxy",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a new Lua VM with sandboxing applied and execution
// bound to ctx.
func newSandboxedVM(ctx context.Context) *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: 256,
		RegistrySize:  1024 * 8,
	})
	sandboxLuaVM(L)
	if ctx != nil {
		L.SetContext(ctx)
	}
	return L
}
