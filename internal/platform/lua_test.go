package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func evalLua(t *testing.T, L *lua.LState, code string) lua.LValue {
	t.Helper()

	require.NoError(t, L.DoString(code))
	got := L.Get(-1)
	L.Pop(1)

	return got
}

func TestInjectPlatformTable_Linux(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{
		OS:       "linux",
		Arch:     "amd64",
		Platform: "ubuntu",
		Family:   "debian",
		Version:  "22.04",
	}
	require.NoError(t, InjectPlatformTable(L, info))

	tests := []struct {
		name string
		code string
		want lua.LValue
	}{
		{"os", `return platform.os`, lua.LString("linux")},
		{"arch", `return platform.arch`, lua.LString("amd64")},
		{"os_family", `return platform.os_family`, lua.LString("Linux")},
		{"publisher_arch", `return platform.publisher_arch`, lua.LString("x64")},
		{"is_linux", `return platform.is_linux`, lua.LTrue},
		{"is_windows", `return platform.is_windows`, lua.LFalse},
		{"is_amd64", `return platform.is_amd64`, lua.LTrue},
		{"distro.id", `return platform.distro.id`, lua.LString("ubuntu")},
		{"distro.family", `return platform.distro.family`, lua.LString("debian")},
		{"when true", `return platform.when(platform.is_linux, "yes")`, lua.LString("yes")},
		{"when false", `return platform.when(platform.is_windows, "yes")`, lua.LNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalLua(t, L, tt.code)
			require.Equal(t, tt.want.Type(), got.Type())
			require.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestInjectPlatformTable_Windows(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	require.NoError(t, InjectPlatformTable(L, &Info{OS: "windows", Arch: "amd64"}))

	require.Equal(t, lua.LString("Windows_NT"), evalLua(t, L, `return platform.os_family`))
	require.Equal(t, lua.LTrue, evalLua(t, L, `return platform.is_windows`))
	require.Equal(t, lua.LNil, evalLua(t, L, `return platform.distro`))
}

func TestPlatformTable_ReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	require.NoError(t, InjectPlatformTable(L, &Info{OS: "linux", Arch: "arm64"}))

	require.Error(t, L.DoString(`platform.os = "windows"`))
	require.Error(t, L.DoString(`platform.new_field = true`))
	require.Error(t, L.DoString(`setmetatable(platform, {})`))
	require.Equal(t, lua.LString("linux"), evalLua(t, L, `return platform.os`))
}

func TestPlatformTable_DistroReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	require.NoError(t, InjectPlatformTable(L, &Info{OS: "linux", Arch: "amd64", Platform: "ubuntu", Family: "debian"}))

	require.Error(t, L.DoString(`platform.distro.family = "rhel"`))
	require.Equal(t, lua.LString("debian"), evalLua(t, L, `return platform.distro.family`))
	require.Equal(t, lua.LString("protected"), evalLua(t, L, `return getmetatable(platform.distro)`))
}
