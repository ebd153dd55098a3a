package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/catalog"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/platform"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/testutil"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/version"
)

const scannerScript = `#!/bin/sh
echo "token=$GITHUB_ACCESS_TOKEN config=$DSO_GITHUB_SCANNER_CONFIG args=$*"
echo "finding: public repo" >&2
exit 3
`

// useStaticDetector replaces host detection for the duration of the test.
func useStaticDetector(t *testing.T) {
	t.Helper()

	orig := newDetector
	newDetector = func() platform.Detector {
		return platform.StaticDetector{Info: &platform.Info{OS: "linux", Arch: "amd64", Platform: "ubuntu", Family: "debian"}}
	}
	t.Cleanup(func() { newDetector = orig })
}

// releaseServer serves a release catalog and the scanner asset for tag 1.2.0.
func releaseServer(t *testing.T, wantToken string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	releasesPath := "/repos/" + catalog.DefaultOwner + "/" + catalog.DefaultRepo + "/releases"
	mux.HandleFunc(releasesPath, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+wantToken {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}

		asset := func(tag string) map[string]any {
			name := "scan-github_" + tag + "_Linux_x64"
			return map[string]any{
				"name":                 name,
				"browser_download_url": server.URL + "/download/" + name,
				"size":                 len(scannerScript),
			}
		}
		body := []map[string]any{
			{"tag_name": "1.0.0", "name": "v1.0.0", "assets": []any{asset("1.0.0")}},
			{"tag_name": "1.2.0", "name": "v1.2.0", "assets": []any{asset("1.2.0")}},
			{"tag_name": "2.0.0", "name": "v2.0.0", "draft": true, "assets": []any{asset("2.0.0")}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(scannerScript))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunMain_Version(t *testing.T) {
	testutil.SetupTestEnv(t)

	var stdout, stderr bytes.Buffer
	code := -1
	runMain([]string{"scan-github-action", "version"}, &stdout, &stderr, func(c int) { code = c })

	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), version.Full())
}

func TestExecute_RunsScanner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on Windows")
	}

	env := testutil.SetupTestEnv(t)
	useStaticDetector(t)
	server := releaseServer(t, "tok")

	testutil.SetInputs(t, map[string]string{
		"version":             "^1.0.0",
		"github-access-token": "tok",
		"config":              "repos: all",
		"args":                "--org acme",
	})

	summary := filepath.Join(env.Dir, "summary.yaml")
	var stdout, stderr bytes.Buffer
	code := execute([]string{
		"scan-github-action",
		"--api-url", server.URL,
		"--os-family", "Linux",
		"--arch", "x64",
		"--work-dir", env.WorkDir,
		"--verify", "none",
		"--summary-file", summary,
	}, &stdout, &stderr, os.Getenv)

	require.Equal(t, 3, code, stderr.String())
	require.Equal(t,
		"Using release v1.2.0\ntoken=tok config=repos: all args=--org acme\n\n",
		stdout.String())
	require.Equal(t, "finding: public repo\n\n", stderr.String())

	info, err := os.Stat(filepath.Join(env.WorkDir, "scan-github_1.2.0_Linux_x64"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o100)

	outputs, err := os.ReadFile(env.OutputFile)
	require.NoError(t, err)
	require.Contains(t, string(outputs), "exit-code<<ghadelimiter_")
	require.Contains(t, string(outputs), "\nfinding: public repo\n")

	_, err = os.Stat(summary)
	require.NoError(t, err)
}

func TestExecute_NoMatchingRelease(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	useStaticDetector(t)
	server := releaseServer(t, "tok")

	var stdout, stderr bytes.Buffer
	code := execute([]string{
		"scan-github-action",
		"--api-url", server.URL,
		"--github-access-token", "tok",
		"--version", "^5.0.0",
		"--work-dir", env.WorkDir,
	}, &stdout, &stderr, os.Getenv)

	require.Equal(t, 1, code)
	require.True(t, strings.HasPrefix(stderr.String(), "Error downloading release: "), stderr.String())
	require.Contains(t, stderr.String(), `"^5.0.0"`)

	_, err := os.Stat(env.OutputFile)
	require.True(t, os.IsNotExist(err))
}

func TestExecute_CatalogUnauthorized(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	useStaticDetector(t)
	server := releaseServer(t, "right")

	var stdout, stderr bytes.Buffer
	code := execute([]string{
		"scan-github-action",
		"--api-url", server.URL,
		"--github-access-token", "wrong-token",
		"--work-dir", env.WorkDir,
	}, &stdout, &stderr, os.Getenv)

	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "Error downloading release: ")
	require.NotContains(t, stderr.String(), "wrong-token")
}

func TestExecute_InvalidSettings(t *testing.T) {
	testutil.SetupTestEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "unknown policy",
			args: []string{"--verify", "maybe"},
			want: "config validation failed for verify",
		},
		{
			name: "bad constraint",
			args: []string{"--version", "newest"},
			want: "config validation failed for version",
		},
		{
			name: "unknown flag",
			args: []string{"--nope"},
			want: "unknown flag",
		},
		{
			name: "missing config file",
			args: []string{"--config-file", "/does/not/exist.lua"},
			want: "read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := execute(append([]string{"scan-github-action"}, tt.args...), &stdout, &stderr, os.Getenv)

			require.Equal(t, 1, code)
			require.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestExecute_InvalidRetriesInput(t *testing.T) {
	testutil.SetupTestEnv(t)
	testutil.SetInputs(t, map[string]string{"download-retries": "lots"})

	var stdout, stderr bytes.Buffer
	code := execute([]string{"scan-github-action"}, &stdout, &stderr, os.Getenv)

	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "download_retries")
}

func TestConfigCommand_Precedence(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	useStaticDetector(t)

	path := filepath.Join(env.Dir, "action.lua")
	lua := `
		action = {
			version = "^1.0.0",
			args = "--from-file",
			verify = platform.is_linux and "required" or "auto",
			download_retries = 4,
		}
	`
	require.NoError(t, os.WriteFile(path, []byte(lua), 0o600))

	testutil.SetInputs(t, map[string]string{
		"config-file":         path,
		"github-access-token": "ghp_secret",
		"work-dir":            "/from/input",
	})

	var stdout, stderr bytes.Buffer
	code := execute([]string{
		"scan-github-action", "config",
		"--version", "^3.0.0",
		"--download-retries", "0",
	}, &stdout, &stderr, os.Getenv)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	require.Contains(t, out, `version = "^3.0.0",`)
	require.Contains(t, out, `args = "--from-file",`)
	require.Contains(t, out, `work_dir = "/from/input",`)
	require.Contains(t, out, `verify = "required",`)
	require.Contains(t, out, `download_retries = 0,`)
	require.Contains(t, out, `log_level = "info",`)
	require.NotContains(t, out, "ghp_secret")
}

func TestExecute_StepOutputsDestination(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on Windows")
	}

	tests := []struct {
		name        string
		outputFile  bool
		actions     string
		wantFile    bool
		wantCommand bool
	}{
		{name: "output file", outputFile: true, wantFile: true},
		{name: "workflow command", actions: "true", wantCommand: true},
		{name: "outside a workflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.SetupTestEnv(t)
			useStaticDetector(t)
			server := releaseServer(t, "tok")

			if !tt.outputFile {
				t.Setenv("GITHUB_OUTPUT", "")
			}
			t.Setenv("GITHUB_ACTIONS", tt.actions)

			var stdout, stderr bytes.Buffer
			code := execute([]string{
				"scan-github-action",
				"--api-url", server.URL,
				"--github-access-token", "tok",
				"--os-family", "Linux",
				"--arch", "x64",
				"--work-dir", env.WorkDir,
				"--verify", "none",
			}, &stdout, &stderr, os.Getenv)
			require.Equal(t, 3, code, stderr.String())

			_, err := os.Stat(env.OutputFile)
			require.Equal(t, tt.wantFile, err == nil)
			require.Equal(t, tt.wantCommand, strings.Contains(stdout.String(), "::set-output name=exit-code::3"), stdout.String())
		})
	}
}
