package ghaction

import "strings"

// Input names declared by the action.
const (
	InputVersion     = "version"
	InputAccessToken = "github-access-token"
	InputConfig      = "config"
	InputArgs        = "args"
)

// Getenv looks up an environment variable; os.Getenv satisfies it.
type Getenv func(key string) string

// InputEnvName returns the variable the runner sets for input name.
// Spaces become underscores and the name is upper-cased; hyphens are kept.
func InputEnvName(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// Input returns the trimmed value of input name, or "" when it is unset.
func Input(getenv Getenv, name string) string {
	if getenv == nil {
		return ""
	}
	return strings.TrimSpace(getenv(InputEnvName(name)))
}

// Running reports whether the process runs inside a GitHub Actions job.
func Running(getenv Getenv) bool {
	return getenv != nil && getenv("GITHUB_ACTIONS") == "true"
}
