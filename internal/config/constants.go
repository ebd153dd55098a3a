package config

// Lua schema field names and globals
const (
	luaGlobalAction           = "action"
	luaFieldVersion           = "version"
	luaFieldConfig            = "config"
	luaFieldArgs              = "args"
	luaFieldWorkDir           = "work_dir"
	luaFieldVerify            = "verify"
	luaFieldGPGKeyFile        = "gpg_key_file"
	luaFieldSummaryFile       = "summary_file"
	luaFieldLogLevel          = "log_level"
	luaFieldAPIURL            = "api_url"
	luaFieldDownloadRetries   = "download_retries"
	luaFieldPlatform          = "platform"
	luaFieldOSFamily          = "os_family"
	luaFieldArch              = "arch"
	luaFieldSigstore          = "sigstore"
	luaFieldTrustedRoot       = "trusted_root"
	luaFieldIssuer            = "issuer"
	luaFieldIdentity          = "identity"
	luaFieldAccessToken       = "github_access_token"
	luaFieldAccessTokenHyphen = "github-access-token"
)

// Resource limits
const (
	// MaxConfigSize bounds the Lua file size in bytes.
	MaxConfigSize = 1 << 20
	// MaxDownloadRetries bounds download_retries.
	MaxDownloadRetries = 10
)

// Defaults
const (
	// DefaultVersion matches every release, like an empty constraint did.
	DefaultVersion = "*"
	// DefaultWorkDir is where the asset is downloaded and run.
	DefaultWorkDir = "."
	// DefaultVerify is the verification policy.
	DefaultVerify = "auto"
	// DefaultLogLevel is the log level.
	DefaultLogLevel = "info"
)
