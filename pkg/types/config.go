package types

import "errors"

// Config holds backend selection and collaborator parameters.
type Config struct {
	Backend      string `json:"backend" yaml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	Project      string `json:"project" yaml:"project"`
	ListenAddr   string `json:"listen_addr" yaml:"listen_addr"`
	GeminiAPIKey string `json:"gemini_api_key" yaml:"gemini_api_key"`
	GeminiModel  string `json:"gemini_model" yaml:"gemini_model"`
	DarkTheme    bool   `json:"dark_theme" yaml:"dark_theme"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendSnapshot = "snapshot"
)

// Defaults applied when config.yaml leaves a key unset.
const (
	DefaultProject     = "NEXUS-PROJECT-ALPHA"
	DefaultListenAddr  = ":8080"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrProjectEmpty   = errors.New("project must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendSnapshot: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Project == "" {
		return ErrProjectEmpty
	}
	return nil
}
