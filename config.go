package ember

import (
	"runtime"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
)

// Config holds the settings the config collaborator recognizes: the
// listening port, the worker pool size, log routing, and the optional
// TLS certificate/key pair gating the TLS adapter.
type Config struct {
	ServerPort  int
	NumThreads  int
	LogLevel    string
	LogFile     string
	TLSCertFile string
	TLSKeyFile  string

	// ConfigPath, if set, names the key=value file LogLevel was loaded
	// from. NewServer watches it for writes and hot-reloads
	// the running Logger's level; leave empty to skip watching.
	ConfigPath string
}

// defaultConfig returns the Config used when no file-supplied value
// overrides a field.
func defaultConfig() Config {
	return Config{
		ServerPort: 8000,
		NumThreads: runtime.NumCPU(),
		LogLevel:   "info",
	}
}

// LoadKeyValueConfig loads a plain "key = value" file (no quoting, no
// sections) from path. Recognized keys are server_port, num_threads,
// log_level and log_file; any other key is returned in the second value
// so the caller can log-and-ignore it rather than fail outright.
func LoadKeyValueConfig(path string) (*Config, []string, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, nil, err
	}

	cfg := defaultConfig()
	section := f.Section("")

	var unknown []string
	for _, key := range section.Keys() {
		switch key.Name() {
		case "server_port":
			if n, err := key.Int(); err == nil {
				cfg.ServerPort = n
			}
		case "num_threads":
			if n, err := key.Int(); err == nil {
				cfg.NumThreads = n
			}
		case "log_level":
			cfg.LogLevel = key.String()
		case "log_file":
			cfg.LogFile = key.String()
		default:
			unknown = append(unknown, key.Name())
		}
	}

	return &cfg, unknown, nil
}

// tomlConfig mirrors Config's fields for TOML's struct-tag decoding.
type tomlConfig struct {
	ServerPort  int    `toml:"server_port"`
	NumThreads  int    `toml:"num_threads"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
	TLSCertFile string `toml:"tls_cert_file"`
	TLSKeyFile  string `toml:"tls_key_file"`
}

// LoadTOMLConfig loads the alternate TOML-format config file from path.
func LoadTOMLConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	var t tomlConfig
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, err
	}

	if t.ServerPort != 0 {
		cfg.ServerPort = t.ServerPort
	}
	if t.NumThreads != 0 {
		cfg.NumThreads = t.NumThreads
	}
	if t.LogLevel != "" {
		cfg.LogLevel = t.LogLevel
	}
	cfg.LogFile = t.LogFile
	cfg.TLSCertFile = t.TLSCertFile
	cfg.TLSKeyFile = t.TLSKeyFile

	return &cfg, nil
}
