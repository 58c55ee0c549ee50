package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configDir  = ".recallo"
	configName = "config"
	configType = "toml"
	envPrefix  = "RECALLO"

	KeyBackend        = "backend"
	KeyBaseURL        = "api.base_url"
	KeyRequestTimeout = "api.request_timeout"
	KeyAskTimeout     = "ask.timeout"
	KeyMaxUploadBytes = "upload.max_bytes"
	KeyAllowedTypes   = "upload.allowed_types"
	KeyStoragePath    = "storage.path"
	KeyProfilePath    = "profile.path"
	KeySecretsPath    = "secrets.path"
	KeyMarkdown       = "render.markdown"
	KeyLogDebug       = "log.debug"
	KeyLogPath        = "log.path"
)

type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Backend Backend
	API     APIConfig
	Ask     AskConfig
	Upload  UploadConfig
	Storage StorageConfig
	Render  RenderConfig
	Log     LogConfig
	// File is the config file that was read, empty when none exists.
	File string
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type AskConfig struct {
	Timeout time.Duration
}

type UploadConfig struct {
	MaxBytes     int64
	AllowedTypes []string
}

type StorageConfig struct {
	DatabasePath string
	ProfilePath  string
	SecretsPath  string
}

type RenderConfig struct {
	Markdown bool
}

type LogConfig struct {
	Debug bool
	Path  string
}

// Load reads ~/.recallo/config.toml and RECALLO_* environment overrides into
// v and returns the validated result. A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	base := filepath.Join(homeDir, configDir)

	setDefaults(v, base)
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(base)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Backend: Backend(strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend)))),
		API: APIConfig{
			BaseURL:        strings.TrimSpace(v.GetString(KeyBaseURL)),
			RequestTimeout: v.GetDuration(KeyRequestTimeout),
		},
		Ask: AskConfig{Timeout: v.GetDuration(KeyAskTimeout)},
		Upload: UploadConfig{
			MaxBytes:     v.GetInt64(KeyMaxUploadBytes),
			AllowedTypes: splitList(v.GetStringSlice(KeyAllowedTypes)),
		},
		Storage: StorageConfig{
			DatabasePath: expandHome(v.GetString(KeyStoragePath), homeDir),
			ProfilePath:  expandHome(v.GetString(KeyProfilePath), homeDir),
			SecretsPath:  expandHome(v.GetString(KeySecretsPath), homeDir),
		},
		Render: RenderConfig{Markdown: v.GetBool(KeyMarkdown)},
		Log: LogConfig{
			Debug: v.GetBool(KeyLogDebug),
			Path:  expandHome(v.GetString(KeyLogPath), homeDir),
		},
		File: v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string

	switch c.Backend {
	case BackendRemote:
		if c.API.BaseURL == "" {
			problems = append(problems, KeyBaseURL+" is empty")
		}
	case BackendLocal:
		if c.Storage.DatabasePath == "" {
			problems = append(problems, KeyStoragePath+" is empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("%s %q is not one of remote, local", KeyBackend, c.Backend))
	}
	if c.API.RequestTimeout <= 0 {
		problems = append(problems, KeyRequestTimeout+" must be positive")
	}
	if c.Ask.Timeout <= 0 {
		problems = append(problems, KeyAskTimeout+" must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		problems = append(problems, KeyMaxUploadBytes+" must be positive")
	}
	if len(c.Upload.AllowedTypes) == 0 {
		problems = append(problems, KeyAllowedTypes+" is empty")
	}
	if c.Storage.ProfilePath == "" {
		problems = append(problems, KeyProfilePath+" is empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func setDefaults(v *viper.Viper, base string) {
	v.SetDefault(KeyBackend, string(BackendRemote))
	v.SetDefault(KeyBaseURL, "http://127.0.0.1:5000")
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyAskTimeout, 60*time.Second)
	v.SetDefault(KeyMaxUploadBytes, int64(5*1024*1024))
	v.SetDefault(KeyAllowedTypes, []string{"pdf", "doc", "docx", "txt"})
	v.SetDefault(KeyStoragePath, filepath.Join(base, "recallo.db"))
	v.SetDefault(KeyProfilePath, filepath.Join(base, "profile.toml"))
	v.SetDefault(KeySecretsPath, filepath.Join(base, "secrets"))
	v.SetDefault(KeyMarkdown, true)
	v.SetDefault(KeyLogDebug, false)
	v.SetDefault(KeyLogPath, filepath.Join(base, "logs", "recallo.log"))
}

// splitList accepts both TOML arrays and comma separated environment values.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func expandHome(path string, homeDir string) string {
	path = strings.TrimSpace(path)
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
