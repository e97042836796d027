// Package config provides configuration loading for the buildnum application.
// Settings come from an optional .buildnum.yaml at the repository root,
// overridden by BUILDNUM_* environment variables, with built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MyCarrier-DevOps/buildnum/internal/domain"
)

// Configuration keys.
const (
	KeyRemote          = "remote"
	KeyBuildFile       = "build_file"
	KeyMinBuildNumber  = "min_build_number"
	KeyMinGap          = "min_gap"
	KeyBaseBranches    = "base_branches"
	KeyWorkflowFiles   = "workflow_files"
	KeyGitTimeout      = "git_timeout"
	KeyReleaseEndpoint = "release_endpoint"
	KeyLogLevel        = "log_level"
	KeyLogAppName      = "log_app_name"
)

// Default values.
const (
	DefaultRemote          = "origin"
	DefaultBuildFile       = ".build-number"
	DefaultGitTimeout      = 30 * time.Second
	DefaultReleaseEndpoint = "https://api.github.com/repos/MyCarrier-DevOps/buildnum/releases"
	DefaultLogLevel        = "info"
	DefaultLogAppName      = "buildnum"
)

// DefaultBaseBranches is the ordered canonical base-branch list used as
// fallback anchors in origin detection. Earlier entries win ties.
var DefaultBaseBranches = []string{"develop", "main", "master"}

// DefaultWorkflowFiles are the two CI workflow files kept in sync.
var DefaultWorkflowFiles = []string{
	".github/workflows/build.yml",
	".github/workflows/release.yml",
}

// ConfigFileName is the optional per-repository configuration file.
const ConfigFileName = ".buildnum.yaml"

// Configuration errors.
var (
	// ErrInvalidConfig indicates a present but unreadable configuration file.
	ErrInvalidConfig = errors.New("invalid configuration file")

	// ErrInvalidThreshold indicates a nonsensical numeric setting.
	ErrInvalidThreshold = errors.New("invalid numeric configuration value")
)

// Config holds all application configuration.
type Config struct {
	// Remote is the git remote scanned for build numbers.
	Remote string

	// BuildFile is the repository-relative path of the build-number file.
	BuildFile string

	// MinBuildNumber is the threshold below which recorded values are ignored.
	MinBuildNumber int

	// MinGap is the minimum headroom for gap suggestions.
	MinGap int

	// BaseBranches is the ordered canonical base-branch list.
	BaseBranches []string

	// WorkflowFiles are the workflow files the patcher maintains.
	WorkflowFiles []string

	// GitTimeout bounds each external git invocation.
	GitTimeout time.Duration

	// ReleaseEndpoint is the REST endpoint queried by self-update.
	ReleaseEndpoint string

	// LogLevel is the logging level (debug, info, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string
}

// Load loads configuration for the repository rooted at root.
func Load(root string) (*Config, error) {
	return load(viper.New(), root)
}

// load is the viper-backed implementation, split out so tests can provide a
// pre-seeded viper instance.
func load(v *viper.Viper, root string) (*Config, error) {
	v.SetDefault(KeyRemote, DefaultRemote)
	v.SetDefault(KeyBuildFile, DefaultBuildFile)
	v.SetDefault(KeyMinBuildNumber, domain.DefaultMinBuildNumber)
	v.SetDefault(KeyMinGap, domain.DefaultMinGap)
	v.SetDefault(KeyBaseBranches, DefaultBaseBranches)
	v.SetDefault(KeyWorkflowFiles, DefaultWorkflowFiles)
	v.SetDefault(KeyGitTimeout, DefaultGitTimeout)
	v.SetDefault(KeyReleaseEndpoint, DefaultReleaseEndpoint)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogAppName, DefaultLogAppName)

	v.SetEnvPrefix("BUILDNUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if root != "" {
		v.SetConfigFile(filepath.Join(root, ConfigFileName))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
		}
	}

	cfg := &Config{
		Remote:          v.GetString(KeyRemote),
		BuildFile:       v.GetString(KeyBuildFile),
		MinBuildNumber:  v.GetInt(KeyMinBuildNumber),
		MinGap:          v.GetInt(KeyMinGap),
		BaseBranches:    v.GetStringSlice(KeyBaseBranches),
		WorkflowFiles:   v.GetStringSlice(KeyWorkflowFiles),
		GitTimeout:      v.GetDuration(KeyGitTimeout),
		ReleaseEndpoint: v.GetString(KeyReleaseEndpoint),
		LogLevel:        v.GetString(KeyLogLevel),
		LogAppName:      v.GetString(KeyLogAppName),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects settings the core algorithms cannot work with.
func (c *Config) validate() error {
	if c.MinBuildNumber < 0 {
		return fmt.Errorf("%w: min_build_number must be >= 0, got %d", ErrInvalidThreshold, c.MinBuildNumber)
	}
	if c.MinGap < 1 {
		return fmt.Errorf("%w: min_gap must be >= 1, got %d", ErrInvalidThreshold, c.MinGap)
	}
	if len(c.BaseBranches) == 0 {
		return fmt.Errorf("%w: base_branches must not be empty", ErrInvalidThreshold)
	}
	if c.GitTimeout <= 0 {
		return fmt.Errorf("%w: git_timeout must be positive, got %s", ErrInvalidThreshold, c.GitTimeout)
	}
	return nil
}
