// Package config provides centralized configuration management for the
// application. Values are layered: built-in defaults, then an optional JSON
// configuration file found by searching upward from the working directory,
// then environment variables for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub    GitHubConfig
	Linear    LinearConfig
	AI        AIConfig
	Git       GitConfig
	Workflows WorkflowsConfig
	Logging   LoggingConfig
	History   HistoryConfig
}

// GitHubConfig holds code-review host configuration.
type GitHubConfig struct {
	Token  string
	Domain string
}

// LinearConfig holds issue-tracker configuration.
type LinearConfig struct {
	APIKey string
	URL    string
}

// AIConfig holds AI-provider configuration.
type AIConfig struct {
	Provider   string
	Model      string
	APIKey     string
	URL        string
	MaxRetries int
	Fallback   bool
}

// GitConfig holds version-control behavior configuration.
type GitConfig struct {
	AutoPush            bool
	DefaultBranch       string
	ConventionalCommits bool
}

// WorkflowsConfig holds per-workflow configuration.
type WorkflowsConfig struct {
	CodeReview   CodeReviewConfig
	IssueTracker IssueTrackerConfig
	Commit       CommitConfig
}

// CodeReviewConfig configures the code-review workflow.
type CodeReviewConfig struct {
	Enabled             bool
	CreateDraft         bool
	AutoAssignReviewers bool
}

// IssueTrackerConfig configures the issue-tracker workflow.
type IssueTrackerConfig struct {
	Enabled                      bool
	AutoTransition               bool
	AddComments                  bool
	TrackTime                    bool
	DetectScopeChanges           bool
	NotifyOnScopeChange          bool
	AutoCreateSubTickets         bool
	SubTicketComplexityThreshold float64
	SubTicketFileCountThreshold  int
}

// CommitConfig configures the commit workflow.
type CommitConfig struct {
	Enabled             bool
	ConventionalCommits bool
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level   string
	File    bool
	Console bool
}

// HistoryConfig configures execution-history persistence.
type HistoryConfig struct {
	Enabled    bool
	MaxEntries int
}

// configFileNames are probed in order at each directory while searching
// upward for a configuration file.
var configFileNames = []string{"codescribe.json", ".codescriberc.json"}

// LoadConfig initializes and loads configuration from defaults, an optional
// configuration file, and environment variables.
func LoadConfig() (*Config, error) {
	return loadFrom(".")
}

func loadFrom(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variables take the CODESCRIBE_ prefix for general
	// options; credentials keep their conventional names.
	v.SetEnvPrefix("CODESCRIBE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("linear.api-key", "LINEAR_API_KEY")
	v.BindEnv("ai.api-key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if path := findConfigFile(dir); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v), nil
}

// findConfigFile searches upward from dir for the first recognized
// configuration file, stopping at the filesystem root.
func findConfigFile(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(abs, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return ""
		}
		abs = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.domain", "github.com")

	v.SetDefault("workflows.code-review.enabled", true)
	v.SetDefault("workflows.code-review.create-draft", true)
	v.SetDefault("workflows.code-review.auto-assign-reviewers", false)

	v.SetDefault("workflows.issue-tracker.enabled", true)
	v.SetDefault("workflows.issue-tracker.auto-transition", true)
	v.SetDefault("workflows.issue-tracker.add-comments", true)
	v.SetDefault("workflows.issue-tracker.track-time", false)
	v.SetDefault("workflows.issue-tracker.detect-scope-changes", true)
	v.SetDefault("workflows.issue-tracker.notify-on-scope-change", true)
	v.SetDefault("workflows.issue-tracker.auto-create-sub-tickets", false)
	v.SetDefault("workflows.issue-tracker.sub-ticket-complexity-threshold", 15.0)
	v.SetDefault("workflows.issue-tracker.sub-ticket-file-count-threshold", 8)

	v.SetDefault("workflows.commit.enabled", true)
	v.SetDefault("workflows.commit.conventional-commits", true)

	v.SetDefault("ai.provider", "default")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("ai.max-retries", 3)
	v.SetDefault("ai.fallback", true)

	v.SetDefault("git.auto-push", true)
	v.SetDefault("git.default-branch", "main")
	v.SetDefault("git.conventional-commits", true)

	v.SetDefault("linear.url", "https://api.linear.app/graphql")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.console", true)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max-entries", 50)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
		},
		Linear: LinearConfig{
			APIKey: v.GetString("linear.api-key"),
			URL:    v.GetString("linear.url"),
		},
		AI: AIConfig{
			Provider:   v.GetString("ai.provider"),
			Model:      v.GetString("ai.model"),
			APIKey:     v.GetString("ai.api-key"),
			URL:        v.GetString("ai.url"),
			MaxRetries: v.GetInt("ai.max-retries"),
			Fallback:   v.GetBool("ai.fallback"),
		},
		Git: GitConfig{
			AutoPush:            v.GetBool("git.auto-push"),
			DefaultBranch:       v.GetString("git.default-branch"),
			ConventionalCommits: v.GetBool("git.conventional-commits"),
		},
		Workflows: WorkflowsConfig{
			CodeReview: CodeReviewConfig{
				Enabled:             v.GetBool("workflows.code-review.enabled"),
				CreateDraft:         v.GetBool("workflows.code-review.create-draft"),
				AutoAssignReviewers: v.GetBool("workflows.code-review.auto-assign-reviewers"),
			},
			IssueTracker: IssueTrackerConfig{
				Enabled:                      v.GetBool("workflows.issue-tracker.enabled"),
				AutoTransition:               v.GetBool("workflows.issue-tracker.auto-transition"),
				AddComments:                  v.GetBool("workflows.issue-tracker.add-comments"),
				TrackTime:                    v.GetBool("workflows.issue-tracker.track-time"),
				DetectScopeChanges:           v.GetBool("workflows.issue-tracker.detect-scope-changes"),
				NotifyOnScopeChange:          v.GetBool("workflows.issue-tracker.notify-on-scope-change"),
				AutoCreateSubTickets:         v.GetBool("workflows.issue-tracker.auto-create-sub-tickets"),
				SubTicketComplexityThreshold: v.GetFloat64("workflows.issue-tracker.sub-ticket-complexity-threshold"),
				SubTicketFileCountThreshold:  v.GetInt("workflows.issue-tracker.sub-ticket-file-count-threshold"),
			},
			Commit: CommitConfig{
				Enabled:             v.GetBool("workflows.commit.enabled"),
				ConventionalCommits: v.GetBool("workflows.commit.conventional-commits"),
			},
		},
		Logging: LoggingConfig{
			Level:   v.GetString("logging.level"),
			File:    v.GetBool("logging.file"),
			Console: v.GetBool("logging.console"),
		},
		History: HistoryConfig{
			Enabled:    v.GetBool("history.enabled"),
			MaxEntries: v.GetInt("history.max-entries"),
		},
	}
}

// ValidateGitHubConfig ensures the code-review host credentials are present.
func ValidateGitHubConfig(config *Config) error {
	if config.GitHub.Token == "" {
		return fmt.Errorf("missing required environment variable: GITHUB_TOKEN")
	}
	return nil
}

// ValidateLinearConfig ensures the issue-tracker credentials are present.
func ValidateLinearConfig(config *Config) error {
	if config.Linear.APIKey == "" {
		return fmt.Errorf("missing required environment variable: LINEAR_API_KEY")
	}
	return nil
}
