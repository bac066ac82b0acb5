package config

import (
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/git"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// DefaultConfigFileNames are tried, in order, by FindConfigFile.
var DefaultConfigFileNames = []string{"gitconverge.yml", "gitconverge.yaml", ".gitconverge.yml"}

// CreateDefaultConfiguration returns a Config with all default values
// populated.
func CreateDefaultConfiguration() *Config {
	return &Config{
		Git: GitConfig{
			Backend:    string(git.BackendLibrary),
			Executable: git.DefaultGitExecutable,
		},
	}
}

// ApplyDefaults fills the fields cfg left empty.
func ApplyDefaults(cfg *Config) {
	defaults := CreateDefaultConfiguration()
	cfg.Git.Backend = coalesce(cfg.Git.Backend, defaults.Git.Backend)
	cfg.Git.Executable = coalesce(cfg.Git.Executable, defaults.Git.Executable)

	for i := range cfg.Issues {
		f := &cfg.Issues[i].Filter
		if f.CustomQuery == "" && f.MilestoneExpression == "" {
			f.MilestoneExpression = reconcile.DefaultMilestoneExpression
		}
		for j := range cfg.Issues[i].Transitions {
			t := &cfg.Issues[i].Transitions[j]
			t.To = coalesce(t.To, reconcile.StatusClosed)
		}
	}
}
