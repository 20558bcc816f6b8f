// Package config persists the registered project list as YAML at a
// well-known path under the user's home directory.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yoanbernabeu/golens/internal/fileutil"
)

const (
	ConfigDir      = ".golens"
	ConfigFileName = "config.yaml"
)

// ProjectEntry is one persisted project record. Roots are stored with
// forward slashes for cross-platform portability.
type ProjectEntry struct {
	Root          string   `yaml:"root"`
	IgnoreModules []string `yaml:"ignore_modules,omitempty"`
}

// File is the on-disk configuration shape.
type File struct {
	Version  int            `yaml:"version"`
	Projects []ProjectEntry `yaml:"projects"`
}

// DefaultPath returns ~/.golens/config.yaml, or a cwd-relative fallback
// when the home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(ConfigDir, ConfigFileName)
	}
	return filepath.Join(home, ConfigDir, ConfigFileName)
}

// Load reads the project list. A missing or malformed file is logged and
// treated as empty rather than fatal.
func Load(path string) []ProjectEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("config: failed to read %s: %v", path, err)
		}
		return nil
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		log.Printf("config: malformed file %s, treating as empty: %v", path, err)
		return nil
	}
	for i := range f.Projects {
		f.Projects[i].Root = filepath.FromSlash(f.Projects[i].Root)
	}
	return f.Projects
}

// Save writes the project list, creating parent directories as needed.
func Save(path string, projects []ProjectEntry) error {
	out := File{Version: 1, Projects: make([]ProjectEntry, len(projects))}
	for i, p := range projects {
		out.Projects[i] = ProjectEntry{
			Root:          filepath.ToSlash(p.Root),
			IgnoreModules: p.IgnoreModules,
		}
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := fileutil.EnsureParentDir(path); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := fileutil.WriteFileAtomically(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
