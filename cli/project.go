package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/golens/config"
	"github.com/yoanbernabeu/golens/project"
)

var addIgnoreModules []string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage the registered project list",
	Long: `Manage the list of projects golens serves.

The list is persisted in ` + "`~/.golens/config.yaml`" + ` and loaded when the
server starts. Changing it does not affect a running server.`,
}

var projectAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Register a project directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

var projectRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Unregister a project directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectRemove,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE:  runProjectList,
}

func init() {
	projectAddCmd.Flags().StringSliceVar(&addIgnoreModules, "ignore-module", nil, "Dependency module path to exclude from docs indexing (repeatable)")
	projectCmd.AddCommand(projectAddCmd, projectRemoveCmd, projectListCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	proj, err := project.New(args[0])
	if err != nil {
		return err
	}

	path := config.DefaultPath()
	entries := config.Load(path)
	for _, entry := range entries {
		if entry.Root == proj.Root {
			return fmt.Errorf("project already registered: %s", proj.Root)
		}
	}
	entries = append(entries, config.ProjectEntry{Root: proj.Root, IgnoreModules: addIgnoreModules})
	if err := config.Save(path, entries); err != nil {
		return err
	}
	fmt.Printf("Added %s\n", proj.Root)
	return nil
}

func runProjectRemove(cmd *cobra.Command, args []string) error {
	// Canonicalize when the directory still exists, so the same spelling
	// that added it removes it; fall back to the raw argument for roots
	// that are already gone.
	target := args[0]
	if proj, err := project.New(target); err == nil {
		target = proj.Root
	}

	path := config.DefaultPath()
	entries := config.Load(path)
	kept := entries[:0]
	removed := false
	for _, entry := range entries {
		if entry.Root == target {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return fmt.Errorf("project not registered: %s", target)
	}
	if err := config.Save(path, kept); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", target)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	entries := config.Load(path)
	if len(entries) == 0 {
		fmt.Println("No projects registered.")
		fmt.Printf("Config: %s\n", path)
		return nil
	}
	for _, entry := range entries {
		line := entry.Root
		if len(entry.IgnoreModules) > 0 {
			line += " (ignoring " + strings.Join(entry.IgnoreModules, ", ") + ")"
		}
		fmt.Println(line)
	}
	return nil
}
