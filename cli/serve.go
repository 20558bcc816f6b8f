package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/golens/mcp"
	"github.com/yoanbernabeu/golens/registry"
)

var (
	serveSSE  bool
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the golens MCP server",
	Long: `Start the golens MCP server.

Every project in the configuration is registered at startup: a gopls
instance is spawned per project and documentation indexing runs in the
background. The server then exposes the golens tools over stdio, or
over HTTP server-sent events with --sse.

The event log (indexing progress, tool calls) goes to stderr, so the
stdio protocol stream stays clean.

Configuration for Claude Code:
  claude mcp add golens -- golens serve

Configuration for Cursor (.cursor/mcp.json):
  {
    "mcpServers": {
      "golens": {
        "command": "golens",
        "args": ["serve"]
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveSSE, "sse", false, "Serve over HTTP server-sent events instead of stdio")
	serveCmd.Flags().IntVar(&servePort, "port", 4000, "Port for --sse mode")
	rootCmd.AddCommand(serveCmd)
}

var (
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	projectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func runServe(cmd *cobra.Command, args []string) error {
	reg := registry.New()
	notifications := reg.Subscribe()
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		printNotifications(reg, notifications)
	}()

	if err := reg.LoadConfig(context.Background()); err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}
	if len(reg.Snapshots()) == 0 {
		fmt.Fprintln(os.Stderr, "no projects registered; add one with 'golens project add <path>'")
	}

	srv := mcp.NewServer(reg)
	serveErr := make(chan error, 1)
	if serveSSE {
		addr := fmt.Sprintf(":%d", servePort)
		fmt.Fprintf(os.Stderr, "golens: serving MCP over SSE on %s\n", addr)
		go func() { serveErr <- srv.ServeSSE(addr) }()
	} else {
		go func() { serveErr <- srv.Serve() }()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	var err error
	select {
	case err = <-serveErr:
	case sig := <-signals:
		fmt.Fprintf(os.Stderr, "golens: received %v, shutting down\n", sig)
	}

	if shutdownErr := reg.ShutdownAll(); shutdownErr != nil {
		fmt.Fprintf(os.Stderr, "golens: shutdown: %v\n", shutdownErr)
	}
	reg.Close()
	<-printerDone
	return err
}

// printNotifications renders the merged event feed to stderr until the
// subscription channel closes.
func printNotifications(reg *registry.Registry, notifications <-chan registry.Notification) {
	for n := range notifications {
		name := "unknown"
		if root := n.NotificationPath(); root != "" {
			if h, ok := reg.GetProject(root); ok {
				name = h.Project.Name()
			} else {
				// Removed or never-registered project; show something
				// recognizable anyway.
				name = filepath.Base(root)
			}
		} else {
			name = "golens"
		}

		desc := n.Description()
		style := projectStyle
		if resp, ok := n.(registry.ToolResponse); ok && resp.IsError {
			style = errorStyle
		}
		fmt.Fprintf(os.Stderr, "%s %s %s\n",
			timeStyle.Render(n.When().Format(time.TimeOnly)),
			style.Render("["+name+"]"),
			desc,
		)
	}
}
