// Package gotool runs the go build tool against a project and parses its
// structured, line-delimited output.
package gotool

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/yoanbernabeu/golens/project"
)

// Message is one parsed line of build or test output. JSON lines populate
// the structured fields; anything else (test harness chatter, linker
// noise) is passed through in Raw rather than dropped.
type Message struct {
	// Action is the event kind: build-output, build-fail, run, pass,
	// fail, output, skip. Empty for raw lines.
	Action string `json:"action,omitempty"`

	// ImportPath is the package the event belongs to, when known.
	ImportPath string `json:"import_path,omitempty"`

	// Test names the test case for test events.
	Test string `json:"test,omitempty"`

	// Output carries compiler or test output text.
	Output string `json:"output,omitempty"`

	// Elapsed is the test duration in seconds for pass/fail events.
	Elapsed float64 `json:"elapsed,omitempty"`

	// Raw holds lines that were not valid JSON.
	Raw string `json:"raw,omitempty"`
}

// IsFailure reports whether the message denotes a compile error or a
// failing test.
func (m *Message) IsFailure() bool {
	return m.Action == "build-fail" || m.Action == "fail"
}

// Runner invokes the go tool with the project root as working directory.
type Runner struct {
	project *project.Project
}

// NewRunner returns a Runner for the project.
func NewRunner(proj *project.Project) *Runner {
	return &Runner{project: proj}
}

// Check compiles all packages with `go build -json`. With onlyErrors, only
// failure messages are returned.
func (r *Runner) Check(ctx context.Context, onlyErrors bool) ([]Message, error) {
	out, err := r.run(ctx, nil, "build", "-json", "./...")
	if err != nil {
		return nil, err
	}
	messages := ParseMessages(out)
	if onlyErrors {
		messages = filterFailures(messages)
	}
	return messages, nil
}

// Test runs `go test -json`, optionally restricted to one test name. With
// backtrace, full goroutine dumps are enabled on crashes.
func (r *Runner) Test(ctx context.Context, name string, backtrace bool) ([]Message, error) {
	args := []string{"test", "-json"}
	if name != "" {
		args = append(args, "-run", name)
	}
	args = append(args, "./...")

	var env []string
	if backtrace {
		env = []string{"GOTRACEBACK=all"}
	}
	out, err := r.run(ctx, env, args...)
	if err != nil {
		return nil, err
	}
	return ParseMessages(out), nil
}

// run executes the go tool and returns combined stdout. A nonzero exit is
// not an error here: failing builds and tests still produce the structured
// output the caller wants.
func (r *Runner) run(ctx context.Context, extraEnv []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = r.project.Root
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Environ(), extraEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to run go %s: %w", strings.Join(args, " "), err)
		}
	}

	// Compiler diagnostics for `go test` land on stderr as plain text;
	// append them so they survive as raw messages.
	out := stdout.String()
	if stderr.Len() > 0 {
		out += "\n" + stderr.String()
	}
	return out, nil
}

// ParseMessages splits output into newline-delimited messages, decoding
// JSON lines and passing everything else through raw.
func ParseMessages(output string) []Message {
	var messages []Message
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if msg, ok := parseJSONLine(line); ok {
			messages = append(messages, msg)
			continue
		}
		messages = append(messages, Message{Raw: line})
	}
	return messages
}

// parseJSONLine decodes both `go test -json` events (capitalized keys) and
// `go build -json` events into a Message.
func parseJSONLine(line string) (Message, bool) {
	if !strings.HasPrefix(line, "{") {
		return Message{}, false
	}
	var ev struct {
		Action     string  `json:"Action"`
		Package    string  `json:"Package"`
		ImportPath string  `json:"ImportPath"`
		Test       string  `json:"Test"`
		Output     string  `json:"Output"`
		Elapsed    float64 `json:"Elapsed"`
	}
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return Message{}, false
	}
	if ev.Action == "" {
		return Message{}, false
	}
	msg := Message{
		Action:  ev.Action,
		Test:    ev.Test,
		Output:  ev.Output,
		Elapsed: ev.Elapsed,
	}
	if ev.Package != "" {
		msg.ImportPath = ev.Package
	} else {
		msg.ImportPath = ev.ImportPath
	}
	return msg, true
}

func filterFailures(messages []Message) []Message {
	var kept []Message
	failedPkgs := make(map[string]bool)
	for _, m := range messages {
		if m.IsFailure() {
			failedPkgs[m.ImportPath] = true
		}
	}
	for _, m := range messages {
		if m.IsFailure() || (m.Action == "build-output" && failedPkgs[m.ImportPath]) || m.Raw != "" {
			kept = append(kept, m)
		}
	}
	return kept
}
