package lsp

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const goplsModule = "golang.org/x/tools/gopls@latest"

// findGopls locates a usable gopls binary. If none is on PATH it attempts a
// one-shot auto-install through the go tool and retries the lookup once.
// Errors name the likely cause instead of a generic exec failure.
func findGopls() (string, error) {
	path, err := exec.LookPath("gopls")
	if err == nil {
		return path, healthCheck(path)
	}

	log.Printf("lsp: gopls not found on PATH, attempting install via go install %s", goplsModule)
	if installErr := installGopls(); installErr != nil {
		return "", fmt.Errorf("gopls is not installed and auto-install failed: %w", installErr)
	}

	path, err = exec.LookPath("gopls")
	if err != nil {
		// go install places binaries in GOBIN or GOPATH/bin, which may
		// not be on PATH.
		if alt := goplsFromGoBin(); alt != "" {
			return alt, healthCheck(alt)
		}
		return "", errors.New("gopls was installed but is not on PATH; add $(go env GOPATH)/bin to PATH")
	}
	return path, healthCheck(path)
}

// healthCheck runs `gopls version` with a short timeout to distinguish a
// present-but-broken binary (missing execute permission, wrong arch) from a
// missing one.
func healthCheck(path string) error {
	cmd := exec.Command(path, "version")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("gopls at %s is not executable: %w", path, err)
		}
		return fmt.Errorf("gopls at %s failed to start: %w", path, err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("gopls health check failed: %w", err)
		}
		return nil
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		return errors.New("gopls health check timed out")
	}
}

func installGopls() error {
	cmd := exec.Command("go", "install", goplsModule)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("go install failed: %w (%s)", err, string(out))
	}
	return nil
}

// goplsFromGoBin resolves the binary directly under GOBIN or GOPATH/bin.
func goplsFromGoBin() string {
	for _, envCmd := range []string{"GOBIN", "GOPATH"} {
		out, err := exec.Command("go", "env", envCmd).Output()
		if err != nil {
			continue
		}
		dir := string(out)
		dir = filepath.Clean(trimNewline(dir))
		if dir == "" || dir == "." {
			continue
		}
		if envCmd == "GOPATH" {
			dir = filepath.Join(dir, "bin")
		}
		candidate := filepath.Join(dir, "gopls")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
