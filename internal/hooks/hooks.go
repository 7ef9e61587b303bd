// Package hooks manages the git pre-push shim that runs cub's push-time
// verification. The shim is a thin delegating script: upgrading cub
// upgrades hook behavior without reinstalling, and the version marker lets
// status reporting flag stale shims.
package hooks

import (
	"bufio"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

//go:embed templates/*
var templatesFS embed.FS

// HookName is the only hook cub installs.
const HookName = "pre-push"

// ShimVersion is the version stamped into (and expected in) the shim.
const ShimVersion = "v1.0.0"

const shimVersionPrefix = "# cub-shim "

// Status describes the installed state of the pre-push hook.
type Status struct {
	Installed bool
	IsCubHook bool
	Version   string
	Outdated  bool
}

// ShimContent returns the embedded pre-push shim with normalized line
// endings. Embedded templates may pick up CRLF when built on Windows, and
// git refuses hooks whose shebang line ends in \r.
func ShimContent() (string, error) {
	content, err := templatesFS.ReadFile("templates/" + HookName)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded hook %s: %w", HookName, err)
	}
	return strings.ReplaceAll(string(content), "\r\n", "\n"), nil
}

// Install writes the shim into hooksDir. An existing foreign hook is
// backed up to <hook>.backup unless force is set; an existing cub shim is
// overwritten in place.
func Install(hooksDir string, force bool) error {
	content, err := ShimContent()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	hookPath := filepath.Join(hooksDir, HookName)
	if _, err := os.Stat(hookPath); err == nil {
		status := Check(hooksDir)
		if !status.IsCubHook && !force {
			backupPath := hookPath + ".backup"
			if err := os.Rename(hookPath, backupPath); err != nil {
				return fmt.Errorf("failed to back up existing %s hook: %w", HookName, err)
			}
		}
	}

	// #nosec G306 -- git hooks must be executable for git to run them
	if err := os.WriteFile(hookPath, []byte(content), 0755); err != nil {
		return fmt.Errorf("failed to write %s hook: %w", HookName, err)
	}
	return nil
}

// Uninstall removes the cub shim and restores any backed-up hook. A
// foreign hook is left alone.
func Uninstall(hooksDir string) error {
	hookPath := filepath.Join(hooksDir, HookName)
	status := Check(hooksDir)
	if !status.Installed {
		return nil
	}
	if !status.IsCubHook {
		return fmt.Errorf("%s hook was not installed by cub; not removing it", HookName)
	}

	if err := os.Remove(hookPath); err != nil {
		return fmt.Errorf("failed to remove %s hook: %w", HookName, err)
	}

	backupPath := hookPath + ".backup"
	if _, err := os.Stat(backupPath); err == nil {
		if err := os.Rename(backupPath, hookPath); err != nil {
			return fmt.Errorf("failed to restore backed-up %s hook: %w", HookName, err)
		}
	}
	return nil
}

// Check reports the installed state of the pre-push hook in hooksDir.
func Check(hooksDir string) Status {
	hookPath := filepath.Join(hooksDir, HookName)
	version, isCub, err := readShimVersion(hookPath)
	if err != nil {
		return Status{}
	}

	status := Status{
		Installed: true,
		IsCubHook: isCub,
		Version:   version,
	}
	if isCub && semver.IsValid(version) && semver.Compare(version, ShimVersion) < 0 {
		status.Outdated = true
	}
	return status
}

// readShimVersion scans the first lines of a hook file for the cub shim
// marker.
func readShimVersion(path string) (version string, isCub bool, err error) {
	// #nosec G304 -- hook path constrained to the git hooks directory
	file, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for lines := 0; scanner.Scan() && lines < 10; lines++ {
		line := scanner.Text()
		if strings.HasPrefix(line, shimVersionPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, shimVersionPrefix)), true, nil
		}
	}
	return "", false, nil
}
