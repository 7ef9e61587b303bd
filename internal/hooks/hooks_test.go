package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShimContent(t *testing.T) {
	content, err := ShimContent()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(content, "#!/bin/sh"))
	assert.Contains(t, content, shimVersionPrefix+ShimVersion)
	assert.Contains(t, content, "cub verify-push")
	assert.NotContains(t, content, "\r\n")
}

func TestInstall_Fresh(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Install(dir, false))

	hookPath := filepath.Join(dir, HookName)
	info, err := os.Stat(hookPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111, "hook must be executable")

	status := Check(dir)
	assert.True(t, status.Installed)
	assert.True(t, status.IsCubHook)
	assert.Equal(t, ShimVersion, status.Version)
	assert.False(t, status.Outdated)
}

func TestInstall_CreatesHooksDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hooks")
	require.NoError(t, Install(dir, false))
	assert.FileExists(t, filepath.Join(dir, HookName))
}

func TestInstall_BacksUpForeignHook(t *testing.T) {
	dir := t.TempDir()
	hookPath := filepath.Join(dir, HookName)
	foreign := "#!/bin/sh\necho custom hook\n"
	require.NoError(t, os.WriteFile(hookPath, []byte(foreign), 0755))

	require.NoError(t, Install(dir, false))

	backup, err := os.ReadFile(hookPath + ".backup")
	require.NoError(t, err)
	assert.Equal(t, foreign, string(backup))
	assert.True(t, Check(dir).IsCubHook)
}

func TestInstall_ForceSkipsBackup(t *testing.T) {
	dir := t.TempDir()
	hookPath := filepath.Join(dir, HookName)
	require.NoError(t, os.WriteFile(hookPath, []byte("#!/bin/sh\necho custom\n"), 0755))

	require.NoError(t, Install(dir, true))

	assert.NoFileExists(t, hookPath+".backup")
	assert.True(t, Check(dir).IsCubHook)
}

func TestInstall_UpgradesShimInPlace(t *testing.T) {
	dir := t.TempDir()
	hookPath := filepath.Join(dir, HookName)
	old := "#!/bin/sh\n" + shimVersionPrefix + "v0.9.0\nexit 0\n"
	require.NoError(t, os.WriteFile(hookPath, []byte(old), 0755))

	require.NoError(t, Install(dir, false))

	assert.NoFileExists(t, hookPath+".backup", "cub shims are replaced, not backed up")
	status := Check(dir)
	assert.Equal(t, ShimVersion, status.Version)
	assert.False(t, status.Outdated)
}

func TestUninstall_RestoresBackup(t *testing.T) {
	dir := t.TempDir()
	hookPath := filepath.Join(dir, HookName)
	foreign := "#!/bin/sh\necho custom hook\n"
	require.NoError(t, os.WriteFile(hookPath, []byte(foreign), 0755))

	require.NoError(t, Install(dir, false))
	require.NoError(t, Uninstall(dir))

	restored, err := os.ReadFile(hookPath)
	require.NoError(t, err)
	assert.Equal(t, foreign, string(restored))
	assert.NoFileExists(t, hookPath+".backup")
}

func TestUninstall_LeavesForeignHook(t *testing.T) {
	dir := t.TempDir()
	hookPath := filepath.Join(dir, HookName)
	require.NoError(t, os.WriteFile(hookPath, []byte("#!/bin/sh\necho custom\n"), 0755))

	err := Uninstall(dir)
	assert.Error(t, err)
	assert.FileExists(t, hookPath)
}

func TestUninstall_NothingInstalled(t *testing.T) {
	assert.NoError(t, Uninstall(t.TempDir()))
}

func TestCheck_OutdatedShim(t *testing.T) {
	dir := t.TempDir()
	old := "#!/bin/sh\n" + shimVersionPrefix + "v0.9.0\nexit 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, HookName), []byte(old), 0755))

	status := Check(dir)
	assert.True(t, status.Installed)
	assert.True(t, status.IsCubHook)
	assert.Equal(t, "v0.9.0", status.Version)
	assert.True(t, status.Outdated)
}

func TestCheck_NotInstalled(t *testing.T) {
	status := Check(t.TempDir())
	assert.False(t, status.Installed)
	assert.False(t, status.IsCubHook)
}
