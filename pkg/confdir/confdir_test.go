package confdir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinuxPrefersXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/home/u")
	got, err := dirForOS("linux", "polygate")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/xdg", "polygate"), got)
}

func TestLinuxFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/u")
	got, err := dirForOS("linux", "polygate")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/home/u", ".config", "polygate"), got)
}

func TestLinuxFailsWithoutHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	_, err := dirForOS("linux", "polygate")
	require.Error(t, err)
}

func TestDarwinUsesApplicationSupport(t *testing.T) {
	t.Setenv("HOME", "/Users/u")
	got, err := dirForOS("darwin", "polygate")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/Users/u", "Library", "Application Support", "polygate"), got)
}

func TestWindowsRequiresAppData(t *testing.T) {
	t.Setenv("APPDATA", "")
	_, err := dirForOS("windows", "polygate")
	require.Error(t, err)

	t.Setenv("APPDATA", `C:\Users\u\AppData\Roaming`)
	got, err := dirForOS("windows", "polygate")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(`C:\Users\u\AppData\Roaming`, "polygate"), got)
}

func TestEmptyAppName(t *testing.T) {
	_, err := Dir("")
	require.Error(t, err)
}
