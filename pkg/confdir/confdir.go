// pkg/confdir/confdir.go
package confdir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the platform-appropriate configuration directory for app.
// It is a pure lookup: nothing is created on disk.
//
//	linux/unix:  $XDG_CONFIG_HOME/<app> or $HOME/.config/<app>
//	darwin:      $HOME/Library/Application Support/<app>
//	windows:     %APPDATA%\<app>
//
// It fails when the environment variable the platform requires is absent.
func Dir(app string) (string, error) {
	if app == "" {
		return "", fmt.Errorf("confdir: application name required")
	}
	return dirForOS(runtime.GOOS, app)
}

func dirForOS(goos, app string) (string, error) {
	switch goos {
	case "windows":
		base := os.Getenv("APPDATA")
		if base == "" {
			return "", fmt.Errorf("confdir: APPDATA not set")
		}
		return filepath.Join(base, app), nil

	case "darwin":
		home := os.Getenv("HOME")
		if home == "" {
			return "", fmt.Errorf("confdir: HOME not set")
		}
		return filepath.Join(home, "Library", "Application Support", app), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, app), nil
		}
		home := os.Getenv("HOME")
		if home == "" {
			return "", fmt.Errorf("confdir: neither XDG_CONFIG_HOME nor HOME is set")
		}
		return filepath.Join(home, ".config", app), nil
	}
}
