package config

import (
	"os"
	"path/filepath"
)

const appName = "servlist-migrate"

// Paths holds the per-user base directories defaults are derived from.
type Paths struct {
	Home       string
	DataHome   string // $XDG_DATA_HOME, default ~/.local/share
	ConfigHome string // $XDG_CONFIG_HOME, default ~/.config
}

// DetectPaths resolves Paths for the current user following the XDG base
// directory rules.
func DetectPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, err
	}
	return pathsFrom(home, os.Getenv("XDG_DATA_HOME"), os.Getenv("XDG_CONFIG_HOME")), nil
}

func pathsFrom(home, dataHome, configHome string) Paths {
	// Relative XDG values are ignored.
	if dataHome == "" || !filepath.IsAbs(dataHome) {
		dataHome = filepath.Join(home, ".local", "share")
	}
	if configHome == "" || !filepath.IsAbs(configHome) {
		configHome = filepath.Join(home, ".config")
	}
	return Paths{Home: home, DataHome: dataHome, ConfigHome: configHome}
}

// InputCandidates lists the legacy server list locations in lookup order.
func (p Paths) InputCandidates() []string {
	return []string{
		filepath.Join(p.Home, ".xchat-gnome", "servlist_.conf"),
		filepath.Join(p.Home, ".xchat2", "servlist_.conf"),
	}
}

// AccountsFile is mission-control's account file.
func (p Paths) AccountsFile() string {
	return filepath.Join(p.DataHome, "telepathy", "mission-control", "accounts.cfg")
}

func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigHome, appName, "config.yaml")
}

func (p Paths) BitcaskDir() string {
	return filepath.Join(p.DataHome, appName, "settings.db")
}
