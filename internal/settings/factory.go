package settings

import (
	"fmt"

	"github.com/spf13/afero"
)

type Options struct {
	Backend Backend

	// file
	FS       afero.Fs
	FilePath string

	// gsettings
	GSettingsBin string

	// bitcask
	BitcaskDir string
}

// New creates a Writer for the configured backend.
func New(opt Options) (Writer, error) {
	switch opt.Backend {
	case BackendFile:
		if opt.FilePath == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		fsys := opt.FS
		if fsys == nil {
			fsys = afero.NewOsFs()
		}
		return &FileWriter{FS: fsys, Path: opt.FilePath}, nil

	case BackendGSettings, "":
		return &GSettingsWriter{Bin: opt.GSettingsBin}, nil

	case BackendBitcask:
		if opt.BitcaskDir == "" {
			return nil, fmt.Errorf("bitcask backend requires a directory")
		}
		return &BitcaskWriter{Dir: opt.BitcaskDir}, nil

	default:
		return nil, fmt.Errorf("unknown settings backend: %s", opt.Backend)
	}
}
