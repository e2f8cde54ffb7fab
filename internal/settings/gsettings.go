package settings

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/John-Robertt/servlist-migrate/internal/gvariant"
	"github.com/John-Robertt/servlist-migrate/internal/model"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// GSettingsWriter sets the value through the gsettings command line tool,
// which talks to whatever backend (usually dconf) the desktop session uses.
type GSettingsWriter struct {
	// Bin is the gsettings executable. Defaults to "gsettings".
	Bin string
	Run CommandRunner
}

func (w *GSettingsWriter) WriteSavedChannels(ctx context.Context, key Key, list []model.SavedChannel) error {
	bin := w.Bin
	if bin == "" {
		bin = "gsettings"
	}
	run := w.Run
	if run == nil {
		run = execRunner
	}

	out, err := run(ctx, bin, "set", key.Schema, key.Name, gvariant.PrintSavedChannels(list))
	if err != nil {
		msg := "gsettings set 执行失败"
		if s := strings.TrimSpace(string(out)); s != "" {
			err = fmt.Errorf("%w: %s", err, s)
		}
		return writeError(BackendGSettings, key, msg, err)
	}
	return nil
}
