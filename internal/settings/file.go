package settings

import (
	"context"

	"github.com/spf13/afero"

	"github.com/John-Robertt/servlist-migrate/internal/files"
	"github.com/John-Robertt/servlist-migrate/internal/gvariant"
	"github.com/John-Robertt/servlist-migrate/internal/model"
)

// FileWriter dumps the value as GVariant text into a plain file instead of a
// live settings backend. Used for dry runs.
type FileWriter struct {
	FS   afero.Fs
	Path string
}

func (w *FileWriter) WriteSavedChannels(ctx context.Context, key Key, list []model.SavedChannel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return files.WriteText(w.FS, files.KindSettings, w.Path, gvariant.PrintSavedChannels(list))
}
