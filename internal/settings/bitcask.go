package settings

import (
	"context"

	"git.mills.io/prologic/bitcask"

	"github.com/John-Robertt/servlist-migrate/internal/gvariant"
	"github.com/John-Robertt/servlist-migrate/internal/model"
)

// BitcaskWriter stores the GVariant text under "<schema>/<key>" in a bitcask
// database directory. Meant for machines without a dconf session, where the
// value is applied later by other tooling.
type BitcaskWriter struct {
	Dir string
}

func (w *BitcaskWriter) WriteSavedChannels(ctx context.Context, key Key, list []model.SavedChannel) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	db, err := bitcask.Open(w.Dir)
	if err != nil {
		return writeError(BackendBitcask, key, "打开 bitcask 数据库失败", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = writeError(BackendBitcask, key, "关闭 bitcask 数据库失败", cerr)
		}
	}()

	if err := db.Put([]byte(key.String()), []byte(gvariant.PrintSavedChannels(list))); err != nil {
		return writeError(BackendBitcask, key, "写入 bitcask 失败", err)
	}
	if err := db.Sync(); err != nil {
		return writeError(BackendBitcask, key, "同步 bitcask 失败", err)
	}
	return nil
}
