// Package settings persists the saved channel list into a desktop settings
// backend.
package settings

import (
	"context"
	"fmt"

	"github.com/John-Robertt/servlist-migrate/internal/model"
)

const (
	DefaultSchema = "org.gnome.Polari"
	DefaultKey    = "saved-channel-list"
)

// Key addresses one settings value.
type Key struct {
	Schema string
	Name   string
}

func DefaultSavedChannelsKey() Key {
	return Key{Schema: DefaultSchema, Name: DefaultKey}
}

func (k Key) String() string { return k.Schema + "/" + k.Name }

// Writer stores the saved channel list under key.
type Writer interface {
	WriteSavedChannels(ctx context.Context, key Key, list []model.SavedChannel) error
}

type Backend string

const (
	BackendGSettings Backend = "gsettings"
	BackendBitcask   Backend = "bitcask"
	BackendFile      Backend = "file"
)

type WriteError struct {
	AppError model.AppError
	Cause    error
}

func (e *WriteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

func writeError(backend Backend, key Key, message string, cause error) error {
	return &WriteError{
		AppError: model.AppError{
			Code:    "SETTINGS_BACKEND_ERROR",
			Message: message,
			Stage:   "write_settings",
			Snippet: key.String(),
			Hint:    "backend: " + string(backend),
		},
		Cause: cause,
	}
}
