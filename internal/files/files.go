// Package files is the filesystem port of the migration: existence checks,
// bounded text reads and atomic writes on top of an afero.Fs.
package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/John-Robertt/servlist-migrate/internal/model"
)

type Kind int

const (
	KindInput Kind = iota
	KindAccounts
	KindSettings
)

func (k Kind) stage() string {
	switch k {
	case KindInput:
		return "read_input"
	case KindAccounts:
		return "write_accounts"
	case KindSettings:
		return "write_settings"
	default:
		return "files"
	}
}

func (k Kind) defaultMaxBytes() int64 {
	switch k {
	case KindInput:
		return 1 * 1024 * 1024
	default:
		return 4 * 1024 * 1024
	}
}

type FileError struct {
	AppError model.AppError
	Cause    error
}

func (e *FileError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FileError) Unwrap() error { return e.Cause }

// OS returns the filesystem used outside of tests.
func OS() afero.Fs { return afero.NewOsFs() }

// Exists reports whether path exists. Errors other than "not found" (for
// example permission problems) are returned as is.
func Exists(fsys afero.Fs, path string) (bool, error) {
	return afero.Exists(fsys, path)
}

// ReadText reads a whole UTF-8 text file, refusing files larger than the
// limit for kind.
func ReadText(fsys afero.Fs, kind Kind, path string) (string, error) {
	stage := kind.stage()
	maxBytes := kind.defaultMaxBytes()

	f, err := fsys.Open(path)
	if err != nil {
		code, msg := "READ_FAILED", "读取文件失败"
		if errors.Is(err, os.ErrNotExist) {
			code, msg = "NOT_FOUND", "文件不存在"
		}
		return "", &FileError{
			AppError: model.AppError{Code: code, Message: msg, Stage: stage, Path: path},
			Cause:    err,
		}
	}
	defer f.Close()

	// Read at most maxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return "", &FileError{
			AppError: model.AppError{Code: "READ_FAILED", Message: "读取文件失败", Stage: stage, Path: path},
			Cause:    err,
		}
	}
	if int64(len(body)) > maxBytes {
		return "", &FileError{
			AppError: model.AppError{
				Code:    "TOO_LARGE",
				Message: fmt.Sprintf("文件过大（>%d bytes）", maxBytes),
				Stage:   stage,
				Path:    path,
			},
		}
	}
	if !utf8.Valid(body) {
		return "", &FileError{
			AppError: model.AppError{
				Code:    "INVALID_UTF8",
				Message: "文件不是合法 UTF-8 文本",
				Stage:   stage,
				Path:    path,
				Hint:    "convert the file with: iconv -f latin1 -t utf-8",
			},
		}
	}
	return string(body), nil
}

// WriteText writes data to path atomically and wraps failures for kind.
func WriteText(fsys afero.Fs, kind Kind, path string, data string) error {
	if err := WriteFileAtomic(fsys, path, []byte(data), 0o644); err != nil {
		return &FileError{
			AppError: model.AppError{Code: "WRITE_FAILED", Message: "写入文件失败", Stage: kind.stage(), Path: path},
			Cause:    err,
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so path either holds the complete new data or is left untouched.
// Missing parent directories are created.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".tmp-%d-%d", os.Getpid(), time.Now().UnixNano()))
	tmpFile, err := fsys.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := true
	defer func() {
		if cleanup {
			_ = tmpFile.Close()
			_ = fsys.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fsys.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanup = false
	return nil
}
