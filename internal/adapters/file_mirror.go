package adapters

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"databinding-compat/internal/ports"
)

type FileMirrorAdapter struct{}

func NewFileMirrorAdapter() FileMirrorAdapter {
	return FileMirrorAdapter{}
}

func (a FileMirrorAdapter) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to stat path").
		WithCause(err)
}

func (a FileMirrorAdapter) IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stat path").
			WithCause(err)
	}
	return info.IsDir(), nil
}

func (a FileMirrorAdapter) EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create directory").
			WithCause(err)
	}
	return nil
}

// CopyFile replaces dst with the current bytes of src, creating parent
// directories as needed.
func (a FileMirrorAdapter) CopyFile(src string, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to stat source file").
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination directory").
			WithCause(err)
	}
	if err := os.RemoveAll(dst); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to replace destination").
			WithCause(err)
	}
	return copyFile(src, dst, info.Mode().Perm())
}

// CopyTree deep-copies the directory src to dst. Symlinked files are
// copied by content.
func (a FileMirrorAdapter) CopyTree(src string, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to walk source directory").
				WithCause(walkErr)
		}
		relative, err := filepath.Rel(src, path)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to relativize source path").
				WithCause(err)
		}
		target := filepath.Join(dst, relative)
		info, err := os.Stat(path)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to stat source path").
				WithCause(err)
		}
		if info.IsDir() {
			return a.EnsureDir(target)
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func (a FileMirrorAdapter) Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove path").
			WithCause(err)
	}
	return nil
}

func copyFile(srcPath string, destPath string, perm fs.FileMode) error {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open source file").
			WithCause(err)
	}
	defer srcFile.Close()
	destFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination file").
			WithCause(err)
	}
	if _, err := io.Copy(destFile, srcFile); err != nil {
		destFile.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to copy file").
			WithCause(err)
	}
	if err := destFile.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close destination file").
			WithCause(err)
	}
	return nil
}

var _ ports.FileMirrorPort = FileMirrorAdapter{}
