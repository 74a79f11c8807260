package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"

	"databinding-compat/internal/ports"
	"databinding-compat/internal/types"
)

// splicedEntryTime is the modification time stamped on the replaced entry
// so that repeated runs produce identical archives.
var splicedEntryTime = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

// NewContainerWriters returns the writer for every supported format.
func NewContainerWriters(tempDir string) map[types.Format]ports.ContainerWriterPort {
	return map[types.Format]ports.ContainerWriterPort{
		types.FormatDirectory: NewDirectoryContainerWriter(),
		types.FormatArchive:   NewArchiveContainerWriter(tempDir),
	}
}

type DirectoryContainerWriter struct{}

func NewDirectoryContainerWriter() DirectoryContainerWriter {
	return DirectoryContainerWriter{}
}

func (w DirectoryContainerWriter) Persist(ctx context.Context, output string, target types.ObjectType, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(output, filepath.FromSlash(target.FilePath()))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create class directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", path)).
			WithCause(err)
	}
	log.Ctx(ctx).Debug().Str("path", path).Int("bytes", len(data)).Msg("class written")
	return nil
}

// ArchiveContainerWriter replaces one entry of an existing archive by
// writing a complete copy to a temporary file and copying it back over the
// output. Untouched entries are copied raw, keeping their compressed bytes,
// method and order.
type ArchiveContainerWriter struct {
	TempDir string
}

func NewArchiveContainerWriter(tempDir string) ArchiveContainerWriter {
	return ArchiveContainerWriter{TempDir: tempDir}
}

func (w ArchiveContainerWriter) Persist(ctx context.Context, output string, target types.ObjectType, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	temp, err := os.CreateTemp(w.TempDir, "databinding-compat-*.jar")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temporary archive").
			WithCause(err)
	}
	tempPath := temp.Name()
	defer func() {
		if err := os.Remove(tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Ctx(ctx).Warn().Err(err).Str("path", tempPath).Msg("failed to delete temporary archive")
		}
	}()

	if err := spliceArchive(output, temp, target.FilePath(), data); err != nil {
		temp.Close()
		return err
	}
	if err := temp.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close temporary archive").
			WithCause(err)
	}
	if err := overwriteFile(tempPath, output); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Str("path", output).Str("entry", target.FilePath()).Msg("archive entry replaced")
	return nil
}

// spliceArchive streams every entry of source except entryName into dest,
// then appends entryName with data. Both archive handles are closed before
// it returns.
func spliceArchive(source string, dest io.Writer, entryName string, data []byte) error {
	reader, err := zip.OpenReader(source)
	if err != nil {
		code := errbuilder.CodeInvalidArgument
		if errors.Is(err, fs.ErrNotExist) {
			code = errbuilder.CodeNotFound
		}
		return errbuilder.New().
			WithCode(code).
			WithMsg(fmt.Sprintf("failed to open output archive %s", source)).
			WithCause(err)
	}
	defer reader.Close()

	writer := zip.NewWriter(dest)
	if err := copyEntries(writer, reader, entryName, data); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to finish temporary archive").
			WithCause(err)
	}
	return nil
}

func copyEntries(writer *zip.Writer, reader *zip.ReadCloser, entryName string, data []byte) error {
	for _, file := range reader.File {
		if file.Name == entryName {
			continue
		}
		if err := writer.Copy(file); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to copy archive entry %s", file.Name)).
				WithCause(err)
		}
	}
	entry, err := writer.CreateHeader(&zip.FileHeader{
		Name:     entryName,
		Method:   zip.Deflate,
		Modified: splicedEntryTime,
	})
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to add archive entry %s", entryName)).
			WithCause(err)
	}
	if _, err := entry.Write(data); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write archive entry %s", entryName)).
			WithCause(err)
	}
	if reader.Comment != "" {
		if err := writer.SetComment(reader.Comment); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to keep archive comment").
				WithCause(err)
		}
	}
	return nil
}

// overwriteFile copies src over the existing dst, keeping dst's inode and
// permissions.
func overwriteFile(src string, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to reopen temporary archive").
			WithCause(err)
	}
	defer srcFile.Close()
	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to open %s for writing", dst)).
			WithCause(err)
	}
	if _, err := io.Copy(destFile, srcFile); err != nil {
		destFile.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to replace %s", dst)).
			WithCause(err)
	}
	if err := destFile.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to close %s", dst)).
			WithCause(err)
	}
	return nil
}

var (
	_ ports.ContainerWriterPort = DirectoryContainerWriter{}
	_ ports.ContainerWriterPort = ArchiveContainerWriter{}
)
