package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

const ManifestPath = "META-INF/MANIFEST.MF"

// ArchiveEntry describes one archive member. Raw holds the stored
// (possibly compressed) bytes and is only filled by ReadArchive.
type ArchiveEntry struct {
	Name   string
	Data   []byte
	Method uint16
	Raw    []byte
}

// WriteArchive creates a zip archive at path with the entries in order.
func WriteArchive(t testing.TB, path string, entries []ArchiveEntry) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer := zip.NewWriter(file)
	for _, entry := range entries {
		header := &zip.FileHeader{
			Name:     entry.Name,
			Method:   entry.Method,
			Modified: time.Date(2020, time.January, 2, 3, 4, 6, 0, time.UTC),
		}
		w, err := writer.CreateHeader(header)
		require.NoError(t, err)
		_, err = w.Write(entry.Data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.SetComment("fixture"))
	require.NoError(t, writer.Close())
}

// ReadArchive returns every entry of the archive at path in stored order.
func ReadArchive(t testing.TB, path string) []ArchiveEntry {
	t.Helper()
	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	entries := make([]ArchiveEntry, 0, len(reader.File))
	for _, file := range reader.File {
		raw, err := file.OpenRaw()
		require.NoError(t, err)
		rawBytes, err := io.ReadAll(raw)
		require.NoError(t, err)

		content, err := file.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(content)
		require.NoError(t, err)
		require.NoError(t, content.Close())

		entries = append(entries, ArchiveEntry{
			Name:   file.Name,
			Data:   data,
			Method: file.Method,
			Raw:    rawBytes,
		})
	}
	return entries
}

func ArchiveComment(t testing.TB, path string) string {
	t.Helper()
	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()
	return reader.Comment
}

// Manifest is a minimal JAR manifest.
func Manifest() []byte {
	return []byte("Manifest-Version: 1.0\r\nCreated-By: fixtures\r\n\r\n")
}
