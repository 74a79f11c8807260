package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"

	"databinding-compat/internal/ports"
	"databinding-compat/internal/shared"
	"databinding-compat/internal/types"
)

const DefaultIndexCacheSize = 64

// ClasspathIndexAdapter resolves classes against an ordered list of
// directories and archives. The first entry that defines a class wins.
// Archive listings are cached for the lifetime of the index.
type ClasspathIndexAdapter struct {
	classpath []string
	listings  *lru.Cache[string, map[string]struct{}]
}

func NewClasspathIndexAdapter(classpath []string, cacheSize int) (*ClasspathIndexAdapter, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultIndexCacheSize
	}
	listings, err := lru.New[string, map[string]struct{}](cacheSize)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create archive listing cache").
			WithCause(err)
	}
	return &ClasspathIndexAdapter{
		classpath: append([]string(nil), classpath...),
		listings:  listings,
	}, nil
}

func (a *ClasspathIndexAdapter) Classpath() []string {
	return append([]string(nil), a.classpath...)
}

func (a *ClasspathIndexAdapter) Contains(ctx context.Context, class types.ObjectType) (bool, error) {
	_, found, err := a.FindContainingFile(ctx, class)
	return found, err
}

func (a *ClasspathIndexAdapter) FindContainingFile(ctx context.Context, class types.ObjectType) (string, bool, error) {
	entryName := class.FilePath()
	for _, element := range a.classpath {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		found, err := a.defines(ctx, element, entryName)
		if err != nil {
			return "", false, err
		}
		if found {
			return element, true, nil
		}
	}
	return "", false, nil
}

func (a *ClasspathIndexAdapter) ReadRawBytes(ctx context.Context, class types.ObjectType) ([]byte, error) {
	element, found, err := a.FindContainingFile(ctx, class)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("class %s is not on the classpath", class))
	}
	info, err := os.Stat(element)
	if err != nil {
		return nil, indexError(element, err)
	}
	if info.IsDir() {
		data, err := os.ReadFile(filepath.Join(element, filepath.FromSlash(class.FilePath())))
		if err != nil {
			return nil, indexError(element, err)
		}
		return data, nil
	}
	return readArchiveEntry(element, class.FilePath())
}

func (a *ClasspathIndexAdapter) Close() error {
	a.listings.Purge()
	return nil
}

func (a *ClasspathIndexAdapter) defines(ctx context.Context, element string, entryName string) (bool, error) {
	info, err := os.Stat(element)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Ctx(ctx).Debug().Str("path", element).Msg("classpath entry does not exist")
			return false, nil
		}
		return false, indexError(element, err)
	}
	if info.IsDir() {
		classInfo, err := os.Stat(filepath.Join(element, filepath.FromSlash(entryName)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, indexError(element, err)
		}
		return classInfo.Mode().IsRegular(), nil
	}
	listing, err := a.listing(ctx, element)
	if err != nil {
		return false, err
	}
	_, ok := listing[entryName]
	return ok, nil
}

func (a *ClasspathIndexAdapter) listing(ctx context.Context, archive string) (map[string]struct{}, error) {
	if cached, ok := a.listings.Get(archive); ok {
		return cached, nil
	}
	reader, err := zip.OpenReader(archive)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			log.Ctx(ctx).Warn().Str("path", archive).Msg("classpath entry is not an archive, ignoring")
			empty := map[string]struct{}{}
			a.listings.Add(archive, empty)
			return empty, nil
		}
		return nil, indexError(archive, err)
	}
	defer reader.Close()

	listing := make(map[string]struct{}, len(reader.File))
	for _, file := range reader.File {
		if !shared.IsSafeEntryName(file.Name) {
			log.Ctx(ctx).Debug().Str("path", archive).Str("entry", file.Name).Msg("ignoring unsafe archive entry")
			continue
		}
		listing[file.Name] = struct{}{}
	}
	a.listings.Add(archive, listing)
	return listing, nil
}

func readArchiveEntry(archive string, entryName string) ([]byte, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return nil, indexError(archive, err)
	}
	defer reader.Close()
	for _, file := range reader.File {
		if file.Name != entryName {
			continue
		}
		content, err := file.Open()
		if err != nil {
			return nil, indexError(archive, err)
		}
		defer content.Close()
		data, err := io.ReadAll(content)
		if err != nil {
			return nil, indexError(archive, err)
		}
		return data, nil
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("entry %s missing from %s", entryName, archive))
}

func indexError(path string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("failed to read classpath entry %s", path)).
		WithCause(err)
}

var _ ports.ArtifactIndexPort = (*ClasspathIndexAdapter)(nil)
