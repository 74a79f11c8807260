package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"databinding-compat/internal/ports"
	"databinding-compat/internal/types"
)

// ChangeSynchronizer mirrors every unit's input onto its output before any
// class is patched.
type ChangeSynchronizer struct {
	Files ports.FileMirrorPort
}

func NewChangeSynchronizer(files ports.FileMirrorPort) ChangeSynchronizer {
	return ChangeSynchronizer{Files: files}
}

func (s ChangeSynchronizer) Sync(ctx context.Context, units []types.TransformUnit) (types.SyncSummary, error) {
	if s.Files == nil {
		return types.SyncSummary{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("change synchronizer requires a file mirror")
	}
	summary := types.SyncSummary{}
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		var err error
		switch unit.Format {
		case types.FormatDirectory:
			err = s.syncDirectory(ctx, unit, &summary)
		case types.FormatArchive:
			err = s.syncArchive(ctx, unit, &summary)
		default:
			err = errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unit %s has unsupported format %q", unit.Input, unit.Format))
		}
		if err != nil {
			return summary, err
		}
		summary.Units++
	}
	log.Ctx(ctx).Info().
		Int("units", summary.Units).
		Int("copied", summary.Copied).
		Int("removed", summary.Removed).
		Int("skipped", summary.Skipped).
		Msg("outputs synchronized")
	return summary, nil
}

func (s ChangeSynchronizer) syncDirectory(ctx context.Context, unit types.TransformUnit, summary *types.SyncSummary) error {
	if !unit.Changes.HasFileStatuses {
		log.Ctx(ctx).Debug().Str("unit", unit.String()).Msg("no file statuses, copying directory")
		if err := s.Files.Remove(unit.Output); err != nil {
			return syncError("failed to clear output directory", unit.Output, err)
		}
		exists, err := s.Files.Exists(unit.Input)
		if err != nil {
			return syncError("failed to stat input directory", unit.Input, err)
		}
		if !exists {
			return nil
		}
		if err := s.Files.CopyTree(unit.Input, unit.Output); err != nil {
			return syncError("failed to copy input directory", unit.Input, err)
		}
		summary.Copied++
		return nil
	}

	if err := s.Files.EnsureDir(unit.Output); err != nil {
		return syncError("failed to create output directory", unit.Output, err)
	}
	paths := make([]string, 0, len(unit.Changes.Files))
	for path := range unit.Changes.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		relative, err := relativeTo(unit.Input, path)
		if err != nil {
			return err
		}
		isDir, err := s.Files.IsDir(path)
		if err != nil {
			return syncError("failed to stat changed file", path, err)
		}
		if isDir {
			continue
		}
		target := filepath.Join(unit.Output, relative)
		if err := s.apply(ctx, unit.Changes.Files[path], path, target, summary); err != nil {
			return err
		}
	}
	return nil
}

func (s ChangeSynchronizer) syncArchive(ctx context.Context, unit types.TransformUnit, summary *types.SyncSummary) error {
	return s.apply(ctx, unit.Changes.Status, unit.Input, unit.Output, summary)
}

// apply runs the single-file rule for one source/target pair.
func (s ChangeSynchronizer) apply(ctx context.Context, declared types.Status, source, target string, summary *types.SyncSummary) error {
	status := declared
	if status == types.StatusUnknown || status == "" {
		exists, err := s.Files.Exists(source)
		if err != nil {
			return syncError("failed to stat source", source, err)
		}
		status = ResolveStatus(declared, exists)
	}
	log.Ctx(ctx).Debug().Str("path", source).Str("status", string(status)).Msg("sync decision")
	switch status {
	case types.StatusUnchanged:
		summary.Skipped++
	case types.StatusRemoved:
		if err := s.Files.Remove(target); err != nil {
			return syncError("failed to remove output file", target, err)
		}
		summary.Removed++
	case types.StatusAdded, types.StatusChanged:
		if err := s.Files.CopyFile(source, target); err != nil {
			return syncError("failed to copy file", source, err)
		}
		summary.Copied++
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported change status %q for %s", status, source))
	}
	return nil
}

func relativeTo(root, path string) (string, error) {
	relative, err := filepath.Rel(root, path)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) || filepath.IsAbs(relative) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("changed file %s is outside unit input %s", path, root))
	}
	return relative, nil
}

func syncError(msg, path string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("%s: %s", msg, path)).
		WithCause(err)
}
