package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"databinding-compat/internal/ports"
	"databinding-compat/internal/shared"
	"databinding-compat/internal/types"
)

type ManifestFileAdapter struct{}

func NewManifestFileAdapter() ManifestFileAdapter {
	return ManifestFileAdapter{}
}

func (a ManifestFileAdapter) LoadTransformSet(path string) (types.TransformSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.TransformSet{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("transform manifest not found").
			WithCause(err)
	}
	var manifest types.TransformManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return types.TransformSet{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse transform manifest yaml").
			WithCause(err)
	}
	return BuildTransformSet(manifest, filepath.Dir(path))
}

// BuildTransformSet validates a decoded manifest and resolves its paths
// against baseDir.
func BuildTransformSet(manifest types.TransformManifest, baseDir string) (types.TransformSet, error) {
	incremental := manifest.Incremental == nil || *manifest.Incremental
	set := types.TransformSet{}
	outputs := map[string]string{}
	for i, entry := range manifest.Units {
		unit, err := buildUnit(entry, baseDir, incremental, true)
		if err != nil {
			return types.TransformSet{}, manifestEntryError(fmt.Sprintf("units[%d]", i), err)
		}
		canonical := shared.CanonicalPath(unit.Output)
		if previous, ok := outputs[canonical]; ok {
			return types.TransformSet{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("units[%d]: output %s already used by %s", i, unit.Output, previous))
		}
		outputs[canonical] = unit.Input
		set.Units = append(set.Units, unit)
	}
	for i, entry := range manifest.Referenced {
		unit, err := buildUnit(entry, baseDir, incremental, false)
		if err != nil {
			return types.TransformSet{}, manifestEntryError(fmt.Sprintf("referenced[%d]", i), err)
		}
		set.ReferencedUnits = append(set.ReferencedUnits, unit)
	}
	for _, entry := range manifest.BootClasspath {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		set.BootClasspath = append(set.BootClasspath, resolvePath(baseDir, entry))
	}
	return set, nil
}

func buildUnit(entry types.ManifestUnit, baseDir string, incremental bool, rewritable bool) (types.TransformUnit, error) {
	if strings.TrimSpace(entry.Input) == "" {
		return types.TransformUnit{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("input is required")
	}
	unit := types.TransformUnit{Input: resolvePath(baseDir, entry.Input)}
	if strings.TrimSpace(entry.Output) != "" {
		unit.Output = resolvePath(baseDir, entry.Output)
	}
	if rewritable {
		if unit.Output == "" {
			return types.TransformUnit{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("output is required for %s", entry.Input))
		}
		if shared.SamePath(unit.Input, unit.Output) {
			return types.TransformUnit{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("output must differ from input %s", entry.Input))
		}
	}

	format, err := unitFormat(entry, unit.Input)
	if err != nil {
		return types.TransformUnit{}, err
	}
	unit.Format = format

	changes, err := buildChanges(entry.Changes, baseDir, format, incremental)
	if err != nil {
		return types.TransformUnit{}, err
	}
	unit.Changes = changes
	return unit, nil
}

// unitFormat uses the declared format, or infers it from the input's
// extension when none is declared.
func unitFormat(entry types.ManifestUnit, input string) (types.Format, error) {
	if strings.TrimSpace(entry.Format) != "" {
		format, err := types.ParseFormat(entry.Format)
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(err.Error())
		}
		return format, nil
	}
	switch strings.ToLower(filepath.Ext(input)) {
	case ".jar", ".zip", ".aar":
		return types.FormatArchive, nil
	default:
		return types.FormatDirectory, nil
	}
}

func buildChanges(entry types.ManifestChanges, baseDir string, format types.Format, incremental bool) (types.Changes, error) {
	if !incremental {
		return types.FullCopy(), nil
	}
	status, err := types.ParseStatus(entry.Status)
	if err != nil {
		return types.Changes{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(err.Error())
	}
	changes := types.Changes{Status: status}
	if format == types.FormatArchive || entry.Files == nil {
		return changes, nil
	}
	changes.HasFileStatuses = true
	changes.Files = make(map[string]types.Status, len(entry.Files))
	for file, value := range entry.Files {
		fileStatus, err := types.ParseStatus(value)
		if err != nil {
			return types.Changes{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: %v", file, err))
		}
		changes.Files[resolvePath(baseDir, file)] = fileStatus
	}
	return changes, nil
}

func manifestEntryError(label string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeOf(err)).
		WithMsg(fmt.Sprintf("invalid manifest entry %s", label)).
		WithCause(err)
}

func resolvePath(baseDir, value string) string {
	value = filepath.FromSlash(strings.TrimSpace(value))
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(baseDir, value)
}

var _ ports.TransformManifestPort = ManifestFileAdapter{}
