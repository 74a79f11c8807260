package types

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatDirectory Format = "directory"
	FormatArchive   Format = "archive"
)

type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusUnchanged Status = "unchanged"
	StatusAdded     Status = "added"
	StatusChanged   Status = "changed"
	StatusRemoved   Status = "removed"
)

// ParseFormat accepts the manifest spelling of a container format. "jar" is
// kept as an alias because most hosts still call archives that.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "directory", "dir":
		return FormatDirectory, nil
	case "archive", "jar", "zip":
		return FormatArchive, nil
	default:
		return "", fmt.Errorf("unsupported container format %q", value)
	}
}

func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusUnknown, "":
		return StatusUnknown, nil
	case StatusUnchanged:
		return StatusUnchanged, nil
	case StatusAdded:
		return StatusAdded, nil
	case StatusChanged:
		return StatusChanged, nil
	case StatusRemoved:
		return StatusRemoved, nil
	default:
		return "", fmt.Errorf("unsupported change status %q", value)
	}
}

// Changes describes how a unit's input differs from the previous run.
// Archive units carry a single aggregate Status. Directory units carry
// per-file statuses when HasFileStatuses is set; otherwise the whole
// directory must be copied again.
type Changes struct {
	Status          Status
	Files           map[string]Status
	HasFileStatuses bool
}

// FullCopy returns the change set of a non-incremental run.
func FullCopy() Changes {
	return Changes{Status: StatusAdded}
}

type TransformUnit struct {
	Input   string
	Output  string
	Format  Format
	Changes Changes
}

func (u TransformUnit) String() string {
	return fmt.Sprintf("%s %s -> %s", u.Format, u.Input, u.Output)
}

// TransformSet is everything one invocation may read or write. Only Units
// are rewritable; ReferencedUnits and BootClasspath are lookup-only.
type TransformSet struct {
	Units           []TransformUnit
	ReferencedUnits []TransformUnit
	BootClasspath   []string
}

// Classpath flattens the set in lookup priority order: unit inputs, then
// referenced inputs, then the boot classpath.
func (s TransformSet) Classpath() []string {
	classpath := make([]string, 0, len(s.Units)+len(s.ReferencedUnits)+len(s.BootClasspath))
	for _, unit := range s.Units {
		classpath = append(classpath, unit.Input)
	}
	for _, unit := range s.ReferencedUnits {
		classpath = append(classpath, unit.Input)
	}
	classpath = append(classpath, s.BootClasspath...)
	return classpath
}

type SyncSummary struct {
	Units   int
	Copied  int
	Removed int
	Skipped int
}
