package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"databinding-compat/internal/ports"
	"databinding-compat/internal/types"
)

const TransformReportName = "transform.report"

// ReportFileAdapter writes a key=value summary of a transform run.
type ReportFileAdapter struct {
	Dir string
}

func NewReportFileAdapter(dir string) ReportFileAdapter {
	return ReportFileAdapter{Dir: dir}
}

func (a ReportFileAdapter) WriteTransformReport(sync types.SyncSummary, patch types.PatchResult) error {
	path, err := a.ensurePath(TransformReportName)
	if err != nil {
		return err
	}
	lines := []string{
		fmt.Sprintf("units=%d", sync.Units),
		fmt.Sprintf("copied=%d", sync.Copied),
		fmt.Sprintf("removed=%d", sync.Removed),
		fmt.Sprintf("skipped=%d", sync.Skipped),
		fmt.Sprintf("outcome=%s", patch.Outcome),
		fmt.Sprintf("target=%s", patch.Target.InternalName),
		fmt.Sprintf("gate=%s", patch.Gate.InternalName),
		fmt.Sprintf("source=%s", patch.SourceFile),
		fmt.Sprintf("output=%s", patch.Output),
		fmt.Sprintf("format=%s", patch.Format),
		fmt.Sprintf("methods=%s", strings.Join(patch.Methods, ",")),
		fmt.Sprintf("original_digest=%s", patch.OriginalDigest),
		fmt.Sprintf("patched_digest=%s", patch.PatchedDigest),
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write transform report").
			WithCause(err)
	}
	return nil
}

func (a ReportFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("report directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create report directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

var _ ports.ReportPort = ReportFileAdapter{}
