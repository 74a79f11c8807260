package ports

import "databinding-compat/internal/types"

type ReportPort interface {
	WriteTransformReport(sync types.SyncSummary, patch types.PatchResult) error
}
