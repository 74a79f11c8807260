package core

import "databinding-compat/internal/types"

// ResolveStatus turns a declared status into the one to act on. UNKNOWN is
// resolved once against the current filesystem; every other status is
// returned unchanged.
func ResolveStatus(declared types.Status, sourceExists bool) types.Status {
	if declared != types.StatusUnknown && declared != "" {
		return declared
	}
	if sourceExists {
		return types.StatusChanged
	}
	return types.StatusRemoved
}
