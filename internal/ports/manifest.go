package ports

import "databinding-compat/internal/types"

type TransformManifestPort interface {
	LoadTransformSet(path string) (types.TransformSet, error)
}
