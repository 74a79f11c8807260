package ports

import (
	"context"

	"databinding-compat/internal/types"
)

type ContainerWriterPort interface {
	// Persist stores data as the class file of target inside output, which
	// is either a directory tree or an archive depending on the writer.
	Persist(ctx context.Context, output string, target types.ObjectType, data []byte) error
}
