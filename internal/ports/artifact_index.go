package ports

import (
	"context"

	"databinding-compat/internal/types"
)

// ArtifactIndexPort answers class lookups over an ordered classpath of
// directories and archives.
type ArtifactIndexPort interface {
	Contains(ctx context.Context, class types.ObjectType) (bool, error)
	// FindContainingFile returns the classpath entry that defines the class,
	// and false when no entry does.
	FindContainingFile(ctx context.Context, class types.ObjectType) (string, bool, error)
	ReadRawBytes(ctx context.Context, class types.ObjectType) ([]byte, error)
	Classpath() []string
	Close() error
}
