package ports

import (
	"context"

	"databinding-compat/internal/types"
)

type ClassRewriterPort interface {
	Rewrite(ctx context.Context, data []byte, target types.ClassTarget) (types.RewriteResult, error)
}
